package core

import (
	"fmt"
	"strings"
)

// RelationshipDirection tells which side of a foreign key the edge starts from.
type RelationshipDirection string

const (
	DirectionNormal  RelationshipDirection = "NORMAL"
	DirectionReverse RelationshipDirection = "REVERSE"
)

// RelationshipEdge links a column of one table to a column of another. A nil
// ForeignKeyName marks a user-defined relationship that has no database
// foreign key behind it.
type RelationshipEdge struct {
	ForeignKeyName *string               `json:"foreignKeyName,omitempty"`
	FromTable      string                `json:"fromTable"`
	ToTable        string                `json:"toTable"`
	FromColumn     string                `json:"fromColumn"`
	ToColumn       string                `json:"toColumn"`
	Direction      RelationshipDirection `json:"direction"`
	Excluded       bool                  `json:"excluded,omitempty"`
}

// NewRelationshipEdge builds an edge and fails fast when any endpoint is empty.
func NewRelationshipEdge(foreignKeyName *string, fromTable, fromColumn, toTable, toColumn string, direction RelationshipDirection) (*RelationshipEdge, error) {
	endpoints := []struct{ field, value string }{
		{"from table", fromTable},
		{"from column", fromColumn},
		{"to table", toTable},
		{"to column", toColumn},
	}
	for _, ep := range endpoints {
		if strings.TrimSpace(ep.value) == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptyRelationshipEndpoint, ep.field)
		}
	}
	if direction == "" {
		direction = DirectionNormal
	}
	return &RelationshipEdge{
		ForeignKeyName: foreignKeyName,
		FromTable:      fromTable,
		ToTable:        toTable,
		FromColumn:     fromColumn,
		ToColumn:       toColumn,
		Direction:      direction,
	}, nil
}

// IsUserDefined reports whether the edge was created by the user instead of
// being derived from a database foreign key.
func (r *RelationshipEdge) IsUserDefined() bool {
	return r.ForeignKeyName == nil
}

// Reverse returns the same relationship seen from the referenced table.
func (r *RelationshipEdge) Reverse() *RelationshipEdge {
	dir := DirectionReverse
	if r.Direction == DirectionReverse {
		dir = DirectionNormal
	}
	return &RelationshipEdge{
		ForeignKeyName: r.ForeignKeyName,
		FromTable:      r.ToTable,
		ToTable:        r.FromTable,
		FromColumn:     r.ToColumn,
		ToColumn:       r.FromColumn,
		Direction:      dir,
		Excluded:       r.Excluded,
	}
}

func (r *RelationshipEdge) String() string {
	name := "<user>"
	if r.ForeignKeyName != nil {
		name = *r.ForeignKeyName
	}
	return fmt.Sprintf("%s: %s.%s -> %s.%s (%s)", name, r.FromTable, r.FromColumn, r.ToTable, r.ToColumn, r.Direction)
}
