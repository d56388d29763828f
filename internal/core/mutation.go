package core

import "fmt"

// MutationKind is the row-level change a grid edit produced.
type MutationKind string

const (
	MutationInsert MutationKind = "INSERT"
	MutationUpdate MutationKind = "UPDATE"
	MutationDelete MutationKind = "DELETE"
)

// Row holds one value per table column, in column order. nil is SQL NULL.
type Row []any

// RowRef is an opaque handle back to the grid row a mutation came from.
type RowRef string

// PendingRowMutation is a recorded grid change waiting to be committed.
// OriginalValues is the pre-edit snapshot used for WHERE correlation on
// updates and deletes; CurrentValues carries the values to write.
type PendingRowMutation struct {
	Kind           MutationKind `json:"kind"`
	OriginalValues Row          `json:"originalValues,omitempty"`
	CurrentValues  Row          `json:"currentValues,omitempty"`
	RowRef         RowRef       `json:"rowRef,omitempty"`

	// Err is attached when committing the mutation failed, for display.
	Err error `json:"-"`
}

// NewInsert records an added grid row.
func NewInsert(ref RowRef, values Row) PendingRowMutation {
	return PendingRowMutation{Kind: MutationInsert, CurrentValues: values, RowRef: ref}
}

// NewUpdate records an edited grid row.
func NewUpdate(ref RowRef, original, current Row) PendingRowMutation {
	return PendingRowMutation{Kind: MutationUpdate, OriginalValues: original, CurrentValues: current, RowRef: ref}
}

// NewDelete records a removed grid row.
func NewDelete(ref RowRef, original Row) PendingRowMutation {
	return PendingRowMutation{Kind: MutationDelete, OriginalValues: original, RowRef: ref}
}

// CheckShape verifies that the value images the mutation kind needs are
// present and have one value per table column.
func (m PendingRowMutation) CheckShape(columns int) error {
	check := func(label string, r Row) error {
		if len(r) != columns {
			return fmt.Errorf("%s mutation %s: %s values has %d entries, table has %d columns", m.Kind, m.RowRef, label, len(r), columns)
		}
		return nil
	}
	switch m.Kind {
	case MutationInsert:
		return check("current", m.CurrentValues)
	case MutationUpdate:
		if err := check("original", m.OriginalValues); err != nil {
			return err
		}
		return check("current", m.CurrentValues)
	case MutationDelete:
		return check("original", m.OriginalValues)
	default:
		return fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
}
