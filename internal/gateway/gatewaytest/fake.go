// Package gatewaytest provides an in-memory Gateway for unit tests.
package gatewaytest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"sheetsql/internal/core"
	"sheetsql/internal/gateway"
)

// Exec is one recorded ExecuteNonQuery call.
type Exec struct {
	SQL       string
	Params    []core.Param
	Committed bool
}

// Fake records executed statements and answers queries from canned results.
// Failures and affected row counts are looked up by a substring of the SQL.
type Fake struct {
	mu sync.Mutex

	ID string
	// Failures maps a SQL substring to the error any matching statement returns.
	Failures map[string]error
	// Affected maps a SQL substring to the affected row count; the default is 1.
	Affected map[string]int64
	// Schema answers GetSchemaInformation by kind.
	Schema map[gateway.SchemaInfoKind]*gateway.ResultSet
	// Selects answers GetDataFromSelectQuery by SQL substring.
	Selects map[string]*gateway.ResultSet
	// Scalars answers ExecuteScalar by SQL substring.
	Scalars map[string]any
	// BeginErr fails every Begin call.
	BeginErr error

	Execs  []Exec
	Closed bool
}

// New returns an empty fake with connection id "fake@test".
func New() *Fake {
	return &Fake{
		ID:       "fake@test",
		Failures: map[string]error{},
		Affected: map[string]int64{},
		Schema:   map[gateway.SchemaInfoKind]*gateway.ResultSet{},
		Selects:  map[string]*gateway.ResultSet{},
		Scalars:  map[string]any{},
	}
}

func (f *Fake) ConnectionID() string { return f.ID }

func (f *Fake) ExecuteScalar(_ context.Context, query string, _ ...core.Param) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := lookup(f.Failures, query); err != nil {
		return nil, err
	}
	return lookup(f.Scalars, query), nil
}

func (f *Fake) ExecuteNonQuery(_ context.Context, query string, params ...core.Param) (int64, error) {
	return f.exec(query, params, true)
}

func (f *Fake) exec(query string, params []core.Param, committed bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := lookup(f.Failures, query); err != nil {
		return 0, err
	}
	f.Execs = append(f.Execs, Exec{SQL: query, Params: params, Committed: committed})
	for sub, n := range f.Affected {
		if strings.Contains(query, sub) {
			return n, nil
		}
	}
	return 1, nil
}

func (f *Fake) GetSchemaInformation(_ context.Context, kind gateway.SchemaInfoKind, _, _ string) (*gateway.ResultSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rs, ok := f.Schema[kind]; ok {
		return rs, nil
	}
	return &gateway.ResultSet{}, nil
}

func (f *Fake) GetDataFromSelectQuery(_ context.Context, query string) (*gateway.ResultSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := lookup(f.Failures, query); err != nil {
		return nil, err
	}
	if rs := lookup(f.Selects, query); rs != nil {
		return rs, nil
	}
	return nil, errors.New("gatewaytest: no canned result for " + query)
}

func (f *Fake) Begin(context.Context) (gateway.UnitOfWork, error) {
	if f.BeginErr != nil {
		return nil, f.BeginErr
	}
	return &unit{f: f}, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Statements returns the SQL of every committed statement, in order.
func (f *Fake) Statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.Execs {
		if e.Committed {
			out = append(out, e.SQL)
		}
	}
	return out
}

type unit struct {
	f       *Fake
	pending []int
	done    bool
}

func (u *unit) ExecuteNonQuery(_ context.Context, query string, params ...core.Param) (int64, error) {
	n, err := u.f.exec(query, params, false)
	if err == nil {
		u.f.mu.Lock()
		u.pending = append(u.pending, len(u.f.Execs)-1)
		u.f.mu.Unlock()
	}
	return n, err
}

func (u *unit) Commit() error {
	if u.done {
		return errors.New("gatewaytest: unit of work already finished")
	}
	u.done = true
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	for _, i := range u.pending {
		u.f.Execs[i].Committed = true
	}
	return nil
}

func (u *unit) Rollback() error {
	u.done = true
	return nil
}

func lookup[V any](m map[string]V, query string) V {
	var zero V
	for sub, v := range m {
		if strings.Contains(query, sub) {
			return v
		}
	}
	return zero
}
