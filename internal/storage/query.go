package storage

import (
	"context"
	"database/sql"
)

// Query is the parameterized-execution surface named in the design:
// query(text).bind(name, value)*.execute(). Named parameters are
// database/sql's own sql.Named mechanism — no hand-rolled ":name"
// substitution is needed, since modernc.org/sqlite supports named
// parameters natively.
type Query struct {
	store *Store
	text  string
	args  []any
}

// Query begins building a parameterized statement.
func (s *Store) Query(text string) *Query {
	return &Query{store: s, text: text}
}

// Bind attaches a named parameter and returns the receiver for chaining.
func (q *Query) Bind(name string, value any) *Query {
	q.args = append(q.args, sql.Named(name, value))
	return q
}

// Execute runs the statement and returns the resulting rows. Callers
// that only care about success/failure should use Check instead.
func (q *Query) Execute(ctx context.Context) (*sql.Rows, error) {
	rows, err := q.store.db.QueryContext(ctx, q.text, q.args...)
	return rows, wrapErr("query", err)
}

// Check runs the statement and discards any rows, surfacing only
// success or failure.
func (q *Query) Check(ctx context.Context) error {
	_, err := q.store.db.ExecContext(ctx, q.text, q.args...)
	return wrapErr("check", err)
}
