package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Row is a single document: a table-scoped id plus its column values.
// Relation rows additionally populate InID/OutID.
type Row struct {
	Table  string
	ID     string
	InID   string
	OutID  string
	Values map[string]any
}

// Ref identifies a single row for Update/Delete, mirroring the
// (table, id) shorthand from the design.
type Ref struct {
	Table string
	ID    string
}

// Create inserts a new row with a generated id and runs any hooks
// registered for table inside the same transaction. Relation tables
// (in_id/out_id present in columns) are handled the same way — a
// relation is simply a row with two extra foreign columns.
func (s *Store) Create(ctx context.Context, table string, columns map[string]any) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", wrapErr("create", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRow(ctx, tx, table, id, columns); err != nil {
		if IsUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s: %v", ErrUniqueViolation, table, err)
		}
		return "", wrapErr("create", err)
	}

	row := Row{Table: table, ID: id, Values: columns}
	if v, ok := columns["in_id"].(string); ok {
		row.InID = v
	}
	if v, ok := columns["out_id"].(string); ok {
		row.OutID = v
	}

	for _, hook := range s.hooksFor(table) {
		if err := hook(ctx, tx, row); err != nil {
			return "", wrapErr("create:hook", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", wrapErr("create", err)
	}

	s.notifier.publish(table, Notification{Action: Create, Row: row})
	return id, nil
}

func insertRow(ctx context.Context, tx *sql.Tx, table, id string, columns map[string]any) error {
	names := make([]string, 0, len(columns)+1)
	for k := range columns {
		names = append(names, k)
	}
	sort.Strings(names)

	colList := make([]string, 0, len(names)+1)
	placeholders := make([]string, 0, len(names)+1)
	args := make([]any, 0, len(names)+1)

	colList = append(colList, "id")
	placeholders = append(placeholders, ":id")
	args = append(args, sql.Named("id", id))

	for _, name := range names {
		colList = append(colList, name)
		placeholders = append(placeholders, ":"+name)
		args = append(args, sql.Named(name, columns[name]))
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table,
		strings.Join(colList, ", "), strings.Join(placeholders, ", "))
	_, err := tx.ExecContext(ctx, stmt, args...)
	return err
}

// Update replaces the named columns of an existing row and notifies
// subscribers.
func (s *Store) Update(ctx context.Context, ref Ref, columns map[string]any) error {
	names := make([]string, 0, len(columns))
	for k := range columns {
		names = append(names, k)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		sets = append(sets, fmt.Sprintf("%s = :%s", name, name))
		args = append(args, sql.Named(name, columns[name]))
	}
	args = append(args, sql.Named("id", ref.ID))

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", ref.Table, strings.Join(sets, ", "))
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return wrapErr("update", err)
	}

	s.notifier.publish(ref.Table, Notification{
		Action: Update,
		Row:    Row{Table: ref.Table, ID: ref.ID, Values: columns},
	})
	return nil
}

// Delete removes a row by id and notifies subscribers. The core never
// calls this itself (§3: fs_node rows are never deleted by the core),
// but it is part of the storage surface for completeness and tests.
func (s *Store) Delete(ctx context.Context, ref Ref) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id = :id", ref.Table)
	if _, err := s.db.ExecContext(ctx, stmt, sql.Named("id", ref.ID)); err != nil {
		return wrapErr("delete", err)
	}
	s.notifier.publish(ref.Table, Notification{
		Action: Delete,
		Row:    Row{Table: ref.Table, ID: ref.ID},
	})
	return nil
}

// Select returns every row in table as a document stream.
func (s *Store) Select(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return nil, wrapErr("select", err)
	}
	defer rows.Close()
	return ScanRows(table, rows)
}

// Lookup returns a single row's id matching column = value, or
// ErrNotFound. This backs the indexer's "idempotent by path" lookup
// (spec §4.4 step 1) without requiring a bespoke prepared statement per
// caller.
func (s *Store) Lookup(ctx context.Context, table, column string, value any) (string, error) {
	stmt := fmt.Sprintf("SELECT id FROM %s WHERE %s = :v LIMIT 1", table, column)
	row := s.db.QueryRowContext(ctx, stmt, sql.Named("v", value))
	var id string
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", wrapErr("lookup", err)
	}
	return id, nil
}

// GetByID fetches a single row by its primary key, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, table, id string) (Row, error) {
	stmt := fmt.Sprintf("SELECT * FROM %s WHERE id = :id LIMIT 1", table)
	rows, err := s.db.QueryContext(ctx, stmt, sql.Named("id", id))
	if err != nil {
		return Row{}, wrapErr("get", err)
	}
	defer rows.Close()

	found, err := ScanRows(table, rows)
	if err != nil {
		return Row{}, err
	}
	if len(found) == 0 {
		return Row{}, ErrNotFound
	}
	return found[0], nil
}

// ScanRows decodes generic *sql.Rows into Row values keyed by column
// name. It is exported so callers that run their own queries through
// Query/Execute (internal/feed) can reuse the same decoding without
// duplicating the driver-value dance.
func ScanRows(table string, rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapErr("scan", err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrapErr("scan", err)
		}

		row := Row{Table: table, Values: make(map[string]any, len(cols))}
		for i, col := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			switch col {
			case "id":
				if s, ok := v.(string); ok {
					row.ID = s
				}
			case "in_id":
				if s, ok := v.(string); ok {
					row.InID = s
				}
			case "out_id":
				if s, ok := v.(string); ok {
					row.OutID = s
				}
			}
			row.Values[col] = v
		}
		out = append(out, row)
	}
	return out, wrapErr("scan", rows.Err())
}
