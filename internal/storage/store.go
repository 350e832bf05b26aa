// Package storage wraps an embedded document/graph engine: SQLite in
// STRICT mode, accessed exclusively through database/sql, with
// table-scoped server-side hooks (internal/schema's stand-in for the
// SurrealQL DEFINE EVENT rules named in the design) and a restartable
// live-notification bus. The handle is reference-counted and safe for
// concurrent use by every pipeline task, matching "pointer-shared DB
// handle" from the design notes.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Hook runs inside the same transaction as the row creation that
// triggered it — the Go-native stand-in for a SurrealQL DEFINE EVENT.
// Hooks must not call back into Store methods that open their own
// transaction; they operate directly on tx.
type Hook func(ctx context.Context, tx *sql.Tx, row Row) error

// Store is a namespace+database pair backed by one SQLite file. A single
// Store holds every entity and relation table internal/schema installs,
// including the ones that relate an fs_node-family row to an app/icon
// row (is_file, has_icon): the trigger-backed events that derive those
// relations run inside the same transaction as the row that causes them,
// which SQLite cannot do across an ATTACHed database under this
// package's single-writer-connection design. See DESIGN.md's Open
// Questions entry on database layout.
type Store struct {
	db        *sql.DB
	namespace string
	database  string
	path      string

	mu    sync.RWMutex
	hooks map[string][]Hook

	notifier *notifier
}

// Open ensures the namespace/database exists on disk (idempotent) and
// returns a ready-to-use, reference-counted handle. dataDir is typically
// the per-user local data directory (spec §6); the database file lives
// at dataDir/namespace/database.db.
func Open(ctx context.Context, dataDir, namespace, database string) (*Store, error) {
	dir := filepath.Join(dataDir, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapErr("open", fmt.Errorf("mkdir %s: %w", dir, err))
	}

	path := filepath.Join(dir, database+".db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapErr("open", err)
	}

	// A single writer connection avoids SQLITE_BUSY without needing
	// busy_timeout tuning; the live bus fans out in-process instead of
	// relying on a second reader connection racing the writer.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, wrapErr("open", fmt.Errorf("%s: %w", p, err))
		}
	}

	return &Store{
		db:        db,
		namespace: namespace,
		database:  database,
		path:      path,
		hooks:     make(map[string][]Hook),
		notifier:  newNotifier(),
	}, nil
}

// Close releases the underlying connection and tears down all pending
// subscriptions.
func (s *Store) Close() error {
	s.notifier.closeAll()
	return wrapErr("close", s.db.Close())
}

// Namespace and Database report the identity of this handle, mirroring
// spec §6's namespace/database naming (namespace "leaper"; database
// "apps" or "fs_node").
func (s *Store) Namespace() string { return s.namespace }
func (s *Store) Database() string  { return s.database }
func (s *Store) Path() string      { return s.path }

// RegisterHook attaches a server-side event to table. Hooks run in
// registration order, inside the transaction that created the row.
func (s *Store) RegisterHook(table string, hook Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[table] = append(s.hooks[table], hook)
}

func (s *Store) hooksFor(table string) []Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Hook(nil), s.hooks[table]...)
}

// Exec runs a non-query DDL/DML statement directly, for schema
// installation (internal/schema) where there is no row to return.
func (s *Store) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return wrapErr("exec", err)
}
