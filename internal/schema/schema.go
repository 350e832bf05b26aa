package schema

import (
	"context"
	"fmt"

	"github.com/leaper-go/leaper/internal/storage"
)

// Install creates every entity/relation table and index named in §3,
// and registers the three events from §4.2 against the given store.
// Every statement uses IF NOT EXISTS, so the DDL is idempotent. Hooks
// are appended on each call: calling Install twice on the same store
// registers every event twice, and the second run of each event is
// absorbed by the unique indexes.
func Install(ctx context.Context, store *storage.Store) error {
	for _, stmt := range entityTables {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: create entity table: %w", err)
		}
	}
	for _, stmt := range relationTables {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: create relation table: %w", err)
		}
	}
	for _, stmt := range uniqueIndexes {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: create unique index: %w", err)
		}
	}
	for _, stmt := range helperIndexes {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: create helper index: %w", err)
		}
	}

	store.RegisterHook("is_file", iconFileAdded)
	store.RegisterHook("app", appEntryAdded)
	store.RegisterHook("icon", iconAdded)

	return nil
}
