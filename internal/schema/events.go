package schema

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/leaper-go/leaper/internal/storage"
)

// iconFileAdded is §4.2's icon_file_added event: fired on every is_file
// edge creation, it inspects the target file's extension and, if it is
// a recognized image type, materializes an icon row plus a
// file -> is_icon -> icon edge.
func iconFileAdded(ctx context.Context, tx *sql.Tx, row storage.Row) error {
	fileID := row.OutID
	fsNodeID := row.InID
	if fileID == "" || fsNodeID == "" {
		return nil
	}

	var stem string
	var ext sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT stem, ext FROM file WHERE id = :id`, sql.Named("id", fileID)).
		Scan(&stem, &ext)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("icon_file_added: load file %s: %w", fileID, err)
	}
	if !ext.Valid || !RecognizedImageExtensions[ext.String] {
		return nil
	}

	var path string
	err = tx.QueryRowContext(ctx, `SELECT path FROM fs_node WHERE id = :id`, sql.Named("id", fsNodeID)).
		Scan(&path)
	if err != nil {
		return fmt.Errorf("icon_file_added: load fs_node %s: %w", fsNodeID, err)
	}

	dims := DimsFromPath(path)
	name := NormalizeIconName(stem)

	iconID := uuid.NewString()
	var width, height any
	if dims != nil {
		width, height = dims.Width, dims.Height
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO icon (id, name, path, svg, xpm, dims_width, dims_height) VALUES (:id, :name, :path, :svg, :xpm, :w, :h)`,
		sql.Named("id", iconID), sql.Named("name", name), sql.Named("path", path),
		sql.Named("svg", ext.String == "svg"), sql.Named("xpm", ext.String == "xpm"),
		sql.Named("w", width), sql.Named("h", height))
	if err != nil {
		if storage.IsUniqueViolation(err) {
			// icon.path is unique (§3 invariant 4); a second crawl
			// touching the same file is idempotence, not an error.
			return nil
		}
		return fmt.Errorf("icon_file_added: create icon: %w", err)
	}

	if err := relate(ctx, tx, "is_icon", fileID, iconID); err != nil {
		return fmt.Errorf("icon_file_added: relate is_icon: %w", err)
	}

	return linkIconToWaitingApps(ctx, tx, iconID, name)
}

// appEntryAdded is §4.2's app_entry_added event: when an app row with a
// non-null icon_name is created, it picks the best-matching icon
// (ordered by dims.width, dims.height, svg, as specified) and relates
// it.
func appEntryAdded(ctx context.Context, tx *sql.Tx, row storage.Row) error {
	iconName, _ := row.Values["icon_name"].(string)
	if iconName == "" {
		return nil
	}

	iconID, err := bestMatchingIcon(ctx, tx, iconName)
	if err != nil {
		return err
	}
	if iconID == "" {
		return nil
	}
	if err := relate(ctx, tx, "has_icon", row.ID, iconID); err != nil {
		return fmt.Errorf("app_entry_added: relate has_icon: %w", err)
	}
	return nil
}

// iconAdded is §4.2's icon_added event: the mirror image of
// app_entry_added, fired when an icon row is created, so that whichever
// of (app, icon) is inserted first, has_icon eventually exists.
func iconAdded(ctx context.Context, tx *sql.Tx, row storage.Row) error {
	name, _ := row.Values["name"].(string)
	if name == "" {
		return nil
	}
	return linkIconToWaitingApps(ctx, tx, row.ID, name)
}

func linkIconToWaitingApps(ctx context.Context, tx *sql.Tx, iconID, iconName string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM app WHERE icon_name = :name`, sql.Named("name", iconName))
	if err != nil {
		return fmt.Errorf("icon_added: find waiting apps: %w", err)
	}
	defer rows.Close()

	var appIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("icon_added: scan app id: %w", err)
		}
		appIDs = append(appIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, appID := range appIDs {
		best, err := bestMatchingIcon(ctx, tx, iconName)
		if err != nil {
			return err
		}
		if best != iconID {
			// A better-ranked icon already exists for this name;
			// app_entry_added (or an earlier icon_added pass) will have
			// related it instead.
			continue
		}
		if err := relate(ctx, tx, "has_icon", appID, iconID); err != nil {
			return fmt.Errorf("icon_added: relate has_icon: %w", err)
		}
	}
	return nil
}

// bestMatchingIcon implements the ordering named in §4.2:
// "ordered by dims.width, dims.height, svg".
func bestMatchingIcon(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id FROM icon
		WHERE name = :name
		ORDER BY dims_width ASC, dims_height ASC, svg ASC
		LIMIT 1`, sql.Named("name", name))
	var id string
	switch err := row.Scan(&id); err {
	case nil:
		return id, nil
	case sql.ErrNoRows:
		return "", nil
	default:
		return "", fmt.Errorf("best matching icon: %w", err)
	}
}

// relate inserts an edge row, treating a duplicate as success — the
// Go-native reading of SurrealQL's idempotent RELATE.
func relate(ctx context.Context, tx *sql.Tx, table, inID, outID string) error {
	id := uuid.NewString()
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, in_id, out_id) VALUES (:id, :in, :out)`, table),
		sql.Named("id", id), sql.Named("in", inID), sql.Named("out", outID))
	if err != nil && storage.IsUniqueViolation(err) {
		return nil
	}
	return err
}

// EncodeExec serializes an Exec argv into the app.exec TEXT column's
// wire format, kept here so the schema-side column shape and whatever
// writes into it (internal/apps) agree on the encoding.
func EncodeExec(args []string) (string, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeExec is EncodeExec's inverse, used by readers of the app table
// (internal/feed) to recover the argv.
func DecodeExec(text string) ([]string, error) {
	var args []string
	if err := json.Unmarshal([]byte(text), &args); err != nil {
		return nil, err
	}
	return args, nil
}
