// Package schema defines the entity/relation tables from the data model
// and the three server-side events that derive app/icon facts from raw
// filesystem facts, regardless of which arrives first.
package schema

// RecognizedImageExtensions is the extension set that marks a file as a
// candidate icon (lowercased, without the leading dot).
var RecognizedImageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
	"pbm": true, "pam": true, "ppm": true, "pgm": true,
	"tiff": true, "tif": true, "tga": true, "dds": true, "bmp": true,
	"ico": true, "hdr": true, "exr": true, "ff": true, "avif": true,
	"qoi": true, "pcx": true, "svg": true, "xpm": true,
}

// iconSuffixes are stripped from a file stem to derive the icon's
// logical name, most specific first.
var iconSuffixes = []string{"-default", "-symbolic", "-generic"}

// entityTables are the STRICT document tables for §3's entities.
var entityTables = []string{
	`CREATE TABLE IF NOT EXISTS fs_node (
		id   TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		name TEXT NOT NULL
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS directory (
		id TEXT PRIMARY KEY
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS file (
		id   TEXT PRIMARY KEY,
		stem TEXT NOT NULL,
		ext  TEXT
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS symlink (
		id TEXT PRIMARY KEY
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS app (
		id                 TEXT PRIMARY KEY,
		desktop_entry_path TEXT NOT NULL,
		name               TEXT NOT NULL,
		exec               TEXT NOT NULL,
		icon_name          TEXT
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS icon (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		path        TEXT NOT NULL,
		svg         INTEGER NOT NULL,
		xpm         INTEGER NOT NULL,
		dims_width  INTEGER,
		dims_height INTEGER
	) STRICT`,
}

// relationTables are the edge tables; every one carries in_id/out_id
// plus a generated id, matching the generic Row shape storage.Create
// already knows how to insert.
var relationTables = []string{
	`CREATE TABLE IF NOT EXISTS is_dir (
		id TEXT PRIMARY KEY, in_id TEXT NOT NULL, out_id TEXT NOT NULL
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS is_file (
		id TEXT PRIMARY KEY, in_id TEXT NOT NULL, out_id TEXT NOT NULL
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS is_symlink (
		id TEXT PRIMARY KEY, in_id TEXT NOT NULL, out_id TEXT NOT NULL
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS is_symlink_of (
		id TEXT PRIMARY KEY, in_id TEXT NOT NULL, out_id TEXT NOT NULL
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS is_parent_of (
		id TEXT PRIMARY KEY, in_id TEXT NOT NULL, out_id TEXT NOT NULL
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS is_icon (
		id TEXT PRIMARY KEY, in_id TEXT NOT NULL, out_id TEXT NOT NULL
	) STRICT`,
	`CREATE TABLE IF NOT EXISTS has_icon (
		id TEXT PRIMARY KEY, in_id TEXT NOT NULL, out_id TEXT NOT NULL
	) STRICT`,
}

// uniqueIndexes implements §4.2 item 2 plus the edge-dedup needed so a
// RELATE-equivalent insert is idempotent regardless of insertion order
// (§4.2's "whichever arrives first" guarantee).
var uniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS fs_node_path_idx ON fs_node(path)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS app_desktop_entry_path_idx ON app(desktop_entry_path)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS app_name_idx ON app(name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS icon_path_idx ON icon(path)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS is_icon_edge_idx ON is_icon(in_id, out_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS has_icon_edge_idx ON has_icon(in_id, out_id)`,
}

// helperIndexes are not part of any invariant but keep the event
// dispatcher's lookups (icon by name, app by icon_name) off full
// table scans as the graph grows.
var helperIndexes = []string{
	`CREATE INDEX IF NOT EXISTS icon_name_idx ON icon(name)`,
	`CREATE INDEX IF NOT EXISTS app_icon_name_idx ON app(icon_name)`,
}
