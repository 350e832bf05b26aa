// Package feed exposes the two UI-facing operations from spec §4.6:
// a point-in-time snapshot of every app with its resolved icon, and a
// merged live stream that keeps that snapshot up to date.
package feed

import (
	"context"
	"sort"

	"github.com/leaper-go/leaper/internal/schema"
	"github.com/leaper-go/leaper/internal/storage"
)

// Icon is the resolved icon inlined onto an app, or nil if the app has
// none yet.
type Icon struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	SVG     bool   `json:"svg"`
	XPM     bool   `json:"xpm"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	HasDims bool   `json:"has_dims"`
}

// App is one row of the feed: an application plus its resolved icon.
type App struct {
	ID               string   `json:"id"`
	DesktopEntryPath string   `json:"desktop_entry_path"`
	Name             string   `json:"name"`
	Exec             []string `json:"exec"`
	IconName         string   `json:"icon_name,omitempty"`
	Icon             *Icon    `json:"icon,omitempty"`
}

// Snapshot returns every app ordered by name, with its icon resolved,
// mirroring spec §4.6's
// "SELECT *, ->has_icon->icon.*[0][0] AS icon FROM app ORDER BY name ASC".
func Snapshot(ctx context.Context, store *storage.Store) ([]App, error) {
	appRows, err := queryAll(ctx, store, "app", "SELECT * FROM app")
	if err != nil {
		return nil, err
	}

	hasIconRows, err := queryAll(ctx, store, "has_icon", "SELECT * FROM has_icon")
	if err != nil {
		return nil, err
	}
	iconByApp := make(map[string]string, len(hasIconRows))
	for _, edge := range hasIconRows {
		iconByApp[edge.InID] = edge.OutID
	}

	apps := make([]App, 0, len(appRows))
	for _, row := range appRows {
		app, err := appFromRow(row)
		if err != nil {
			return nil, err
		}
		if iconID, ok := iconByApp[app.ID]; ok {
			icon, err := loadIcon(ctx, store, iconID)
			if err == nil {
				app.Icon = icon
			}
		}
		apps = append(apps, app)
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

func appFromRow(row storage.Row) (App, error) {
	app := App{ID: row.ID}
	app.DesktopEntryPath, _ = row.Values["desktop_entry_path"].(string)
	app.Name, _ = row.Values["name"].(string)
	app.IconName, _ = row.Values["icon_name"].(string)

	if execText, ok := row.Values["exec"].(string); ok {
		args, err := schema.DecodeExec(execText)
		if err != nil {
			return App{}, err
		}
		app.Exec = args
	}
	return app, nil
}

// queryAll runs text (a plain "SELECT * FROM <table>") through the
// store's parameterized Query/Execute surface and decodes the result as
// table rows, rather than going through the Select CRUD shorthand.
func queryAll(ctx context.Context, store *storage.Store, table, text string) ([]storage.Row, error) {
	rows, err := store.Query(text).Execute(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return storage.ScanRows(table, rows)
}

func loadIcon(ctx context.Context, store *storage.Store, iconID string) (*Icon, error) {
	row, err := store.GetByID(ctx, "icon", iconID)
	if err != nil {
		return nil, err
	}
	icon := &Icon{ID: row.ID}
	icon.Name, _ = row.Values["name"].(string)
	icon.Path, _ = row.Values["path"].(string)
	icon.SVG = asBool(row.Values["svg"])
	icon.XPM = asBool(row.Values["xpm"])
	if w, h, ok := asDims(row.Values["dims_width"], row.Values["dims_height"]); ok {
		icon.Width, icon.Height, icon.HasDims = w, h, true
	}
	return icon, nil
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	default:
		return false
	}
}

func asDims(w, h any) (int, int, bool) {
	wi, wok := asInt(w)
	hi, hok := asInt(h)
	if !wok || !hok {
		return 0, 0, false
	}
	return wi, hi, true
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int64:
		return int(t), true
	case int:
		return t, true
	default:
		return 0, false
	}
}
