package feed

import (
	"context"
	"log"

	"github.com/leaper-go/leaper/internal/storage"
)

// Update is one change to the feed: an app row that was created or
// updated (with its icon resolved as of the moment of delivery), or an
// icon that just materialized for an app that had none.
type Update struct {
	App App
}

// LiveFeed merges the two sources named in spec §4.6: new/updated app
// rows, and has_icon edges materializing after the fact for apps that
// arrived without an icon. The merge is plain fan-in over the two
// underlying subscriptions' buffered channels; it does not retry
// internally (spec §4.6's "restartable on transient errors" is left to
// the consumer).
type LiveFeed struct {
	appSub     *storage.Subscription
	hasIconSub *storage.Subscription

	out chan Update
	err chan error
}

// Live opens a LiveFeed. Close must be called to release the
// underlying subscriptions.
func Live(ctx context.Context, store *storage.Store) *LiveFeed {
	lf := &LiveFeed{
		appSub:     store.Live("app"),
		hasIconSub: store.Live("has_icon"),
		out:        make(chan Update, 256),
		err:        make(chan error, 1),
	}

	go lf.pump(ctx, store)
	return lf
}

// Updates returns the merged stream of feed updates.
func (lf *LiveFeed) Updates() <-chan Update { return lf.out }

// Err returns the feed's error channel. The feed sends nothing on it;
// the end of the feed shows as Updates() being closed.
func (lf *LiveFeed) Err() <-chan error { return lf.err }

// Close releases both underlying subscriptions.
func (lf *LiveFeed) Close() {
	lf.appSub.Close()
	lf.hasIconSub.Close()
}

func (lf *LiveFeed) pump(ctx context.Context, store *storage.Store) {
	defer close(lf.out)

	for {
		select {
		case <-ctx.Done():
			return

		case note, ok := <-lf.appSub.Notifications():
			if !ok {
				return
			}
			app, err := appFromRow(note.Row)
			if err != nil {
				log.Printf("feed: decode app row %s: %v", note.Row.ID, err)
				continue
			}
			lf.resolveAndEmit(ctx, store, app)

		case note, ok := <-lf.hasIconSub.Notifications():
			if !ok {
				return
			}
			lf.handleHasIconEdge(ctx, store, note.Row)
		}
	}
}

func (lf *LiveFeed) resolveAndEmit(ctx context.Context, store *storage.Store, app App) {
	rows, err := store.Query("SELECT * FROM has_icon WHERE in_id = :app_id LIMIT 1").
		Bind("app_id", app.ID).
		Execute(ctx)
	if err == nil {
		edges, scanErr := storage.ScanRows("has_icon", rows)
		rows.Close()
		if scanErr == nil && len(edges) == 1 {
			if icon, err := loadIcon(ctx, store, edges[0].OutID); err == nil {
				app.Icon = icon
			}
		}
	}
	lf.emit(Update{App: app})
}

// handleHasIconEdge is the second merge source: an edge materializing
// after its app arrived without one, so the app gains an icon without
// the app row itself changing.
func (lf *LiveFeed) handleHasIconEdge(ctx context.Context, store *storage.Store, edge storage.Row) {
	appRow, err := store.GetByID(ctx, "app", edge.InID)
	if err != nil {
		return
	}
	app, err := appFromRow(appRow)
	if err != nil {
		log.Printf("feed: decode app row %s: %v", appRow.ID, err)
		return
	}
	if icon, err := loadIcon(ctx, store, edge.OutID); err == nil {
		app.Icon = icon
	}
	lf.emit(Update{App: app})
}

func (lf *LiveFeed) emit(u Update) {
	select {
	case lf.out <- u:
	default:
		select {
		case <-lf.out:
			log.Printf("feed: live feed dropped a stale update")
		default:
		}
		select {
		case lf.out <- u:
		default:
		}
	}
}
