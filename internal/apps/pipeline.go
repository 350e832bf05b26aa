// Package apps composes the filesystem walker and indexer into the
// "search" operation from spec §4.5: crawl app and icon roots, and
// parse .desktop files exactly once per fs_node regardless of how many
// roots rediscover the same path.
package apps

import (
	"context"
	"log"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/leaper-go/leaper/internal/control"
	"github.com/leaper-go/leaper/internal/desktopentry"
	"github.com/leaper-go/leaper/internal/iconcache"
	"github.com/leaper-go/leaper/internal/indexer"
	"github.com/leaper-go/leaper/internal/schema"
	"github.com/leaper-go/leaper/internal/storage"
	"github.com/leaper-go/leaper/internal/walker"
)

// desktopEntryExt selects which files the app crawl family accepts, per
// spec §4.5 step 2; the icon crawl uses schema.RecognizedImageExtensions.
var desktopEntryExt = map[string]bool{"desktop": true}

// iconThemeCacheName is the GTK icon cache's fixed file name; spec.md's
// External Interfaces section and glossary both require its directory
// list to be folded into the icon search roots.
const iconThemeCacheName = "icon-theme.cache"

// Search runs the app crawl, the icon crawl, and the live desktop-entry
// ingestion task concurrently against store, all sharing handle. It
// returns once every task has finished or been cancelled.
func Search(ctx context.Context, handle *control.Handle, fs billy.Filesystem, store *storage.Store) error {
	sub := store.Live("is_file")
	defer sub.Close()

	g, gctx := errgroup.WithContext(handle.Context())

	g.Go(func() error {
		return ingestDesktopEntries(gctx, fs, store, sub)
	})

	g.Go(func() error {
		return crawlRoot(gctx, handle, fs, store, AppRoots(), walker.ExtensionFilter(desktopEntryExt), indexer.Options{})
	})

	g.Go(func() error {
		return crawlIcons(gctx, handle, fs, store)
	})

	return g.Wait()
}

// crawlIcons expands IconRoots() with every directory referenced by an
// icon-theme.cache file found under those roots, then walks the
// combined set for recognized image extensions.
func crawlIcons(ctx context.Context, handle *control.Handle, fs billy.Filesystem, store *storage.Store) error {
	roots := IconRoots()
	cacheDirs := expandIconThemeCaches(handle, fs, roots)
	allRoots := dedupeSorted(append(append([]string{}, roots...), cacheDirs...))
	return crawlRoot(ctx, handle, fs, store, allRoots, walker.ExtensionFilter(schema.RecognizedImageExtensions), indexer.Options{})
}

// expandIconThemeCaches walks roots for files named icon-theme.cache and
// returns the union of every directory they reference, per spec.md's
// "icon-theme.cache files are recognized and expanded to the set of
// directories they reference" requirement.
func expandIconThemeCaches(handle *control.Handle, fs billy.Filesystem, roots []string) []string {
	var dirs []string
	for _, root := range roots {
		if err := handle.Probe(); err != nil {
			return dirs
		}
		entries := walker.Walk(handle, fs, root, walker.Options{Filter: walker.NameFilter(iconThemeCacheName)})
		for entry := range entries {
			found, err := iconcache.Directories(fs, entry.Path)
			if err != nil {
				log.Printf("apps: icon cache %s: %v", entry.Path, err)
				continue
			}
			dirs = append(dirs, found...)
		}
	}
	return dirs
}

func crawlRoot(ctx context.Context, handle *control.Handle, fs billy.Filesystem, store *storage.Store, roots []string, filter walker.Filter, opts indexer.Options) error {
	ix := indexer.New(handle, fs, store)
	for _, root := range roots {
		if err := handle.Probe(); err != nil {
			return err
		}
		entries := walker.Walk(handle, fs, root, walker.Options{Filter: filter})
		for entry := range entries {
			if _, err := ix.Index(ctx, entry.Path, opts); err != nil {
				log.Printf("apps: index %s: %v", entry.Path, err)
			}
		}
	}
	return nil
}

// ingestDesktopEntries is the live query named in spec §4.5 step 3: it
// parses exactly one .desktop file per is_file Create notification
// whose target file has ext == "desktop", so the same path discovered
// by multiple roots is only ever parsed once.
func ingestDesktopEntries(ctx context.Context, fs billy.Filesystem, store *storage.Store, sub *storage.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case note, ok := <-sub.Notifications():
			if !ok {
				return nil
			}
			if note.Action != storage.Create {
				continue
			}
			if err := handleIsFileCreate(ctx, fs, store, note.Row); err != nil {
				log.Printf("apps: desktop-entry ingest: %v", err)
			}
		}
	}
}

func handleIsFileCreate(ctx context.Context, fs billy.Filesystem, store *storage.Store, row storage.Row) error {
	fileID := row.OutID
	fsNodeID := row.InID
	if fileID == "" || fsNodeID == "" {
		return nil
	}

	file, err := store.GetByID(ctx, "file", fileID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil
		}
		return err
	}
	ext, _ := file.Values["ext"].(string)
	if ext != "desktop" {
		return nil
	}

	fsNode, err := store.GetByID(ctx, "fs_node", fsNodeID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil
		}
		return err
	}
	path, _ := fsNode.Values["path"].(string)
	if path == "" {
		return nil
	}

	entry, err := desktopentry.Parse(fs, path)
	if err != nil {
		log.Printf("apps: parse %s: %v", path, err)
		return nil
	}

	execText, err := schema.EncodeExec(entry.Exec)
	if err != nil {
		return err
	}

	columns := map[string]any{
		"desktop_entry_path": path,
		"name":               entry.Name,
		"exec":               execText,
	}
	if entry.IconName != "" {
		columns["icon_name"] = entry.IconName
	} else {
		columns["icon_name"] = nil
	}

	_, err = store.Create(ctx, "app", columns)
	if err != nil && storage.IsUniqueViolation(err) {
		log.Printf("apps: app %s: %v", path, err)
		return nil
	}
	return err
}
