// Package indexer turns a single filesystem path into fs_node/directory
// /file/symlink rows plus their kind edges, idempotently.
package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/go-git/go-billy/v5"
	"github.com/leaper-go/leaper/internal/control"
	"github.com/leaper-go/leaper/internal/storage"
)

// Options configures one Index call.
type Options struct {
	// TrackParent, when true, recursively indexes parent(path) and
	// writes parent -> is_parent_of -> child (spec §4.4 step 4). Crawls
	// over app/icon roots leave this false; only symlink-target
	// recursion sets it, per the design's Open Question decision.
	TrackParent bool
}

// Indexer classifies and records a filesystem path in the store,
// recursively following symlink targets.
type Indexer struct {
	fs      billy.Filesystem
	store   *storage.Store
	handle  *control.Handle
	visited visitedSet
}

// New builds an Indexer over fs, persisting to store, cooperatively
// cancelled via handle.
func New(handle *control.Handle, fs billy.Filesystem, store *storage.Store) *Indexer {
	return &Indexer{fs: fs, store: store, handle: handle, visited: newVisitedSet()}
}

// Index is the per-path operation from spec §4.4: idempotent lookup,
// create, classify, and (if requested) parent-chain indexing.
func (ix *Indexer) Index(ctx context.Context, path string, opts Options) (string, error) {
	if err := ix.handle.Probe(); err != nil {
		return "", err
	}

	id, err := ix.store.Lookup(ctx, "fs_node", "path", path)
	if err == nil {
		return id, nil
	}
	if err != storage.ErrNotFound {
		return "", fmt.Errorf("indexer: lookup %s: %w", path, err)
	}

	id, err = ix.store.Create(ctx, "fs_node", map[string]any{
		"path": path,
		"name": filepath.Base(path),
	})
	if err != nil {
		if isUniqueViolation(err) {
			// Another task created it concurrently; the retry is a
			// success (spec §4.4 "uniqueness violations on retries are
			// treated as success").
			return ix.store.Lookup(ctx, "fs_node", "path", path)
		}
		return "", fmt.Errorf("indexer: create fs_node %s: %w", path, err)
	}

	if err := ix.classify(ctx, id, path, opts); err != nil {
		log.Printf("indexer: classify %s: %v", path, err)
	}

	if opts.TrackParent {
		parent := filepath.Dir(path)
		if parent != path {
			parentID, err := ix.Index(ctx, parent, opts)
			if err != nil {
				log.Printf("indexer: index parent %s: %v", parent, err)
			} else {
				if _, err := ix.store.Create(ctx, "is_parent_of", map[string]any{
					"in_id": parentID, "out_id": id,
				}); err != nil && !isUniqueViolation(err) {
					log.Printf("indexer: relate is_parent_of %s -> %s: %v", parent, path, err)
				}
			}
		}
	}

	return id, nil
}

func (ix *Indexer) classify(ctx context.Context, fsNodeID, path string, opts Options) error {
	info, err := ix.fs.Lstat(path)
	if err != nil {
		return fmt.Errorf("lstat: %w", err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return ix.classifySymlink(ctx, fsNodeID, path, opts)
	case info.IsDir():
		return ix.classifyDirectory(ctx, fsNodeID)
	default:
		return ix.classifyFile(ctx, fsNodeID, path)
	}
}

func (ix *Indexer) classifySymlink(ctx context.Context, fsNodeID, path string, opts Options) error {
	if !ix.visited.markVisiting(fsNodeID) {
		// Already being recursed into on this crawl — a symlink cycle.
		return nil
	}
	defer ix.visited.clearVisiting(fsNodeID)

	symlinkID, err := ix.store.Create(ctx, "symlink", map[string]any{})
	if err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}
	if _, err := ix.store.Create(ctx, "is_symlink", map[string]any{
		"in_id": fsNodeID, "out_id": symlinkID,
	}); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("relate is_symlink: %w", err)
	}

	target, err := ix.fs.Readlink(path)
	if err != nil {
		return fmt.Errorf("readlink: %w", err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	target = filepath.Clean(target)

	targetID, err := ix.Index(ctx, target, Options{TrackParent: true})
	if err != nil {
		return fmt.Errorf("index symlink target %s: %w", target, err)
	}

	if _, err := ix.store.Create(ctx, "is_symlink_of", map[string]any{
		"in_id": symlinkID, "out_id": targetID,
	}); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("relate is_symlink_of: %w", err)
	}
	return nil
}

func (ix *Indexer) classifyDirectory(ctx context.Context, fsNodeID string) error {
	dirID, err := ix.store.Create(ctx, "directory", map[string]any{})
	if err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if _, err := ix.store.Create(ctx, "is_dir", map[string]any{
		"in_id": fsNodeID, "out_id": dirID,
	}); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("relate is_dir: %w", err)
	}
	return nil
}

func (ix *Indexer) classifyFile(ctx context.Context, fsNodeID, path string) error {
	base := filepath.Base(path)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var extValue any
	if ext != "" {
		extValue = ext
	}

	fileID, err := ix.store.Create(ctx, "file", map[string]any{
		"stem": stem,
		"ext":  extValue,
	})
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := ix.store.Create(ctx, "is_file", map[string]any{
		"in_id": fsNodeID, "out_id": fileID,
	}); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("relate is_file: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && storage.IsUniqueViolation(err)
}

// visitedSet is a roaring-bitmap guard against symlink cycles: an
// O(1) "currently recursing into this fs_node" check, repurposing the
// teacher's file->node bitmap-indexing idiom as a recursion guard
// instead of a reverse index.
type visitedSet struct {
	mu     sync.Mutex
	ids    map[string]uint32
	nextID uint32
	bitmap *roaring.Bitmap
}

func newVisitedSet() visitedSet {
	return visitedSet{ids: make(map[string]uint32), bitmap: roaring.New()}
}

func (v *visitedSet) markVisiting(fsNodeID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	id, ok := v.ids[fsNodeID]
	if !ok {
		id = v.nextID
		v.nextID++
		v.ids[fsNodeID] = id
	}
	if v.bitmap.Contains(id) {
		return false
	}
	v.bitmap.Add(id)
	return true
}

func (v *visitedSet) clearVisiting(fsNodeID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if id, ok := v.ids[fsNodeID]; ok {
		v.bitmap.Remove(id)
	}
}
