// Package walker implements an asynchronous, depth-bounded filesystem
// traversal over a billy.Filesystem, so production code walks a real OS
// tree (osfs) while tests walk an in-memory one (memfs) with identical
// behavior.
package walker

import (
	"log"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/leaper-go/leaper/internal/control"
)

// Decision is a filter callback's verdict for one visited path.
type Decision int

const (
	// Accept emits the entry on the output stream.
	Accept Decision = iota
	// Skip drops the entry and, for a directory, does not descend into it.
	Skip
	// DescendButSkip drops the entry itself but still walks a directory's
	// children — used to pass through wrapper directories without
	// emitting them.
	DescendButSkip
)

// DirEntry is one accepted traversal result.
type DirEntry struct {
	Path      string
	Info      os.FileInfo
	IsSymlink bool
}

// Filter decides the fate of a visited path. depth is 0 at the root.
type Filter func(path string, info os.FileInfo, depth int) Decision

// Options configures a Walk call.
type Options struct {
	// MaxDepth bounds recursion; 0 means unbounded.
	MaxDepth int
	Filter   Filter
}

// Walk traverses root on fs and returns a channel of accepted entries.
// The channel is closed when the traversal completes or the handle is
// cancelled. Traversal order is unspecified — callers must treat the
// stream as unordered. I/O errors on individual entries are logged and
// skipped; the walk continues.
func Walk(handle *control.Handle, fs billy.Filesystem, root string, opts Options) <-chan DirEntry {
	out := make(chan DirEntry)
	go func() {
		defer close(out)
		walkDir(handle, fs, root, 0, opts, out)
	}()
	return out
}

func walkDir(handle *control.Handle, fs billy.Filesystem, path string, depth int, opts Options, out chan<- DirEntry) {
	if err := handle.Probe(); err != nil {
		return
	}

	info, err := fs.Lstat(path)
	if err != nil {
		log.Printf("walker: stat %s: %v", path, err)
		return
	}

	isSymlink := info.Mode()&os.ModeSymlink != 0

	decision := Accept
	if opts.Filter != nil {
		decision = opts.Filter(path, info, depth)
	}

	if decision != Skip {
		if decision == Accept {
			select {
			case out <- DirEntry{Path: path, Info: info, IsSymlink: isSymlink}:
			case <-handle.Context().Done():
				return
			}
		}

		if info.IsDir() && (opts.MaxDepth <= 0 || depth < opts.MaxDepth) {
			if err := handle.Probe(); err != nil {
				return
			}
			entries, err := fs.ReadDir(path)
			if err != nil {
				log.Printf("walker: readdir %s: %v", path, err)
				return
			}
			for _, entry := range entries {
				if err := handle.Probe(); err != nil {
					return
				}
				walkDir(handle, fs, filepath.Join(path, entry.Name()), depth+1, opts, out)
			}
		}
	}
}
