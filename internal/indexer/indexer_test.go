package indexer_test

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/leaper-go/leaper/internal/control"
	"github.com/leaper-go/leaper/internal/indexer"
	"github.com/leaper-go/leaper/internal/schema"
	"github.com/leaper-go/leaper/internal/storage"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open(ctx, t.TempDir(), "leaper", "fs_node")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, schema.Install(ctx, s))
	return s
}

func TestIndexFileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	f, err := fs.Create("/apps/foo.desktop")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s := openTestStore(t)
	ix := indexer.New(control.New(ctx), fs, s)

	id1, err := ix.Index(ctx, "/apps/foo.desktop", indexer.Options{})
	require.NoError(t, err)

	id2, err := ix.Index(ctx, "/apps/foo.desktop", indexer.Options{})
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	files, err := s.Select(ctx, "file")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "foo", files[0].Values["stem"])
	require.Equal(t, "desktop", files[0].Values["ext"])

	isFile, err := s.Select(ctx, "is_file")
	require.NoError(t, err)
	require.Len(t, isFile, 1)
}

func TestIndexDirectory(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/usr/share/applications", 0o755))

	s := openTestStore(t)
	ix := indexer.New(control.New(ctx), fs, s)

	_, err := ix.Index(ctx, "/usr/share/applications", indexer.Options{})
	require.NoError(t, err)

	dirs, err := s.Select(ctx, "directory")
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	isDir, err := s.Select(ctx, "is_dir")
	require.NoError(t, err)
	require.Len(t, isDir, 1)
}

func TestIndexSymlinkRecursesToTarget(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	f, err := fs.Create("/real/icon.png")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, fs.Symlink("/real/icon.png", "/link/icon.png"))

	s := openTestStore(t)
	ix := indexer.New(control.New(ctx), fs, s)

	_, err = ix.Index(ctx, "/link/icon.png", indexer.Options{})
	require.NoError(t, err)

	symlinks, err := s.Select(ctx, "symlink")
	require.NoError(t, err)
	require.Len(t, symlinks, 1)

	isSymlinkOf, err := s.Select(ctx, "is_symlink_of")
	require.NoError(t, err)
	require.Len(t, isSymlinkOf, 1)

	files, err := s.Select(ctx, "file")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "icon", files[0].Values["stem"])
}

func TestIndexParentTracking(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/usr/share", 0o755))
	f, err := fs.Create("/usr/share/foo.desktop")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s := openTestStore(t)
	ix := indexer.New(control.New(ctx), fs, s)

	_, err = ix.Index(ctx, "/usr/share/foo.desktop", indexer.Options{TrackParent: true})
	require.NoError(t, err)

	isParentOf, err := s.Select(ctx, "is_parent_of")
	require.NoError(t, err)
	require.NotEmpty(t, isParentOf)
}
