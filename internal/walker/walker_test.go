package walker_test

import (
	"context"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/leaper-go/leaper/internal/control"
	"github.com/leaper-go/leaper/internal/walker"
	"github.com/stretchr/testify/require"
)

func TestWalkCollectsAllFiles(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/root/apps", 0o755))
	require.NoError(t, fs.MkdirAll("/root/icons/16x16", 0o755))
	for _, p := range []string{"/root/apps/foo.desktop", "/root/apps/bar.txt", "/root/icons/16x16/x.svg"} {
		f, err := fs.Create(p)
		require.NoError(t, err)
		_, err = f.Write([]byte("data"))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	handle := control.New(context.Background())
	out := walker.Walk(handle, fs, "/root", walker.Options{})

	var paths []string
	for entry := range out {
		if !entry.Info.IsDir() {
			paths = append(paths, entry.Path)
		}
	}
	sort.Strings(paths)
	require.Equal(t, []string{"/root/apps/bar.txt", "/root/apps/foo.desktop", "/root/icons/16x16/x.svg"}, paths)
}

func TestWalkExtensionFilterAcceptsOnlyMatching(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/root/apps", 0o755))
	for _, p := range []string{"/root/apps/foo.desktop", "/root/apps/bar.txt"} {
		f, err := fs.Create(p)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	handle := control.New(context.Background())
	out := walker.Walk(handle, fs, "/root", walker.Options{
		Filter: walker.ExtensionFilter(map[string]bool{"desktop": true}),
	})

	var paths []string
	for entry := range out {
		paths = append(paths, entry.Path)
	}
	require.Equal(t, []string{"/root/apps/foo.desktop"}, paths)
}

func TestWalkStopsOnCancellation(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/root", 0o755))
	for i := 0; i < 10; i++ {
		f, err := fs.Create("/root/file" + string(rune('a'+i)) + ".txt")
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	handle := control.New(context.Background())
	handle.Stop()

	out := walker.Walk(handle, fs, "/root", walker.Options{})
	count := 0
	for range out {
		count++
	}
	require.Equal(t, 0, count)
}

func TestWalkRespectsMaxDepth(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/root/a/b/c", 0o755))
	for _, p := range []string{"/root/top.txt", "/root/a/one.txt", "/root/a/b/two.txt", "/root/a/b/c/three.txt"} {
		f, err := fs.Create(p)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	handle := control.New(context.Background())
	out := walker.Walk(handle, fs, "/root", walker.Options{MaxDepth: 2})

	var paths []string
	for entry := range out {
		if !entry.Info.IsDir() {
			paths = append(paths, entry.Path)
		}
	}
	sort.Strings(paths)
	require.Equal(t, []string{"/root/a/one.txt", "/root/top.txt"}, paths)
}
