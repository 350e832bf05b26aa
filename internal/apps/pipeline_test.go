package apps_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/leaper-go/leaper/internal/apps"
	"github.com/leaper-go/leaper/internal/control"
	"github.com/leaper-go/leaper/internal/schema"
	"github.com/leaper-go/leaper/internal/storage"
)

// buildIconThemeCache assembles a minimal synthetic icon-theme.cache
// file referencing a single absolute directory, matching the on-disk
// layout internal/iconcache parses.
func buildIconThemeCache(dir string) []byte {
	const headerLen = 12
	directoryListOffset := uint32(headerLen)
	stringsStart := directoryListOffset + 4 + 4

	buf := make([]byte, stringsStart)
	binary.BigEndian.PutUint16(buf[0:2], 1)
	binary.BigEndian.PutUint16(buf[2:4], 0)
	binary.BigEndian.PutUint32(buf[4:8], 0)
	binary.BigEndian.PutUint32(buf[8:12], directoryListOffset)
	binary.BigEndian.PutUint32(buf[directoryListOffset:directoryListOffset+4], 1)

	entryOffset := uint32(len(buf))
	buf = append(buf, []byte(dir)...)
	buf = append(buf, 0)
	binary.BigEndian.PutUint32(buf[directoryListOffset+4:directoryListOffset+8], entryOffset)
	return buf
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open(ctx, t.TempDir(), "leaper", "apps")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, schema.Install(ctx, s))
	return s
}

func TestSearchIndexesDesktopEntryExactlyOnce(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/usr/share/applications", 0o755))
	f, err := fs.Create("/usr/share/applications/foo.desktop")
	require.NoError(t, err)
	_, err = f.Write([]byte("[Desktop Entry]\nName=Foo\nExec=foo %U\nIcon=foo\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	store := openTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	handle := control.New(ctx)

	done := make(chan error, 1)
	go func() {
		done <- apps.Search(ctx, handle, fs, store)
	}()

	require.Eventually(t, func() bool {
		appRows, err := store.Select(context.Background(), "app")
		return err == nil && len(appRows) == 1
	}, 2*time.Second, 10*time.Millisecond)

	handle.Stop()
	<-done

	appRows, err := store.Select(context.Background(), "app")
	require.NoError(t, err)
	require.Len(t, appRows, 1)
	require.Equal(t, "Foo", appRows[0].Values["name"])
}

func TestSearchExpandsIconThemeCacheDirectories(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/usr/share/icons/hicolor", 0o755))
	cache, err := fs.Create("/usr/share/icons/hicolor/icon-theme.cache")
	require.NoError(t, err)
	_, err = cache.Write(buildIconThemeCache("/opt/vendor/icons"))
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	require.NoError(t, fs.MkdirAll("/opt/vendor/icons", 0o755))
	icon, err := fs.Create("/opt/vendor/icons/widget.png")
	require.NoError(t, err)
	_, err = icon.Write([]byte("not a real png, only the extension matters here"))
	require.NoError(t, err)
	require.NoError(t, icon.Close())

	store := openTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	handle := control.New(ctx)

	done := make(chan error, 1)
	go func() {
		done <- apps.Search(ctx, handle, fs, store)
	}()

	require.Eventually(t, func() bool {
		iconRows, err := store.Select(context.Background(), "icon")
		return err == nil && len(iconRows) == 1
	}, 2*time.Second, 10*time.Millisecond)

	handle.Stop()
	<-done

	iconRows, err := store.Select(context.Background(), "icon")
	require.NoError(t, err)
	require.Len(t, iconRows, 1)
	require.Equal(t, "widget", iconRows[0].Values["name"])
}

func TestAppRootsAndIconRootsAreDeduplicatedAndSorted(t *testing.T) {
	for _, roots := range [][]string{apps.AppRoots(), apps.IconRoots()} {
		seen := make(map[string]bool)
		for i, r := range roots {
			require.False(t, seen[r], "duplicate root %s", r)
			seen[r] = true
			if i > 0 {
				require.LessOrEqual(t, roots[i-1], r)
			}
		}
	}
}
