package schema_test

import (
	"context"
	"testing"

	"github.com/leaper-go/leaper/internal/schema"
	"github.com/leaper-go/leaper/internal/storage"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open(ctx, t.TempDir(), "leaper", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, schema.Install(ctx, s))
	return s
}

func createFSNode(t *testing.T, s *storage.Store, path, name string) string {
	t.Helper()
	id, err := s.Create(context.Background(), "fs_node", map[string]any{"path": path, "name": name})
	require.NoError(t, err)
	return id
}

func createFile(t *testing.T, s *storage.Store, stem, ext string) string {
	t.Helper()
	id, err := s.Create(context.Background(), "file", map[string]any{"stem": stem, "ext": ext})
	require.NoError(t, err)
	return id
}

func relateIsFile(t *testing.T, s *storage.Store, fsNodeID, fileID string) {
	t.Helper()
	_, err := s.Create(context.Background(), "is_file", map[string]any{"in_id": fsNodeID, "out_id": fileID})
	require.NoError(t, err)
}

func hasIconCount(t *testing.T, s *storage.Store) int {
	t.Helper()
	rows, err := s.Select(context.Background(), "has_icon")
	require.NoError(t, err)
	return len(rows)
}

// TestHasIconMaterializesAppFirst exercises §8's ordering invariant:
// app a, icon i with a.icon_name == i.name eventually yields has_icon(a,
// i), regardless of which is created first.
func TestHasIconMaterializesAppFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Create(ctx, "app", map[string]any{
		"desktop_entry_path": "/usr/share/applications/foo.desktop",
		"name":               "Foo",
		"exec":               `["foo"]`,
		"icon_name":          "foo-icon",
	})
	require.NoError(t, err)
	require.Equal(t, 0, hasIconCount(t, s))

	fsNode := createFSNode(t, s, "/usr/share/icons/hicolor/48x48/apps/foo-icon.png", "foo-icon.png")
	file := createFile(t, s, "foo-icon", "png")
	relateIsFile(t, s, fsNode, file)

	require.Equal(t, 1, hasIconCount(t, s))
}

// TestHasIconMaterializesIconFirst is the mirror ordering of
// TestHasIconMaterializesAppFirst.
func TestHasIconMaterializesIconFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	fsNode := createFSNode(t, s, "/usr/share/icons/hicolor/48x48/apps/foo-icon.png", "foo-icon.png")
	file := createFile(t, s, "foo-icon", "png")
	relateIsFile(t, s, fsNode, file)
	require.Equal(t, 0, hasIconCount(t, s))

	_, err := s.Create(ctx, "app", map[string]any{
		"desktop_entry_path": "/usr/share/applications/foo.desktop",
		"name":               "Foo",
		"exec":               `["foo"]`,
		"icon_name":          "foo-icon",
	})
	require.NoError(t, err)

	require.Equal(t, 1, hasIconCount(t, s))
}

func TestIconFileAddedSkipsNonImageExtensions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	fsNode := createFSNode(t, s, "/usr/share/applications/foo.desktop", "foo.desktop")
	file := createFile(t, s, "foo", "desktop")
	relateIsFile(t, s, fsNode, file)

	icons, err := s.Select(ctx, "icon")
	require.NoError(t, err)
	require.Empty(t, icons)
}

func TestDimsFromPath(t *testing.T) {
	cases := []struct {
		path string
		dims *schema.Dims
	}{
		{"/usr/share/icons/hicolor/16x16/apps/x.svg", &schema.Dims{Width: 16, Height: 16}},
		{"/usr/share/icons/hicolor/256x256@2/apps/y.png", &schema.Dims{Width: 256, Height: 256}},
		{"/usr/share/icons/hicolor/scalable/apps/z.svg", nil},
	}
	for _, tc := range cases {
		got := schema.DimsFromPath(tc.path)
		if tc.dims == nil {
			require.Nil(t, got, tc.path)
			continue
		}
		require.NotNil(t, got, tc.path)
		require.Equal(t, *tc.dims, *got, tc.path)
	}
}

func TestNormalizeIconNameStripsStackedSuffixes(t *testing.T) {
	require.Equal(t, "foo", schema.NormalizeIconName("foo-symbolic-default"))
	require.Equal(t, "bar", schema.NormalizeIconName("bar-generic"))
	require.Equal(t, "baz", schema.NormalizeIconName("baz"))
}
