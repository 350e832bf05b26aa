package desktopentry_test

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/leaper-go/leaper/internal/desktopentry"
)

func writeDesktopFile(t *testing.T, body string) (billy.Filesystem, string) {
	t.Helper()
	fs := memfs.New()
	path := "/app.desktop"
	f, err := fs.Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return fs, path
}

func TestParseFieldCodeExecExpandsToFlags(t *testing.T) {
	fs, path := writeDesktopFile(t, "[Desktop Entry]\nName=Code\nExec=code %f %U --flag\nIcon=code\n")
	e, err := desktopentry.Parse(fs, path)
	require.NoError(t, err)
	require.Equal(t, "Code", e.Name)
	require.Equal(t, []string{"code", "--flag"}, e.Exec)
	require.Equal(t, "code", e.IconName)
}

func TestParseQuotedShellExecPreservesWords(t *testing.T) {
	fs, path := writeDesktopFile(t, "[Desktop Entry]\nName=Shell\nExec=sh -c \"a b\"\n")
	e, err := desktopentry.Parse(fs, path)
	require.NoError(t, err)
	require.Equal(t, []string{"sh", "-c", "a b"}, e.Exec)
}

func TestParseMissingNameDefaultsToUnknown(t *testing.T) {
	fs, path := writeDesktopFile(t, "[Desktop Entry]\nExec=foo\n")
	e, err := desktopentry.Parse(fs, path)
	require.NoError(t, err)
	require.Equal(t, "Unknown", e.Name)
}

func TestParseMissingExecIsAnError(t *testing.T) {
	fs, path := writeDesktopFile(t, "[Desktop Entry]\nName=NoExec\n")
	_, err := desktopentry.Parse(fs, path)
	require.Error(t, err)
}

func TestParseFallsBackToGenericName(t *testing.T) {
	fs, path := writeDesktopFile(t, "[Desktop Entry]\nGenericName=Text Editor\nExec=editor\n")
	e, err := desktopentry.Parse(fs, path)
	require.NoError(t, err)
	require.Equal(t, "Text Editor", e.Name)
}
