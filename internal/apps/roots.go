package apps

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
)

var defaultRoots = []string{"/usr/share", "/usr/local/share", "/snap/"}

// existingDirs filters paths down to the ones that exist on disk.
func existingDirs(paths []string) []string {
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// dedupeSorted deduplicates and sorts paths for reproducibility, per
// spec §4.5 step 1's "deduplicate and sort" requirement.
func dedupeSorted(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	sort.Strings(out)
	return out
}

// xdgDataDirs splits the XDG_DATA_DIRS environment variable on ":"
// directly when it is set, and falls back to adrg/xdg's xdg.DataDirs
// (with its own default list) only when the variable is unset or empty.
func xdgDataDirs() []string {
	if v := os.Getenv("XDG_DATA_DIRS"); v != "" {
		return existingDirs(strings.Split(v, ":"))
	}
	return existingDirs(xdg.DataDirs)
}

// AppRoots returns the deduplicated, sorted set of directories to crawl
// for .desktop files: default roots, XDG roots, and $HOME/.local.
func AppRoots() []string {
	roots := append([]string{}, existingDirs(defaultRoots)...)
	roots = append(roots, xdgDataDirs()...)
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, existingDirs([]string{filepath.Join(home, ".local")})...)
	}
	return dedupeSorted(roots)
}

// IconRoots returns the deduplicated, sorted set of directories to
// crawl for icon files: default roots, XDG roots, and $HOME/.icons.
func IconRoots() []string {
	roots := append([]string{}, existingDirs(defaultRoots)...)
	roots = append(roots, xdgDataDirs()...)
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, existingDirs([]string{filepath.Join(home, ".icons")})...)
	}
	return dedupeSorted(roots)
}
