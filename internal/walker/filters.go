package walker

import (
	"os"
	"path/filepath"
	"strings"
)

// ExtensionFilter accepts files whose extension (without the leading
// dot, compared case-insensitively) is in want; directories are always
// descended into.
func ExtensionFilter(want map[string]bool) Filter {
	return func(path string, info os.FileInfo, depth int) Decision {
		if info.IsDir() {
			return DescendButSkip
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if want[ext] {
			return Accept
		}
		return Skip
	}
}

// NameFilter accepts files whose base name matches name exactly;
// directories are always descended into.
func NameFilter(name string) Filter {
	return func(path string, info os.FileInfo, depth int) Decision {
		if info.IsDir() {
			return DescendButSkip
		}
		if filepath.Base(path) == name {
			return Accept
		}
		return Skip
	}
}
