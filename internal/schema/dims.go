package schema

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Dims is a parsed "NxN" icon resolution.
type Dims struct {
	Width  int
	Height int
}

var dimsPattern = regexp.MustCompile(`(\d+)x(\d+)`)

// DimsFromPath extracts the resolution from the nearest ancestor
// directory component matching NxN, scanning from the file itself
// outward (§3 invariant 6: best-effort, a miss is not an error).
// The pattern is unanchored, so any component that contains NxN
// matches; "256x256@2"-style scale suffixes are therefore tolerated.
func DimsFromPath(path string) *Dims {
	dir := filepath.Dir(path)
	for dir != "." && dir != string(filepath.Separator) && dir != "" {
		comp := filepath.Base(dir)
		if m := dimsPattern.FindStringSubmatch(comp); m != nil {
			w, errW := strconv.Atoi(m[1])
			h, errH := strconv.Atoi(m[2])
			if errW == nil && errH == nil {
				return &Dims{Width: w, Height: h}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil
}

// NormalizeIconName strips the known suffixes from a file stem,
// repeatedly, so combinations like "foo-symbolic-default" reduce fully.
func NormalizeIconName(stem string) string {
	name := stem
	for {
		trimmed := name
		for _, suffix := range iconSuffixes {
			trimmed = strings.TrimSuffix(trimmed, suffix)
		}
		if trimmed == name {
			return name
		}
		name = trimmed
	}
}
