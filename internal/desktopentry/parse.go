// Package desktopentry parses XDG Desktop Entry (.desktop) files into
// the name/exec/icon_name fields the app pipeline persists.
package desktopentry

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/mattn/go-shellwords"
	"gopkg.in/ini.v1"
)

// Entry is the subset of a parsed .desktop file the app pipeline needs.
type Entry struct {
	Name     string
	Exec     []string
	IconName string
}

// fieldCodes are the XDG Desktop Entry spec's Exec field codes; legacy
// codes (%d %D %n %N %v %m) are deprecated and always elided.
var fieldCodes = []string{"%f", "%F", "%u", "%U", "%i", "%c", "%k", "%d", "%D", "%n", "%N", "%v", "%m"}

// Parse reads a .desktop file from path through fs and extracts Name,
// Exec, and Icon per spec §4.5 step 3.
func Parse(fs billy.Filesystem, path string) (*Entry, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("desktopentry: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("desktopentry: read %s: %w", path, err)
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("desktopentry: load %s: %w", path, err)
	}

	section := cfg.Section("Desktop Entry")

	name := section.Key("Name").String()
	if name == "" {
		name = section.Key("GenericName").String()
	}
	if name == "" {
		name = "Unknown"
	}

	execRaw := section.Key("Exec").String()
	if execRaw == "" {
		return nil, fmt.Errorf("desktopentry: %s: missing Exec", path)
	}
	args, err := parseExec(execRaw)
	if err != nil {
		return nil, fmt.Errorf("desktopentry: %s: %w", path, err)
	}

	iconName := section.Key("Icon").String()

	return &Entry{Name: name, Exec: args, IconName: iconName}, nil
}

// parseExec implements the fallback chain from spec §4.5 step 3: if any
// argument past the first contains a field code, expand field codes
// first; fall back to expanding them as empty URIs; fall back to a
// plain shell-word split of the raw string.
func parseExec(raw string) ([]string, error) {
	words, err := shellwords.Parse(raw)
	if err != nil || len(words) == 0 {
		return nil, fmt.Errorf("parse exec %q: %w", raw, err)
	}

	needsExpansion := false
	for _, w := range words[1:] {
		if strings.Contains(w, "%") {
			needsExpansion = true
			break
		}
	}
	if !needsExpansion {
		return stripFieldCodes(words), nil
	}

	if expanded, err := expandFieldCodes(raw); err == nil {
		return expanded, nil
	}
	if expanded, err := expandEmptyURIs(raw); err == nil {
		return expanded, nil
	}
	return stripFieldCodes(words), nil
}

// expandFieldCodes removes every recognized field code token before
// splitting, the normal case ("code %f %U --flag" -> ["code", "--flag"]).
func expandFieldCodes(raw string) ([]string, error) {
	expanded := raw
	for _, code := range fieldCodes {
		expanded = strings.ReplaceAll(expanded, code, "")
	}
	words, err := shellwords.Parse(expanded)
	if err != nil {
		return nil, err
	}
	return compact(words), nil
}

// expandEmptyURIs removes every field code in fieldCodes from inside
// already-tokenized words, for Exec strings where naive string
// replacement before tokenizing would corrupt quoting.
func expandEmptyURIs(raw string) ([]string, error) {
	words, err := shellwords.Parse(raw)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(words))
	for _, w := range words {
		for _, code := range fieldCodes {
			w = strings.ReplaceAll(w, code, "")
		}
		if w != "" {
			out = append(out, w)
		}
	}
	return out, nil
}

func stripFieldCodes(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		isCode := false
		for _, code := range fieldCodes {
			if w == code {
				isCode = true
				break
			}
		}
		if !isCode {
			out = append(out, w)
		}
	}
	return out
}

func compact(words []string) []string {
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
