// Package iconcache reads the GTK icon-theme.cache binary format enough
// to recover its directory list — no Go or third-party library in the
// example corpus or the wider ecosystem parses this format, so this is
// a hand-written reader (see DESIGN.md).
package iconcache

import (
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// header mirrors gtk-update-icon-cache's on-disk layout: all integers
// are big-endian.
//
//	uint16 major_version
//	uint16 minor_version
//	uint32 hash_offset
//	uint32 directory_list_offset
type header struct {
	hashOffset          uint32
	directoryListOffset uint32
}

// Directories reads the directory list out of an icon-theme.cache file
// at path through fs, resolving any relative entry against the cache
// file's parent directory per spec §6.
func Directories(fs billy.Filesystem, path string) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("iconcache: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("iconcache: read %s: %w", path, err)
	}

	h, err := parseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("iconcache: %s: %w", path, err)
	}

	names, err := parseDirectoryList(data, h.directoryListOffset)
	if err != nil {
		return nil, fmt.Errorf("iconcache: %s: %w", path, err)
	}

	base := filepath.Dir(path)
	dirs := make([]string, 0, len(names))
	for _, name := range names {
		if filepath.IsAbs(name) {
			dirs = append(dirs, name)
		} else {
			dirs = append(dirs, filepath.Join(base, name))
		}
	}
	return dirs, nil
}

func parseHeader(data []byte) (header, error) {
	// major(2) + minor(2) + hash_offset(4) + directory_list_offset(4)
	const headerLen = 12
	if len(data) < headerLen {
		return header{}, fmt.Errorf("truncated header")
	}
	// There is no ASCII magic string in the on-disk format itself; the
	// only signature is a plausible version number. Guard against
	// obviously-wrong files by requiring major version 1, the only
	// version gtk-update-icon-cache has ever emitted.
	major := binary.BigEndian.Uint16(data[0:2])
	if major != 1 {
		return header{}, fmt.Errorf("unsupported major version %d", major)
	}
	return header{
		hashOffset:          binary.BigEndian.Uint32(data[4:8]),
		directoryListOffset: binary.BigEndian.Uint32(data[8:12]),
	}, nil
}

func parseDirectoryList(data []byte, offset uint32) ([]string, error) {
	if uint64(offset)+4 > uint64(len(data)) {
		return nil, fmt.Errorf("directory list offset %d out of range", offset)
	}
	count := binary.BigEndian.Uint32(data[offset : offset+4])

	var names []string
	for i := uint32(0); i < count; i++ {
		entryOffset := offset + 4 + i*4
		if uint64(entryOffset)+4 > uint64(len(data)) {
			return nil, fmt.Errorf("directory list entry %d out of range", i)
		}
		strOffset := binary.BigEndian.Uint32(data[entryOffset : entryOffset+4])
		name, err := readCString(data, strOffset)
		if err != nil {
			return nil, fmt.Errorf("directory list entry %d: %w", i, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func readCString(data []byte, offset uint32) (string, error) {
	if uint64(offset) >= uint64(len(data)) {
		return "", fmt.Errorf("string offset %d out of range", offset)
	}
	end := offset
	for end < uint32(len(data)) && data[end] != 0 {
		end++
	}
	if end >= uint32(len(data)) {
		return "", fmt.Errorf("unterminated string at offset %d", offset)
	}
	return string(data[offset:end]), nil
}
