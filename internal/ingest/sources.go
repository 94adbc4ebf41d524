package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// SourceEntry is one feed listed in the sources file.
type SourceEntry struct {
	URL      string `toml:"url"`
	Title    string `toml:"title,omitempty"`
	Category string `toml:"category,omitempty"`
}

type sourcesFile struct {
	Sources []SourceEntry `toml:"source"`
}

// LoadSources reads a TOML list of [[source]] tables. A missing file is an
// empty list.
func LoadSources(path string) ([]SourceEntry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sources: %w", err)
	}

	var f sourcesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources %s: %w", path, err)
	}

	out := f.Sources[:0]
	for _, s := range f.Sources {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// SaveSources writes entries to path, creating its directory.
func SaveSources(path string, entries []SourceEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating sources directory: %w", err)
	}
	data, err := toml.Marshal(sourcesFile{Sources: entries})
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// MergeSources appends the entries of add whose URL is not yet in list.
func MergeSources(list, add []SourceEntry) []SourceEntry {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[s.URL] = true
	}
	for _, s := range add {
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		list = append(list, s)
	}
	return list
}
