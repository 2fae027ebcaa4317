package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Pair is the up/down file pair produced for a new migration.
type Pair struct {
	Version  string
	UpPath   string
	DownPath string
}

// Scaffold writes an empty up/down migration pair into dir, named
// <timestamp>_<slug>. The timestamp version keeps pairs sorted in apply order.
func Scaffold(dir, name string) (*Pair, error) {
	slug := slugify(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	pair := &Pair{Version: now.Format("20060102150405")}
	base := pair.Version + "_" + slug
	pair.UpPath = filepath.Join(dir, base+".up.sql")
	pair.DownPath = filepath.Join(dir, base+".down.sql")

	header := fmt.Sprintf("-- %s\n-- created %s\n\n", name, now.Format(time.RFC3339))
	if err := os.WriteFile(pair.UpPath, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", pair.UpPath, err)
	}
	if err := os.WriteFile(pair.DownPath, []byte(header+"-- revert "+slug+"\n"), 0o644); err != nil {
		_ = os.Remove(pair.UpPath)
		return nil, fmt.Errorf("failed to write %s: %w", pair.DownPath, err)
	}

	return pair, nil
}

// Available returns the sorted base names of the migration pairs in dir.
// A missing directory yields an empty list, not an error.
func Available(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}

// slugify lowercases a human name into a file-safe slug, collapsing runs of
// separators into single underscores and dropping everything else.
func slugify(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
		case r == ' ', r == '-', r == '_':
			pendingSep = true
		}
	}
	return b.String()
}
