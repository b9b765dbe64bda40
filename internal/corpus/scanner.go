// Package corpus enumerates and reads the per-article CSV tables produced by
// the external PDF table-extraction tool. The expected layout under the input
// root is <article>/tables/page.NNN.table.MM.csv; anything else is ignored.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/paleodata/tablesift/internal/table"
)

// tableFilePattern matches the extraction tool's file naming scheme and
// captures the page number and the table index on that page.
var tableFilePattern = regexp.MustCompile(`^page\.(\d+)\.table\.(\d+)\.csv$`)

// Entry is one discovered table file: its identity plus where to read it.
type Entry struct {
	table.Identity
	Path string
}

// Scanner discovers table files under a single extraction root directory.
type Scanner struct {
	root string
}

// NewScanner creates a scanner rooted at the given extraction directory.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Scan walks the extraction root and returns every table file found, sorted
// by (document, page, table index). Unreadable subtrees and files that do
// not match the naming scheme are skipped, not errors.
func (s *Scanner) Scan() ([]Entry, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, fmt.Errorf("cannot access input directory %s: %w", s.root, err)
	}

	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input directory: %w", err)
	}

	var entries []Entry
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Keep walking past unreadable files or directories.
			return nil //nolint:nilerr // intentionally continue on walk errors
		}
		if d.IsDir() {
			return nil
		}

		id, ok := parseTablePath(absRoot, path)
		if !ok {
			return nil
		}
		entries = append(entries, Entry{Identity: id, Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk input directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Identity.Less(entries[j].Identity)
	})
	return entries, nil
}

// parseTablePath extracts a table identity from a candidate file path. The
// document identifier is the article directory, two levels above the file
// (the intervening level is the literal "tables" directory).
func parseTablePath(root, path string) (table.Identity, bool) {
	m := tableFilePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return table.Identity{}, false
	}

	tablesDir := filepath.Dir(path)
	if filepath.Base(tablesDir) != "tables" {
		return table.Identity{}, false
	}
	articleDir := filepath.Dir(tablesDir)
	if filepath.Dir(articleDir) != root {
		return table.Identity{}, false
	}

	page, err := strconv.Atoi(m[1])
	if err != nil {
		return table.Identity{}, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return table.Identity{}, false
	}

	return table.Identity{
		Document: filepath.Base(articleDir),
		Page:     page,
		Table:    index,
	}, true
}
