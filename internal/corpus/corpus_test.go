package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paleodata/tablesift/internal/table"
)

// writeTableFile creates <root>/<article>/tables/<name> with the given content.
func writeTableFile(t *testing.T, root, article, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, article, "tables")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScanFindsAndOrdersTables(t *testing.T) {
	root := t.TempDir()

	// Written out of order on purpose.
	writeTableFile(t, root, "zimmer1987", "page.002.table.00.csv", "a,b\n")
	writeTableFile(t, root, "abbot2003", "page.010.table.01.csv", "a,b\n")
	writeTableFile(t, root, "abbot2003", "page.010.table.00.csv", "a,b\n")
	writeTableFile(t, root, "abbot2003", "page.002.table.00.csv", "a,b\n")

	scanner := NewScanner(root)
	entries, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, entries, 4)

	want := []table.Identity{
		{Document: "abbot2003", Page: 2, Table: 0},
		{Document: "abbot2003", Page: 10, Table: 0},
		{Document: "abbot2003", Page: 10, Table: 1},
		{Document: "zimmer1987", Page: 2, Table: 0},
	}
	for i, id := range want {
		assert.Equal(t, id, entries[i].Identity)
	}
}

func TestScanIgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()

	writeTableFile(t, root, "abbot2003", "page.001.table.00.csv", "a\n")
	// Wrong name, wrong directory level, wrong parent directory.
	writeTableFile(t, root, "abbot2003", "notes.txt", "x")
	writeTableFile(t, root, "abbot2003", "page.001.csv", "x\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "page.001.table.00.csv"), []byte("x\n"), 0o600))
	figDir := filepath.Join(root, "abbot2003", "figures")
	require.NoError(t, os.MkdirAll(figDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(figDir, "page.001.table.00.csv"), []byte("x\n"), 0o600))

	entries, err := NewScanner(root).Scan()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abbot2003", entries[0].Document)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "absent")).Scan()
	assert.Error(t, err)
}

func TestReadGrid(t *testing.T) {
	root := t.TempDir()
	path := writeTableFile(t, root, "abbot2003", "page.004.table.02.csv",
		"Sample,Age BP,Material\nOxA-1,21540,charcoal\n")

	entry := Entry{
		Identity: table.Identity{Document: "abbot2003", Page: 4, Table: 2},
		Path:     path,
	}
	grid, err := ReadGrid(entry)
	require.NoError(t, err)

	assert.Equal(t, entry.Identity, grid.Identity)
	require.Equal(t, 2, grid.Rows())
	assert.Equal(t, []string{"Sample", "Age BP", "Material"}, grid.Cells[0])
	assert.Equal(t, []string{"OxA-1", "21540", "charcoal"}, grid.Cells[1])
	assert.True(t, grid.Rectangular())
}

func TestReadGridRaggedRowsPreserved(t *testing.T) {
	root := t.TempDir()
	path := writeTableFile(t, root, "abbot2003", "page.001.table.00.csv",
		"a,b,c\nd,e\n")

	grid, err := ReadGrid(Entry{Path: path})
	require.NoError(t, err)

	// Raggedness must reach the classifier, which owns the rectangularity
	// check and the skip policy.
	assert.False(t, grid.Rectangular())
}

func TestReadGridEmptyFile(t *testing.T) {
	root := t.TempDir()
	path := writeTableFile(t, root, "abbot2003", "page.001.table.00.csv", "")

	grid, err := ReadGrid(Entry{Path: path})
	require.NoError(t, err)
	assert.True(t, grid.Empty())
}

func TestReadGridMissingFile(t *testing.T) {
	_, err := ReadGrid(Entry{Path: filepath.Join(t.TempDir(), "absent.csv")})
	assert.Error(t, err)
}

func TestParseTablePath(t *testing.T) {
	root := string(filepath.Separator) + filepath.Join("data", "extraction")

	id, ok := parseTablePath(root, filepath.Join(root, "smith2004", "tables", "page.012.table.03.csv"))
	require.True(t, ok)
	assert.Equal(t, table.Identity{Document: "smith2004", Page: 12, Table: 3}, id)

	_, ok = parseTablePath(root, filepath.Join(root, "smith2004", "page.012.table.03.csv"))
	assert.False(t, ok)

	_, ok = parseTablePath(root, filepath.Join(root, "deep", "smith2004", "tables", "page.012.table.03.csv"))
	assert.False(t, ok)
}
