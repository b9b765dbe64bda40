// Package table defines the in-memory representation of a table extracted
// from a PDF document page, as produced by the external extraction tool.
package table

import "fmt"

// Identity uniquely identifies an extracted table within a corpus.
// Tables are addressed by the article (document) they came from, the page
// number within that article, and the table index on that page.
type Identity struct {
	Document string `json:"document"`
	Page     int    `json:"page"`
	Table    int    `json:"table"`
}

// String returns a human-readable form used in log messages.
func (id Identity) String() string {
	return fmt.Sprintf("%s p.%d t.%d", id.Document, id.Page, id.Table)
}

// Less orders identities by document, then page, then table index.
func (id Identity) Less(other Identity) bool {
	if id.Document != other.Document {
		return id.Document < other.Document
	}
	if id.Page != other.Page {
		return id.Page < other.Page
	}
	return id.Table < other.Table
}

// Grid is one extracted table: its identity plus a row-major grid of cell
// text. Cells may be empty strings. A Grid is read-only once constructed;
// nothing downstream mutates it.
type Grid struct {
	Identity
	Cells [][]string `json:"cells"`
}

// Rows returns the number of rows in the grid.
func (g *Grid) Rows() int {
	return len(g.Cells)
}

// Cols returns the number of columns, or 0 for an empty grid.
func (g *Grid) Cols() int {
	if len(g.Cells) == 0 {
		return 0
	}
	return len(g.Cells[0])
}

// Empty reports whether the grid has no rows.
func (g *Grid) Empty() bool {
	return len(g.Cells) == 0
}

// Rectangular reports whether every row has the same column count.
// An empty grid is trivially rectangular.
func (g *Grid) Rectangular() bool {
	if len(g.Cells) == 0 {
		return true
	}
	width := len(g.Cells[0])
	for _, row := range g.Cells[1:] {
		if len(row) != width {
			return false
		}
	}
	return true
}

// CellCount returns rows*cols for a rectangular grid.
func (g *Grid) CellCount() int {
	return g.Rows() * g.Cols()
}
