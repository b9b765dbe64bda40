package corpus

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/paleodata/tablesift/internal/table"
)

// ReadGrid reads one table file into a grid. Rows are taken as-is: the
// reader does not pad short rows, so a ragged file surfaces as a
// non-rectangular grid for the classifier to reject. An empty file yields a
// zero-row grid, which is a valid input.
func ReadGrid(entry Entry) (*table.Grid, error) {
	f, err := os.Open(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // row widths are validated downstream
	reader.LazyQuotes = true

	cells, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", entry.Path, err)
	}

	return &table.Grid{
		Identity: entry.Identity,
		Cells:    cells,
	}, nil
}
