package classify

import (
	"fmt"

	"github.com/paleodata/tablesift/internal/table"
)

// Digit runs between these lengths (inclusive) get their own feature column.
// Two to five digit runs cover day/month numbers, years and radiocarbon ages.
const (
	MinDigitRunLength = 2
	MaxDigitRunLength = 5
)

// Thresholds are the configuration constants of the real-table heuristic.
// They are deliberately approximate; the predictor makes no claim of
// statistical optimality.
type Thresholds struct {
	// MinRows is the minimum row count for a grid to be considered a table.
	MinRows int `json:"min_rows"`
	// MinCols is the minimum column count.
	MinCols int `json:"min_cols"`
	// MinDigitRatio is the minimum fraction of digit characters among all
	// characters. Genuine data tables in the corpus are number-heavy.
	MinDigitRatio float64 `json:"min_digit_ratio"`
	// MaxMeanCellWords is the exclusive upper bound on the mean word count
	// per cell. Running prose mis-extracted as a table has long cells.
	MaxMeanCellWords float64 `json:"max_mean_cell_words"`
	// MinFillRatio is the minimum fraction of non-empty cells.
	MinFillRatio float64 `json:"min_fill_ratio"`
}

// DefaultThresholds returns the thresholds used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRows:          2,
		MinCols:          2,
		MinDigitRatio:    0.1,
		MaxMeanCellWords: 5.0,
		MinFillRatio:     0.25,
	}
}

// Validate checks that the thresholds are usable.
func (t Thresholds) Validate() error {
	if t.MinRows < 0 {
		return fmt.Errorf("min rows must be non-negative, got %d", t.MinRows)
	}
	if t.MinCols < 0 {
		return fmt.Errorf("min cols must be non-negative, got %d", t.MinCols)
	}
	if t.MinDigitRatio < 0 || t.MinDigitRatio > 1 {
		return fmt.Errorf("min digit ratio must be in [0,1], got %g", t.MinDigitRatio)
	}
	if t.MinFillRatio < 0 || t.MinFillRatio > 1 {
		return fmt.Errorf("min fill ratio must be in [0,1], got %g", t.MinFillRatio)
	}
	if t.MaxMeanCellWords <= 0 {
		return fmt.Errorf("max mean cell words must be positive, got %g", t.MaxMeanCellWords)
	}
	return nil
}

// Features are the structural signals computed over one grid. They double as
// columns of the output index so that downstream analysis can refit the
// heuristic without re-reading the corpus.
type Features struct {
	Columns       int     `json:"columns"`
	Rows          int     `json:"rows"`
	CellWordsMin  int     `json:"cell_words_min"`
	CellWordsMean float64 `json:"cell_words_mean"`
	CellWordsMax  int     `json:"cell_words_max"`
	EmptyCells    int     `json:"empty_cells"`
	TotalWords    int     `json:"total_words"`
	TotalChars    int     `json:"total_chars"`
	TotalDigits   int     `json:"total_digits"`
	// DigitRatio is TotalDigits/TotalChars, 0 for an all-empty grid.
	DigitRatio float64 `json:"digit_ratio"`
	// FillRatio is the fraction of cells with non-blank content.
	FillRatio float64 `json:"fill_ratio"`
	// DigitRuns counts maximal digit runs by length, keyed by run length
	// for lengths MinDigitRunLength..MaxDigitRunLength.
	DigitRuns map[int]int `json:"digit_runs"`
}

// KeywordFlag records the presence of one keyword rule in a grid.
type KeywordFlag struct {
	// Name is the rule's derived column name, stable per run.
	Name string `json:"name"`
	// Present is true when any cell matched the rule.
	Present bool `json:"present"`
}

// Record is the annotated output for one extracted table. Identity fields
// are copied verbatim from the input grid, never recomputed.
type Record struct {
	table.Identity
	IsTable  bool          `json:"is_table"`
	Features Features      `json:"features"`
	Keywords []KeywordFlag `json:"keywords"`
}

// MalformedGridError reports a grid whose rows have differing column counts.
// It is the only classification failure a caller is expected to recover
// from; the recommended policy is to log the table and continue.
type MalformedGridError struct {
	Identity table.Identity
	Row      int // first offending row
	Want     int // column count of row 0
	Got      int // column count of the offending row
}

// Error implements the error interface.
func (e *MalformedGridError) Error() string {
	return fmt.Sprintf("malformed grid %s: row %d has %d columns, expected %d",
		e.Identity, e.Row, e.Got, e.Want)
}
