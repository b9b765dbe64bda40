package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/paleodata/tablesift/internal/table"
)

var digitRunPattern = regexp.MustCompile(`\d+`)

// ExtractFeatures computes the structural signals for one grid. The grid is
// not mutated. An empty grid yields zeroed features with ratio fields 0.
func ExtractFeatures(g *table.Grid) Features {
	f := Features{
		Columns:   g.Cols(),
		Rows:      g.Rows(),
		DigitRuns: make(map[int]int),
	}
	for l := MinDigitRunLength; l <= MaxDigitRunLength; l++ {
		f.DigitRuns[l] = 0
	}
	if g.Empty() {
		return f
	}

	first := true
	for _, row := range g.Cells {
		for _, cell := range row {
			words := len(strings.Fields(cell))
			if first || words < f.CellWordsMin {
				f.CellWordsMin = words
			}
			if first || words > f.CellWordsMax {
				f.CellWordsMax = words
			}
			first = false

			f.TotalWords += words
			if strings.TrimSpace(cell) == "" {
				f.EmptyCells++
			}
			for _, r := range cell {
				f.TotalChars++
				if unicode.IsDigit(r) {
					f.TotalDigits++
				}
			}
			for _, run := range digitRunPattern.FindAllString(cell, -1) {
				if l := len(run); l >= MinDigitRunLength && l <= MaxDigitRunLength {
					f.DigitRuns[l]++
				}
			}
		}
	}

	cellCount := g.CellCount()
	if cellCount > 0 {
		f.CellWordsMean = float64(f.TotalWords) / float64(cellCount)
		f.FillRatio = float64(cellCount-f.EmptyCells) / float64(cellCount)
	}
	if f.TotalChars > 0 {
		f.DigitRatio = float64(f.TotalDigits) / float64(f.TotalChars)
	}
	return f
}
