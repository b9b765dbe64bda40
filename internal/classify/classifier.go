// Package classify implements the real-table heuristic and keyword
// annotation over extracted table grids. Most grids coming out of PDF table
// extraction are running text or figure fragments rather than actual tables;
// the classifier's job is to label them so downstream analysis can filter.
package classify

import (
	"fmt"
	"regexp"

	"github.com/paleodata/tablesift/internal/table"
)

// compiledRule pairs a keyword rule with its prepared matcher.
type compiledRule struct {
	rule KeywordRule
	re   *regexp.Regexp
}

// Classifier produces one Record per input grid. It is stateless apart from
// its immutable configuration, so a single instance is safe for concurrent
// use and repeated calls with the same input yield identical results.
type Classifier struct {
	thresholds Thresholds
	rules      []compiledRule
}

// New creates a classifier with the given thresholds and the default
// keyword rule set.
func New(thresholds Thresholds) (*Classifier, error) {
	return NewWithRules(thresholds, DefaultRules())
}

// NewWithRules creates a classifier with an explicit keyword rule set. Rule
// order is preserved and determines keyword flag order in every Record.
func NewWithRules(thresholds Thresholds, rules []KeywordRule) (*Classifier, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := r.compile()
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledRule{rule: r, re: re})
	}

	return &Classifier{
		thresholds: thresholds,
		rules:      compiled,
	}, nil
}

// RuleNames returns the derived column names of the configured rules in
// flag order.
func (c *Classifier) RuleNames() []string {
	names := make([]string, len(c.rules))
	for i, cr := range c.rules {
		names[i] = cr.rule.Name()
	}
	return names
}

// Thresholds returns the configured thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify annotates one grid. It returns a *MalformedGridError and no
// record when the grid is not rectangular; every other input produces a
// complete record. The input grid is never mutated.
func (c *Classifier) Classify(g *table.Grid) (*Record, error) {
	if err := c.checkRectangular(g); err != nil {
		return nil, err
	}

	features := ExtractFeatures(g)

	record := &Record{
		Identity: g.Identity,
		Features: features,
		IsTable:  c.predict(features),
		Keywords: make([]KeywordFlag, len(c.rules)),
	}
	for i, cr := range c.rules {
		record.Keywords[i] = KeywordFlag{
			Name:    cr.rule.Name(),
			Present: matchAny(cr.re, g),
		}
	}
	return record, nil
}

// checkRectangular verifies the grid invariant, identifying the first row
// that breaks it.
func (c *Classifier) checkRectangular(g *table.Grid) error {
	if g.Empty() {
		return nil
	}
	width := len(g.Cells[0])
	for i, row := range g.Cells {
		if len(row) != width {
			return &MalformedGridError{
				Identity: g.Identity,
				Row:      i,
				Want:     width,
				Got:      len(row),
			}
		}
	}
	return nil
}

// predict applies the fixed-threshold heuristic. Empty grids are never
// tables. Genuine tables in the corpus are number-dense with short cells;
// mis-extracted prose fails the digit ratio or mean-words check, and tiny or
// sparse fragments fail the structural minima.
func (c *Classifier) predict(f Features) bool {
	if f.Rows == 0 {
		return false
	}
	if f.Rows < c.thresholds.MinRows || f.Columns < c.thresholds.MinCols {
		return false
	}
	if f.FillRatio < c.thresholds.MinFillRatio {
		return false
	}
	return f.DigitRatio > c.thresholds.MinDigitRatio &&
		f.CellWordsMean < c.thresholds.MaxMeanCellWords
}

// matchAny reports whether any cell of the grid matches the pattern.
func matchAny(re *regexp.Regexp, g *table.Grid) bool {
	for _, row := range g.Cells {
		for _, cell := range row {
			if re.MatchString(cell) {
				return true
			}
		}
	}
	return false
}
