// Package pipeline wires the corpus scanner, the classifier and the index
// writer into one sequential run. Tables are processed one at a time in
// corpus order; a malformed or unreadable table is logged and skipped, never
// fatal to the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/paleodata/tablesift/internal/classify"
	"github.com/paleodata/tablesift/internal/config"
	"github.com/paleodata/tablesift/internal/corpus"
	"github.com/paleodata/tablesift/internal/index"
)

// Summary reports what a run did.
type Summary struct {
	// Discovered is the number of table files found under the input root.
	Discovered int
	// Processed is the number of tables classified and written to the index.
	Processed int
	// Skipped is the number of tables dropped for read or grid errors.
	Skipped int
	// RealTables is the number of processed tables predicted to be genuine.
	RealTables int
}

// Runner executes one classification run over a corpus.
type Runner struct {
	cfg    *config.Config
	logger *log.Logger

	// Progress receives the progress bar; defaults to stderr. Tests point
	// it at io.Discard.
	Progress io.Writer
}

// NewRunner creates a runner for the given configuration. The logger
// receives per-table skip messages and the run summary.
func NewRunner(cfg *config.Config, logger *log.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		Progress: os.Stderr,
	}
}

// Run scans the input directory, classifies every discovered table and
// writes the aggregated index. It returns early only on setup failures,
// write failures or context cancellation; per-table failures are logged
// and counted in the summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	classifier, err := r.buildClassifier()
	if err != nil {
		return nil, err
	}

	entries, err := corpus.NewScanner(r.cfg.InputDir).Scan()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Discovered: len(entries)}
	records := make([]*classify.Record, 0, len(entries))
	bar := r.newProgressBar(len(entries))

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		_ = bar.Add(1)

		record, err := r.classifyEntry(classifier, entry)
		if err != nil {
			r.logger.Printf("skipping table %s: %v", entry.Identity, err)
			summary.Skipped++
			continue
		}

		records = append(records, record)
		summary.Processed++
		if record.IsTable {
			summary.RealTables++
		}
	}
	_ = bar.Finish()

	writer := index.NewWriter(r.cfg.OutputDir, classifier.RuleNames(), r.cfg.WriteXLSX)
	if err := writer.Write(records); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}

	r.logger.Printf("indexed %d of %d tables (%d skipped, %d predicted real)",
		summary.Processed, summary.Discovered, summary.Skipped, summary.RealTables)
	return summary, nil
}

// classifyEntry reads and classifies a single table file.
func (r *Runner) classifyEntry(classifier *classify.Classifier, entry corpus.Entry) (*classify.Record, error) {
	grid, err := corpus.ReadGrid(entry)
	if err != nil {
		return nil, err
	}

	record, err := classifier.Classify(grid)
	if err != nil {
		var malformed *classify.MalformedGridError
		if errors.As(err, &malformed) {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected classification failure: %w", err)
	}
	return record, nil
}

func (r *Runner) buildClassifier() (*classify.Classifier, error) {
	rules := classify.DefaultRules()
	if r.cfg.RulesFile != "" {
		loaded, err := classify.LoadRules(r.cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
		if r.cfg.IsDebug() {
			r.logger.Printf("loaded %d keyword rules from %s", len(rules), r.cfg.RulesFile)
		}
	}
	return classify.NewWithRules(r.cfg.Thresholds, rules)
}

func (r *Runner) newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.Progress),
		progressbar.OptionSetDescription("extracting features"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
