// Package index writes the aggregated table index consumed by downstream
// analysis: one row per classified table, identity first, then the real-table
// prediction, the structural features and one column per keyword rule.
package index

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/paleodata/tablesift/internal/classify"
)

const (
	// CSVFileName is the index file always produced by a run.
	CSVFileName = "tables.csv"
	// XLSXFileName is the spreadsheet variant, produced on request.
	XLSXFileName = "tables.xlsx"

	outputDirPerm = 0o750

	xlsxSheet = "tables"
)

// identityColumns lead every index row.
var identityColumns = []string{"document", "page", "table"}

// featureColumns follow the is_table prediction, in a fixed order.
var featureColumns = []string{
	"columns", "rows",
	"cell_words_min", "cell_words_mean", "cell_words_max",
	"empty_cells", "total_words", "total_chars", "total_digits",
	"digit_ratio", "fill_ratio",
}

// Writer persists annotated records to the output directory.
type Writer struct {
	outputDir      string
	keywordColumns []string
	writeXLSX      bool
}

// NewWriter creates a writer for the given output directory. keywordColumns
// is the classifier's rule-name order and fixes the keyword column layout
// even when no records are produced.
func NewWriter(outputDir string, keywordColumns []string, writeXLSX bool) *Writer {
	return &Writer{
		outputDir:      outputDir,
		keywordColumns: keywordColumns,
		writeXLSX:      writeXLSX,
	}
}

// Write persists all records as a CSV index, plus an XLSX workbook when
// enabled. The output directory is created if missing. Row order follows
// the input slice, which the pipeline keeps in corpus traversal order.
func (w *Writer) Write(records []*classify.Record) error {
	if err := os.MkdirAll(w.outputDir, outputDirPerm); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", w.outputDir, err)
	}

	if err := w.writeCSV(records); err != nil {
		return err
	}
	if w.writeXLSX {
		return w.writeWorkbook(records)
	}
	return nil
}

// Header returns the full column list of the index.
func (w *Writer) Header() []string {
	header := make([]string, 0, len(identityColumns)+1+len(featureColumns)+
		classify.MaxDigitRunLength-classify.MinDigitRunLength+1+len(w.keywordColumns))
	header = append(header, identityColumns...)
	header = append(header, "is_table")
	header = append(header, featureColumns...)
	for l := classify.MinDigitRunLength; l <= classify.MaxDigitRunLength; l++ {
		header = append(header, fmt.Sprintf("digit_of_len_%d", l))
	}
	header = append(header, w.keywordColumns...)
	return header
}

func (w *Writer) row(r *classify.Record) []string {
	f := r.Features
	row := []string{
		r.Document,
		strconv.Itoa(r.Page),
		strconv.Itoa(r.Table),
		strconv.FormatBool(r.IsTable),
		strconv.Itoa(f.Columns),
		strconv.Itoa(f.Rows),
		strconv.Itoa(f.CellWordsMin),
		strconv.FormatFloat(f.CellWordsMean, 'g', -1, 64),
		strconv.Itoa(f.CellWordsMax),
		strconv.Itoa(f.EmptyCells),
		strconv.Itoa(f.TotalWords),
		strconv.Itoa(f.TotalChars),
		strconv.Itoa(f.TotalDigits),
		strconv.FormatFloat(f.DigitRatio, 'g', -1, 64),
		strconv.FormatFloat(f.FillRatio, 'g', -1, 64),
	}
	for l := classify.MinDigitRunLength; l <= classify.MaxDigitRunLength; l++ {
		row = append(row, strconv.Itoa(f.DigitRuns[l]))
	}
	for _, kf := range r.Keywords {
		row = append(row, strconv.FormatBool(kf.Present))
	}
	return row
}

func (w *Writer) writeCSV(records []*classify.Record) error {
	path := filepath.Join(w.outputDir, CSVFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create index file %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(w.Header()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write index header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(w.row(r)); err != nil {
			f.Close()
			return fmt.Errorf("failed to write index row for %s: %w", r.Identity, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush index: %w", err)
	}
	return f.Close()
}

func (w *Writer) writeWorkbook(records []*classify.Record) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), xlsxSheet); err != nil {
		return fmt.Errorf("failed to set up workbook: %w", err)
	}

	if err := w.setRow(wb, 1, toCells(w.Header())); err != nil {
		return err
	}
	for i, r := range records {
		if err := w.setRow(wb, i+2, w.workbookRow(r)); err != nil {
			return err
		}
	}

	path := filepath.Join(w.outputDir, XLSXFileName)
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("cannot write workbook %s: %w", path, err)
	}
	return nil
}

// workbookRow mirrors row but keeps native types so spreadsheet cells come
// out as numbers and booleans rather than text.
func (w *Writer) workbookRow(r *classify.Record) []interface{} {
	f := r.Features
	row := []interface{}{
		r.Document, r.Page, r.Table, r.IsTable,
		f.Columns, f.Rows,
		f.CellWordsMin, f.CellWordsMean, f.CellWordsMax,
		f.EmptyCells, f.TotalWords, f.TotalChars, f.TotalDigits,
		f.DigitRatio, f.FillRatio,
	}
	for l := classify.MinDigitRunLength; l <= classify.MaxDigitRunLength; l++ {
		row = append(row, f.DigitRuns[l])
	}
	for _, kf := range r.Keywords {
		row = append(row, kf.Present)
	}
	return row
}

func (w *Writer) setRow(wb *excelize.File, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to address workbook row %d: %w", rowNum, err)
	}
	if err := wb.SetSheetRow(xlsxSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write workbook row %d: %w", rowNum, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
