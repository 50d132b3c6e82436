// Package workbook reads sheet context from xlsx files and writes generated
// formulas back into them. It is the only part of the program that touches
// spreadsheet files; generation itself never does.
package workbook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/formulaspark/formulaspark/pkg/models"
)

// dateSampleRows caps how many data rows per column date detection reads.
const dateSampleRows = 10

// Workbook wraps one open xlsx file.
type Workbook struct {
	f *excelize.File
}

// Open opens the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{f: f}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Headers returns the non-empty first-row values of a sheet, in column
// order. Gaps in the header row are skipped.
func (w *Workbook) Headers(sheet string) ([]string, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var headers []string
	for _, cell := range rows[0] {
		if strings.TrimSpace(cell) != "" {
			headers = append(headers, cell)
		}
	}
	return headers, nil
}

// HeaderColumns maps each non-empty header to its actual cell position, so
// a gap in the header row never shifts the letters of the columns after it.
func (w *Workbook) HeaderColumns(sheet string) (map[string]models.HeaderRef, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	refs := make(map[string]models.HeaderRef)
	if len(rows) == 0 {
		return refs, nil
	}
	for i, cell := range rows[0] {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		refs[cell] = models.HeaderRef{Header: cell, Column: col, Range: col + ":" + col}
	}
	return refs, nil
}

// DateColumns samples up to dateSampleRows data rows per column and reports
// the headers whose sampled values are mostly dates: more than half of the
// non-empty samples must be either a spreadsheet serial between 1 and 50000
// or a string longer than four characters containing '/', '-', or '.'.
func (w *Workbook) DateColumns(sheet string) (map[string]string, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	dates := make(map[string]string)
	if len(rows) < 2 {
		return dates, nil
	}
	for i, header := range rows[0] {
		if strings.TrimSpace(header) == "" {
			continue
		}
		sampled, dateLike := 0, 0
		for r := 1; r < len(rows) && r <= dateSampleRows; r++ {
			if i >= len(rows[r]) {
				continue
			}
			v := strings.TrimSpace(rows[r][i])
			if v == "" {
				continue
			}
			sampled++
			if looksLikeDate(v) {
				dateLike++
			}
		}
		if sampled > 0 && dateLike*2 > sampled {
			dates[header] = "DATE"
		}
	}
	return dates, nil
}

func looksLikeDate(v string) bool {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n >= 1 && n <= 50000
	}
	return len(v) > 4 && strings.ContainsAny(v, "/-.")
}

// InsertFormulaSheet creates a timestamped sheet holding the formula both
// as text and as a live cell formula, plus provenance cells, and saves the
// workbook. It returns the new sheet's name. An empty sourceSheet defaults
// to the workbook's first sheet.
func (w *Workbook) InsertFormulaSheet(formulaText, sourceSheet string) (string, error) {
	if sourceSheet == "" {
		if list := w.f.GetSheetList(); len(list) > 0 {
			sourceSheet = list[0]
		}
	}

	now := time.Now()
	name := "Formula_" + now.Format("20060102_150405")
	if _, err := w.f.NewSheet(name); err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}

	cells := []struct {
		ref, value string
	}{
		{"A1", "Generated Formula"},
		{"A2", "Generated on:"},
		{"B2", now.Format("2006-01-02 15:04:05")},
		{"A3", "Source Sheet:"},
		{"B3", "'" + sourceSheet + "'"},
		{"A4", "Formula:"},
		{"A5", formulaText},
	}
	for _, c := range cells {
		if err := w.f.SetCellStr(name, c.ref, c.value); err != nil {
			return "", fmt.Errorf("write %s: %w", c.ref, err)
		}
	}
	if err := w.f.SetCellFormula(name, "A6", strings.TrimPrefix(formulaText, "=")); err != nil {
		return "", fmt.Errorf("insert formula: %w", err)
	}

	bold, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create style: %w", err)
	}
	for _, ref := range []string{"A1", "A3"} {
		if err := w.f.SetCellStyle(name, ref, ref, bold); err != nil {
			return "", fmt.Errorf("style %s: %w", ref, err)
		}
	}

	if err := w.f.Save(); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return name, nil
}
