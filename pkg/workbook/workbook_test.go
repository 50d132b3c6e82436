package workbook

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFixture(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func openFixture(t *testing.T, rows [][]any) *Workbook {
	t.Helper()
	w, err := Open(writeFixture(t, rows))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.xlsx")); err == nil {
		t.Fatal("expected an error for a missing workbook")
	}
}

func TestSheetNames(t *testing.T) {
	w := openFixture(t, [][]any{{"Name"}})
	got := w.SheetNames()
	if len(got) != 1 || got[0] != "Sheet1" {
		t.Fatalf("SheetNames() = %v", got)
	}
}

func TestHeadersSkipsGaps(t *testing.T) {
	w := openFixture(t, [][]any{{"Date", "", "Region"}})

	headers, err := w.Headers("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 2 || headers[0] != "Date" || headers[1] != "Region" {
		t.Fatalf("Headers() = %v", headers)
	}
}

func TestHeaderColumnsKeepTruePositions(t *testing.T) {
	w := openFixture(t, [][]any{{"Date", "", "Region"}})

	refs, err := w.HeaderColumns("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2: %v", len(refs), refs)
	}
	if got := refs["Date"]; got.Column != "A" || got.Range != "A:A" {
		t.Errorf("Date ref = %+v", got)
	}
	// The gap in column B must not shift Region to B.
	if got := refs["Region"]; got.Column != "C" || got.Range != "C:C" {
		t.Errorf("Region ref = %+v", got)
	}
}

func TestDateColumns(t *testing.T) {
	w := openFixture(t, [][]any{
		{"Date", "Amount", "Region", "Mixed"},
		{"2024-01-15", 60000.5, "North", "2024-01-01"},
		{"2024-02-01", 70000, "South", "2024-02-02"},
		{"2024-03-10", 81000, "East", "abc"},
		{"2024-04-05", 90001, "West", ""},
		{"15/05/2024", 99999, "North", ""},
	})

	dates, err := w.DateColumns("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 {
		t.Fatalf("DateColumns() = %v, want Date and Mixed", dates)
	}
	if dates["Date"] != "DATE" {
		t.Errorf("Date column not detected: %v", dates)
	}
	// Two of three non-empty samples clears the majority bar.
	if dates["Mixed"] != "DATE" {
		t.Errorf("Mixed column not detected: %v", dates)
	}
}

func TestDateColumnsSerials(t *testing.T) {
	w := openFixture(t, [][]any{
		{"Posted"},
		{45231},
		{45232},
		{45233},
	})

	dates, err := w.DateColumns("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if dates["Posted"] != "DATE" {
		t.Errorf("serial column not detected: %v", dates)
	}
}

func TestDateColumnsNoDataRows(t *testing.T) {
	w := openFixture(t, [][]any{{"Date"}})

	dates, err := w.DateColumns("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 0 {
		t.Fatalf("DateColumns() = %v, want empty", dates)
	}
}

func TestInsertFormulaSheet(t *testing.T) {
	path := writeFixture(t, [][]any{
		{"Amount"},
		{100},
		{200},
	})
	w, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	name, err := w.InsertFormulaSheet("=SUM(A:A)", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(name, "Formula_") {
		t.Fatalf("sheet name = %q", name)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for cell, want := range map[string]string{
		"A1": "Generated Formula",
		"A4": "Formula:",
		"A5": "=SUM(A:A)",
		"B3": "'Sheet1'",
	} {
		got, err := f.GetCellValue(name, cell)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
	gotFormula, err := f.GetCellFormula(name, "A6")
	if err != nil {
		t.Fatal(err)
	}
	if gotFormula != "SUM(A:A)" {
		t.Errorf("A6 formula = %q, want SUM(A:A)", gotFormula)
	}
}
