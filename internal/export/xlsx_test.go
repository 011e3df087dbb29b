package export

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportXLSX_Sheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")

	if err := ExportXLSX(path, buildTestRun()); err != nil {
		t.Fatalf("ExportXLSX returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	want := []string{"Summary", "D12", "D16"}
	if got := f.GetSheetList(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected sheets %v, got %v", want, got)
	}

	cells := map[string]string{
		"A6": "12",
		"C6": "2",
		"A8": "20",
		"B8": "cut_too_long",
		"A9": "TOTAL",
		"C9": "5",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue("Summary", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("Summary!%s: expected %q, got %q", cell, want, got)
		}
	}

	desc, _ := f.GetCellValue("D12", "C7")
	if desc != "2 x 5.00 + 1 x 2.00" {
		t.Errorf("expected pattern description in D12!C7, got %q", desc)
	}
	remnant, _ := f.GetCellValue("D16", "A10")
	if remnant != "5" {
		t.Errorf("expected remnant length 5 in D16!A10, got %q", remnant)
	}
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{summarySheet: true}

	if got := sheetName("12", used); got != "D12" {
		t.Errorf("expected D12, got %q", got)
	}
	if got := sheetName("1/2", used); got != "D1_2" {
		t.Errorf("expected D1_2, got %q", got)
	}
	if got := sheetName("1:2", used); got != "D1_2~2" {
		t.Errorf("expected D1_2~2 for a clashing name, got %q", got)
	}
	long := sheetName("abcdefghijklmnopqrstuvwxyz0123456789", used)
	if len([]rune(long)) > 31 {
		t.Errorf("sheet name too long: %q", long)
	}
}
