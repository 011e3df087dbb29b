package importer

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Diameter,Length,Count\n12,3.5,2\n16,4.0,1\n")
	got := DetectCSVDelimiter(data)
	if got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Çap;Boy;Adet\n12;3,5;2\n16;4,0;1\n")
	got := DetectCSVDelimiter(data)
	if got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Diameter\tLength\tCount\n12\t3.5\t2\n16\t4.0\t1\n")
	got := DetectCSVDelimiter(data)
	if got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("Diameter|Length|Count\n12|3.5|2\n16|4.0|1\n")
	got := DetectCSVDelimiter(data)
	if got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_EnglishHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Diameter", "Length", "Quantity"})

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Diameter != 0 || mapping.Length != 1 || mapping.Count != 2 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_TurkishHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Adet", "Çap (mm)", "Uzunluk (m)"})

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Count != 0 || mapping.Diameter != 1 || mapping.Length != 2 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_PartialAndUnderscore(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"BAR_DIA", "cut_length_m", "PCS"})

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Diameter != 0 || mapping.Length != 1 || mapping.Count != 2 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_DiameterIsNotLength(t *testing.T) {
	// "diameter" contains "meter"; it must still only be the diameter column.
	mapping, _ := DetectColumns([]string{"Diameter", "Count"})

	if mapping.Diameter != 0 {
		t.Errorf("expected Diameter at 0, got %d", mapping.Diameter)
	}
	if mapping.Length != -1 {
		t.Errorf("expected no length column, got %d", mapping.Length)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"12", "3.5", "2"})

	if isHeader {
		t.Error("expected no header to be detected")
	}
	if mapping.Diameter != 0 || mapping.Length != 1 || mapping.Count != 2 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{"3.5": 3.5, "3,5": 3.5, " 12 ": 12, "0,25": 0.25}
	for in, want := range tests {
		got, err := ParseNumber(in)
		if err != nil {
			t.Errorf("ParseNumber(%q): unexpected error %v", in, err)
		}
		if got != want {
			t.Errorf("ParseNumber(%q) = %f, want %f", in, got, want)
		}
	}
	for _, bad := range []string{"", "abc", "NaN", "Inf"} {
		if _, err := ParseNumber(bad); err == nil {
			t.Errorf("ParseNumber(%q): expected error", bad)
		}
	}
}

func TestDiameterKey(t *testing.T) {
	if DiameterKey(12) != "12" || DiameterKey(12.7) != "12" {
		t.Errorf("expected fractions to be dropped")
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Diameter,Length,Count\n12,3.5,2\n12,2.0,4\n16,6.0,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Demands) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(result.Demands))
	}
	d12 := result.Demands["12"]
	if !reflect.DeepEqual(d12.Lengths, []float64{3.5, 2.0}) || !reflect.DeepEqual(d12.Counts, []int{2, 4}) {
		t.Errorf("unexpected category 12: %+v", d12)
	}
	if result.Rows != 3 {
		t.Errorf("expected 3 rows, got %d", result.Rows)
	}
	if result.Pieces() != 7 {
		t.Errorf("expected 7 pieces, got %d", result.Pieces())
	}
}

func TestImportCSVFromReader_MergesDuplicates(t *testing.T) {
	data := "Çap;Boy;Adet\n12;3,5;2\n12;3,5;3\n12;4;1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	d12 := result.Demands["12"]
	if !reflect.DeepEqual(d12.Lengths, []float64{3.5, 4}) || !reflect.DeepEqual(d12.Counts, []int{5, 1}) {
		t.Errorf("expected merged counts, got %+v", d12)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Merged 1 duplicate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected merge warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_MissingCountColumn(t *testing.T) {
	data := "Diameter,Length\n12,3.5\n12,3.5\n16,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !reflect.DeepEqual(result.Demands["12"].Counts, []int{2}) {
		t.Errorf("expected one piece per row, got %+v", result.Demands["12"])
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "No count column") {
		t.Errorf("expected count warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "12,3.5,2\n16,4,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Rows != 2 {
		t.Errorf("expected 2 rows, got %d", result.Rows)
	}
	if !reflect.DeepEqual(result.Demands["16"].Lengths, []float64{4}) {
		t.Errorf("unexpected category 16: %+v", result.Demands["16"])
	}
}

func TestImportCSVFromReader_UnrecognizedHeader(t *testing.T) {
	data := "A,B,C\n12,3.5,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Rows != 1 {
		t.Errorf("expected 1 row, got %d", result.Rows)
	}
}

func TestImportCSVFromReader_MissingRequiredColumn(t *testing.T) {
	data := "Diameter,Count\n12,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Length") {
		t.Errorf("expected missing Length error, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_InvalidRowsReported(t *testing.T) {
	data := "Diameter,Length,Count\n12,abc,2\n12,-1,2\n12,3,-2\n,3,1\n12,3,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 4 {
		t.Errorf("expected 4 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	if result.Rows != 1 {
		t.Errorf("expected the valid row to be kept, got %d rows", result.Rows)
	}
	if !strings.HasPrefix(result.Errors[0], "Line 2") {
		t.Errorf("expected line number in error, got %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_FractionalCountRejected(t *testing.T) {
	data := "Diameter;Length;Count\n12;5;2.7\n12;4;3,0\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';')

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
	if !strings.Contains(result.Errors[0], "whole number") || !strings.HasPrefix(result.Errors[0], "Line 2") {
		t.Errorf("unexpected error %q", result.Errors[0])
	}
	if !reflect.DeepEqual(result.Demands["12"].Counts, []int{3}) {
		t.Errorf("expected only the whole count to be kept, got %+v", result.Demands["12"])
	}
}

func TestImportCSVFromReader_ZeroCountIgnored(t *testing.T) {
	data := "Diameter,Length,Count\n12,3,0\n12,4,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !reflect.DeepEqual(result.Demands["12"].Lengths, []float64{4}) {
		t.Errorf("expected zero-count row to be dropped, got %+v", result.Demands["12"])
	}
}

func TestImportCSVFromReader_TitleLinesSkipped(t *testing.T) {
	data := "Project X\n\nDiameter,Length,Count\n12,3,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Rows != 1 {
		t.Errorf("expected 1 row, got %d", result.Rows)
	}
}

func TestImportCSVFromReader_OnlyHeaders(t *testing.T) {
	data := "Diameter,Length,Count\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) == 0 {
		t.Error("expected an error for a file without data")
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',')
	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

func TestImportCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := os.WriteFile(path, []byte("Çap;Uzunluk;Adet\n8;1,25;10\n10;2,5;4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result := ImportFile(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !reflect.DeepEqual(result.Demands["8"].Lengths, []float64{1.25}) {
		t.Errorf("unexpected category 8: %+v", result.Demands["8"])
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "semicolon") {
		t.Errorf("expected semicolon warning, got %v", result.Warnings)
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/bars.csv")
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

func TestImportFile_UnsupportedExtension(t *testing.T) {
	result := ImportFile("bars.pdf")
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Unsupported") {
		t.Errorf("expected unsupported type error, got %v", result.Errors)
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bars.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			if cell == nil {
				continue
			}
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Rebar schedule"},
		{"Çap", "Boy", "Adet"},
		{12, 3.5, 2},
		{12, 3.5, 1},
		{16, 6, 4},
	})

	result := ImportFile(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if !reflect.DeepEqual(result.Demands["12"].Counts, []int{3}) {
		t.Errorf("expected merged count 3, got %+v", result.Demands["12"])
	}
	if !reflect.DeepEqual(result.Demands["16"].Lengths, []float64{6}) {
		t.Errorf("unexpected category 16: %+v", result.Demands["16"])
	}
}

func TestImportExcel_WithoutHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{12, 3.5, 2},
		{16, 4, 1},
	})

	result := ImportExcel(path)
	if result.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d (errors: %v)", result.Rows, result.Errors)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel("/nonexistent/bars.xlsx")
	if len(result.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}
