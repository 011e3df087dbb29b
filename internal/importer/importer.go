// Package importer reads bar demand from CSV, Excel, YAML/JSON and DXF
// files. It supports automatic delimiter detection, flexible column
// mapping with Turkish and English headers, and decimal commas.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/BarCut/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Demands     model.Demands
	BinCapacity float64 // Default bar length declared by the file, 0 when absent
	Rows        int     // Data rows accepted
	Errors      []string
	Warnings    []string
}

// Pieces returns the number of pieces imported.
func (r ImportResult) Pieces() int {
	return r.Demands.TotalPieces()
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Diameter int
	Length   int
	Count    int
}

// Column roles in matching priority. A header cell takes the first role
// whose alias it contains, so "diameter" never doubles as a length column.
var columnRoles = []struct {
	role    string
	aliases []string
}{
	{"diameter", []string{"çap", "cap", "çaplar", "caplar", "diameter", "diameters", "dia", "kalınlık", "kalinlik", "ø"}},
	{"length", []string{"uzunluk", "uzunluklar", "boy", "boylar", "length", "lengths", "len", "mesafe", "metre", "meter"}},
	{"count", []string{"adet", "adetler", "miktar", "miktarlar", "sayı", "sayılar", "sayi", "sayilar", "count", "counts", "quantity", "quantities", "qty", "number", "pcs"}},
}

// ImportFile imports demand from path, choosing the reader by extension.
func ImportFile(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ImportCSV(path)
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	case ".yaml", ".yml", ".json":
		return ImportDocument(path)
	case ".dxf":
		return ImportDXF(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type %q", filepath.Ext(path))}}
	}
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// normalizeHeader lowercases a header cell and drops spaces and underscores.
func normalizeHeader(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "_", "")
}

// DetectColumns examines a header row and returns a ColumnMapping. A cell
// matches a role when it contains one of the role's aliases, so
// "Çap (mm)" and "Length_m" are recognized. Returns a positional mapping
// (diameter, length, count) and false when no cell matches.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Diameter: -1, Length: -1, Count: -1}

	isHeader := false
	for i, cell := range row {
		normalized := normalizeHeader(cell)
		if normalized == "" {
			continue
		}
	roles:
		for _, r := range columnRoles {
			for _, alias := range r.aliases {
				if !strings.Contains(normalized, alias) {
					continue
				}
				isHeader = true
				switch r.role {
				case "diameter":
					if mapping.Diameter == -1 {
						mapping.Diameter = i
					}
				case "length":
					if mapping.Length == -1 {
						mapping.Length = i
					}
				case "count":
					if mapping.Count == -1 {
						mapping.Count = i
					}
				}
				break roles
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Diameter: 0, Length: 1, Count: 2}, false
	}
	return mapping, true
}

// ParseNumber parses a decimal that may use a comma as the separator.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

// DiameterKey turns a diameter value into a category key. Fractions are
// dropped: 12.0 and 12.7 both become "12".
func DiameterKey(d float64) string {
	return strconv.Itoa(int(d))
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsedRow is one accepted line of demand.
type parsedRow struct {
	key    string
	length float64
	count  int
}

// parseRow extracts one demand line using the given column mapping.
// Returns the row, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (parsedRow, string, string) {
	diaStr := getCell(row, mapping.Diameter)
	if diaStr == "" {
		return parsedRow{}, fmt.Sprintf("%s: Missing diameter value", rowLabel), ""
	}
	dia, err := ParseNumber(diaStr)
	if err != nil {
		return parsedRow{}, fmt.Sprintf("%s: Invalid diameter '%s'", rowLabel, diaStr), ""
	}

	lengthStr := getCell(row, mapping.Length)
	if lengthStr == "" {
		return parsedRow{}, fmt.Sprintf("%s: Missing length value", rowLabel), ""
	}
	length, err := ParseNumber(lengthStr)
	if err != nil {
		return parsedRow{}, fmt.Sprintf("%s: Invalid length '%s'", rowLabel, lengthStr), ""
	}

	count := 1
	if mapping.Count >= 0 {
		countStr := getCell(row, mapping.Count)
		if countStr == "" {
			return parsedRow{}, fmt.Sprintf("%s: Missing count value", rowLabel), ""
		}
		c, err := ParseNumber(countStr)
		if err != nil {
			return parsedRow{}, fmt.Sprintf("%s: Invalid count '%s'", rowLabel, countStr), ""
		}
		if c != math.Trunc(c) {
			return parsedRow{}, fmt.Sprintf("%s: Count must be a whole number, got '%s'", rowLabel, countStr), ""
		}
		count = int(c)
	}

	if dia < 1 || length <= 0 || count < 0 {
		return parsedRow{}, fmt.Sprintf("%s: Diameter and length must be positive, count must not be negative", rowLabel), ""
	}

	var warning string
	if count == 0 {
		warning = fmt.Sprintf("%s: Count is 0, row ignored", rowLabel)
	}
	return parsedRow{key: DiameterKey(dia), length: length, count: count}, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// nonEmptyCells counts the cells of row with content.
func nonEmptyCells(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

// ImportCSV imports demand from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports demand from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports demand from an Excel (.xlsx, .xlsm) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for CSV and Excel data. Title
// lines above the table are skipped: the header is the first row with at
// least two non-empty cells. Rows with the same diameter and length are
// merged by summing their counts.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Demands:  model.Demands{},
		Warnings: initialWarnings,
	}

	first := -1
	for i, row := range rows {
		if nonEmptyCells(row) >= 2 {
			first = i
			break
		}
	}
	if first < 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[first])
	startRow := first
	if hasHeader {
		startRow = first + 1
		missing := []string{}
		if mapping.Diameter == -1 {
			missing = append(missing, "Diameter")
		}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
		if mapping.Count == -1 {
			result.Warnings = append(result.Warnings, "No count column found, assuming 1 piece per row")
		}
	} else {
		if len(rows[first]) < 3 {
			mapping.Count = -1
			result.Warnings = append(result.Warnings, "No count column found, assuming 1 piece per row")
		}
		if _, err := ParseNumber(getCell(rows[first], mapping.Length)); err != nil {
			// Unrecognized header: skip it but keep positional mapping
			startRow = first + 1
			result.Warnings = append(result.Warnings, "Unrecognized header row, using column order diameter, length, count")
		}
	}

	merged := 0
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		pr, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if pr.count == 0 {
			continue
		}

		if hasLength(result.Demands[pr.key], pr.length) {
			merged++
		}
		result.Demands.Add(pr.key, pr.length, pr.count)
		result.Rows++
	}

	if merged > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Merged %d duplicate diameter/length rows", merged))
	}
	if result.Rows == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}

func hasLength(cd model.CategoryDemand, length float64) bool {
	for _, l := range cd.Lengths {
		if l == length {
			return true
		}
	}
	return false
}
