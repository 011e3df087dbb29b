package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/BarCut/internal/model"
)

const summarySheet = "Summary"

// ExportXLSX writes run as a workbook: a summary sheet with one row per
// category followed by one sheet per solved category listing its patterns.
func ExportXLSX(path string, run model.RunResult) error {
	if err := checkRun(run); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummarySheet(f, run, bold); err != nil {
		return err
	}

	used := map[string]bool{summarySheet: true}
	for _, r := range run.Results() {
		name := sheetName(r.Category, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
		if err := writeCategorySheet(f, name, r, run.Settings.MinOffcutLength, bold); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, run model.RunResult, header int) error {
	rows := [][]interface{}{
		{"Cutting Plan Summary"},
		{"Run", run.ID},
		{"Stock bar length", run.Settings.BinCapacity},
		{},
		{"Category", "Status", "Bars", "Theoretical", "Waste", "Waste %", "Demand", "Phase", "Efficiency"},
	}
	headerRow := len(rows)
	for _, o := range run.Outcomes {
		if !o.Solved() {
			rows = append(rows, []interface{}{o.Key, string(o.Status)})
			continue
		}
		r := o.Result
		rows = append(rows, []interface{}{
			r.Category, string(o.Status), r.TotalBars, r.TheoreticalMin,
			round2(r.TotalWaste), round2(r.WastePercentage), round2(r.TotalDemand), r.PhaseUsed, r.UsedEfficiency,
		})
	}
	s := run.Summary
	rows = append(rows, []interface{}{
		"TOTAL", fmt.Sprintf("%d/%d solved", s.Solved, s.Categories), s.TotalBars, s.TheoreticalBars,
		round2(s.TotalWaste), round2(s.WastePercentage), round2(s.TotalDemand),
	})

	if err := setRows(f, summarySheet, rows); err != nil {
		return err
	}
	if err := styleRow(f, summarySheet, headerRow, 9, header); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "I", 14)
}

func writeCategorySheet(f *excelize.File, sheet string, r model.OptimizationResult, minOffcut float64, header int) error {
	rows := [][]interface{}{
		{"Category", r.Category},
		{"Bar length", r.BinCapacity},
		{"Bars (theoretical/used)", fmt.Sprintf("%d/%d", r.TheoreticalMin, r.TotalBars)},
		{"Waste", round2(r.TotalWaste), fmt.Sprintf("%.2f%%", r.WastePercentage)},
		{},
		{"#", "Bars", "Cuts", "Used", "Waste", "Utilization %"},
	}
	headerRow := len(rows)
	for i, p := range sortedPatterns(r) {
		rows = append(rows, []interface{}{
			i + 1, p.Count, p.Describe(r.Lengths), round2(p.TotalLength), round2(p.Waste), round2(p.Efficiency(r.BinCapacity)),
		})
	}
	if offcuts := model.DetectOffcuts(r, minOffcut); len(offcuts) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Remnant length", "Quantity"})
		for _, o := range offcuts {
			rows = append(rows, []interface{}{round2(o.Length), o.Quantity})
		}
	}

	if err := setRows(f, sheet, rows); err != nil {
		return err
	}
	if err := styleRow(f, sheet, headerRow, 6, header); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "C", 40)
}

// setRows writes rows starting at A1.
func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

// sheetName derives a unique, valid worksheet name for a category key.
func sheetName(key string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, "D"+key)
	if len([]rune(name)) > 28 {
		name = string([]rune(name)[:28])
	}
	base := name
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s~%d", base, n)
	}
	used[name] = true
	return name
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
