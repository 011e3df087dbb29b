package export

import (
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/BarCut/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	contentWidth = pageWidth - marginLeft - marginRight

	barLabelWidth = 22.0 // "12 x" column left of each diagram
	barHeight     = 8.0
	barSpacing    = 13.0
)

// pdfWriter carries the document and the UTF-8 to cp1252 translator the
// core fonts need.
type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// ExportPDF generates a PDF cutting plan: a summary page followed by one
// section per category with its pattern table and bar diagrams.
func ExportPDF(path string, run model.RunResult) error {
	if err := checkRun(run); err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.AddPage()
	w.renderSummaryPage(run)

	for _, r := range run.Results() {
		pdf.AddPage()
		w.renderCategory(r)
	}

	return pdf.OutputFileAndClose(path)
}

// renderSummaryPage draws the overall statistics and the per-category table.
func (w *pdfWriter) renderSummaryPage(run model.RunResult) {
	pdf := w.pdf

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, 10, "Cutting Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	s := run.Summary

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	type item struct{ label, value string }
	summaryItems := []item{
		{"Date", created.Format("02.01.2006 15:04")},
		{"Stock Bar Length", fmt.Sprintf("%.2f", run.Settings.BinCapacity)},
		{"Bars Used (theoretical)", fmt.Sprintf("%d (%d)", s.TotalBars, s.TheoreticalBars)},
		{"Total Demand", fmt.Sprintf("%.2f", s.TotalDemand)},
		{"Total Waste", fmt.Sprintf("%.2f (%.2f%%)", s.TotalWaste, s.WastePercentage)},
		{"Categories Solved", fmt.Sprintf("%d / %d", s.Solved, s.Categories)},
	}
	if run.Settings.SparePercent > 0 || run.Settings.PricePerBar > 0 {
		est := model.CalculatePurchaseEstimate(s, run.Settings.SparePercent, run.Settings.PricePerBar)
		summaryItems = append(summaryItems, item{"Bars To Order", fmt.Sprintf("%d (+%d spare)", est.BarsToOrder, est.SpareBars)})
		if est.PricePerBar > 0 {
			summaryItems = append(summaryItems, item{"Estimated Cost", fmt.Sprintf("%.2f", est.EstimatedCost)})
		}
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Category Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{35, 25, 35, 30, 35, 25, 30, 50}
	headers := []string{"Category", "Bars", "Waste", "Waste %", "Demand", "Phase", "Efficiency", "Status"}
	y = w.tableHeader(y, colWidths, headers)

	pdf.SetFont("Helvetica", "", 9)
	for i, o := range run.Outcomes {
		if y+6 > pageHeight-marginBottom {
			pdf.AddPage()
			y = w.tableHeader(marginTop, colWidths, headers)
			pdf.SetFont("Helvetica", "", 9)
		}
		row := []string{w.tr(o.Key), "-", "-", "-", "-", "-", "-", string(o.Status)}
		if o.Solved() {
			r := o.Result
			row = []string{
				w.tr(r.Category),
				fmt.Sprintf("%d", r.TotalBars),
				fmt.Sprintf("%.2f", r.TotalWaste),
				fmt.Sprintf("%.2f%%", r.WastePercentage),
				fmt.Sprintf("%.2f", r.TotalDemand),
				fmt.Sprintf("%d", r.PhaseUsed),
				fmt.Sprintf("%.2f", r.UsedEfficiency),
				string(o.Status),
			}
		}
		w.tableRow(y, colWidths, row, i%2 == 0)
		y += 6
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(contentWidth, 4, "Waste % = total waste / (bars x bar length) x 100", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (w *pdfWriter) tableHeader(y float64, colWidths []float64, headers []string) float64 {
	pdf := w.pdf
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	return y + 6
}

func (w *pdfWriter) tableRow(y float64, colWidths []float64, cells []string, shaded bool) {
	pdf := w.pdf
	if shaded {
		pdf.SetFillColor(245, 245, 245)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	xPos := marginLeft
	for j, cell := range cells {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
		xPos += colWidths[j]
	}
}

// renderCategory draws the header, pattern table and diagrams of one
// category, continuing on new pages as needed.
func (w *pdfWriter) renderCategory(r model.OptimizationResult) {
	pdf := w.pdf
	y := w.categoryHeader(r, false)
	patterns := sortedPatterns(r)

	colWidths := []float64{15, 20, 147, 30, 25, 30}
	headers := []string{"#", "Bars", "Cuts", "Used", "Waste", "Utilization"}
	y = w.tableHeader(y, colWidths, headers)
	pdf.SetFont("Helvetica", "", 9)
	for i, p := range patterns {
		if y+6 > pageHeight-marginBottom {
			pdf.AddPage()
			y = w.tableHeader(w.categoryHeader(r, true), colWidths, headers)
			pdf.SetFont("Helvetica", "", 9)
		}
		w.tableRow(y, colWidths, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", p.Count),
			p.Describe(r.Lengths),
			fmt.Sprintf("%.2f", p.TotalLength),
			fmt.Sprintf("%.2f", p.Waste),
			fmt.Sprintf("%.1f%%", p.Efficiency(r.BinCapacity)),
		}, i%2 == 0)
		y += 6
	}

	y += 6
	for i, p := range patterns {
		if y+barSpacing > pageHeight-marginBottom-8 {
			pdf.AddPage()
			y = w.categoryHeader(r, true)
		}
		w.drawBar(r, p, i+1, y)
		y += barSpacing
	}

	w.drawCutLegend(r, math.Min(y+2, pageHeight-marginBottom-5))
}

// categoryHeader prints the title and stats line and returns the next y.
func (w *pdfWriter) categoryHeader(r model.OptimizationResult, cont bool) float64 {
	pdf := w.pdf
	title := fmt.Sprintf("Category %s (bar length %.2f)", r.Category, r.BinCapacity)
	if cont {
		title += " (cont.)"
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, headerHeight, w.tr(title), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Bars: %d (theoretical %d) | Demand: %.2f | Waste: %.2f (%.2f%%) | Phase %d | Efficiency floor %.2f",
		r.TotalBars, r.TheoreticalMin, r.TotalDemand, r.TotalWaste, r.WastePercentage, r.PhaseUsed, r.UsedEfficiency)
	pdf.CellFormat(contentWidth, 5, stats, "", 0, "L", false, 0, "")
	return marginTop + headerHeight + 10
}

// drawBar renders one pattern as a stock bar: coloured segments per cut
// type followed by the hatched waste.
func (w *pdfWriter) drawBar(r model.OptimizationResult, p model.UsedPattern, num int, y float64) {
	pdf := w.pdf
	drawWidth := contentWidth - barLabelWidth
	scale := drawWidth / r.BinCapacity
	x0 := marginLeft + barLabelWidth

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(barLabelWidth-2, barHeight, fmt.Sprintf("#%d  %d x", num, p.Count), "", 0, "R", false, 0, "")

	x := x0
	for _, seg := range segments(p, r.Lengths) {
		col := cutColor(seg.typeIdx)
		sw := seg.length * scale
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(x, y, sw, barHeight, "FD")

		label := fmt.Sprintf("%.2f", seg.length)
		pdf.SetFont("Helvetica", "", labelFontSize(sw))
		if lw := pdf.GetStringWidth(label); lw < sw-1 {
			pdf.SetXY(x+(sw-lw)/2, y+(barHeight-4)/2)
			pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
		}
		x += sw
	}

	if ww := x0 + drawWidth - x; ww > 0.2 {
		pdf.SetFillColor(255, 220, 220)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Rect(x, y, ww, barHeight, "FD")
		drawHatchPattern(pdf, x, y, ww, barHeight)
	}

	// Waste figure under the bar end.
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(120, 0, 0)
	waste := fmt.Sprintf("waste %.2f", p.Waste)
	lw := pdf.GetStringWidth(waste)
	pdf.SetXY(x0+drawWidth-lw, y+barHeight+0.5)
	pdf.CellFormat(lw, 3, waste, "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark waste.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 2.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// drawCutLegend maps colours to cut lengths.
func (w *pdfWriter) drawCutLegend(r model.OptimizationResult, startY float64) {
	pdf := w.pdf
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Cut lengths:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, l := range r.Lengths {
		if i >= len(r.Counts) || r.Counts[i] == 0 {
			continue
		}
		col := cutColor(i)
		label := fmt.Sprintf("%.2f (x%d)", l, r.Counts[i])
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// labelFontSize returns a font size that fits a segment of width w.
func labelFontSize(w float64) float64 {
	switch {
	case w > 40:
		return 8
	case w > 20:
		return 7
	default:
		return 6
	}
}
