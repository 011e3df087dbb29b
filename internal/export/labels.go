package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/BarCut/internal/model"
)

// LabelInfo holds the data encoded into each bar label's QR code.
type LabelInfo struct {
	RunID     string    `json:"run,omitempty"`
	Category  string    `json:"category"`
	Bar       int       `json:"bar"` // 1-based within the category
	Of        int       `json:"of"`
	BarLength float64   `json:"bar_length"`
	Pattern   string    `json:"pattern"`
	Cuts      []float64 `json:"cuts"`
	Waste     float64   `json:"waste"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF with one QR-coded label per stock bar. Each
// label names the category, the bar number and the cuts to make; the QR
// code carries the same data as JSON.
func ExportLabels(path string, run model.RunResult) error {
	if err := checkRun(run); err != nil {
		return err
	}
	labels := CollectLabelInfos(run)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, tr, x, y, label); err != nil {
			return fmt.Errorf("failed to render label %s/%d: %w", label.Category, label.Bar, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.Category, info.Bar)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, tr("Ø"+info.Category), textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("Bar %d of %d (%.2f)", info.Bar, info.Of, info.BarLength), "", 1, "L", false, 0, "")

	// Cuts
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, truncate(pdf, info.Pattern, textW), "", 1, "L", false, 0, "")

	pdf.SetTextColor(150, 0, 0)
	pdf.SetXY(textX, y+labelPadding+12.5)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Waste %.2f", info.Waste), "", 0, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with "..." until it fits width w in the current font.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos lists one label per cut bar across the solved
// categories of run, in pattern order (least waste first).
func CollectLabelInfos(run model.RunResult) []LabelInfo {
	var labels []LabelInfo
	for _, r := range run.Results() {
		bar := 0
		for _, p := range sortedPatterns(r) {
			cuts := make([]float64, 0)
			for _, seg := range segments(p, r.Lengths) {
				cuts = append(cuts, seg.length)
			}
			desc := p.Describe(r.Lengths)
			for k := 0; k < p.Count; k++ {
				bar++
				labels = append(labels, LabelInfo{
					RunID:     run.ID,
					Category:  r.Category,
					Bar:       bar,
					Of:        r.TotalBars,
					BarLength: r.BinCapacity,
					Pattern:   desc,
					Cuts:      cuts,
					Waste:     p.Waste,
				})
			}
		}
	}
	return labels
}
