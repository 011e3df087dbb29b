package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/BarCut/internal/model"
)

// Drawing layout in bar-length units.
const (
	dxfRowPitch   = 1.0  // Vertical distance between bars
	dxfTickHeight = 0.3  // Cut marks
	dxfTextHeight = 0.15 // Annotation text
	dxfGroupGap   = 2.0  // Extra space between categories
)

// ExportDXF draws every used pattern as a bar with its cut marks and
// annotations. Each category gets its own layer named after its key.
func ExportDXF(path string, run model.RunResult) error {
	if err := checkRun(run); err != nil {
		return err
	}

	d := dxf.NewDrawing()
	y := 0.0
	for i, r := range run.Results() {
		layer := "D" + r.Category
		if _, err := d.AddLayer(layer, color.ColorNumber(i%6+1), dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", layer, err)
		}
		if _, err := d.Text(fmt.Sprintf("Category %s: %d bars, waste %.2f", r.Category, r.TotalBars, r.TotalWaste), 0, y, 0, dxfTextHeight*2); err != nil {
			return err
		}
		y -= dxfRowPitch

		for _, p := range sortedPatterns(r) {
			if err := drawDXFBar(d, r, p, y); err != nil {
				return fmt.Errorf("category %s: %w", r.Category, err)
			}
			y -= dxfRowPitch
		}
		y -= dxfGroupGap
	}

	return d.SaveAs(path)
}

// drawDXFBar draws one pattern at height y: the cut pieces as lines along
// the bar axis, a tick at every cut, and the waste end left open.
func drawDXFBar(d *drawing.Drawing, r model.OptimizationResult, p model.UsedPattern, y float64) error {
	x := 0.0
	for _, seg := range segments(p, r.Lengths) {
		if _, err := d.Line(x, y, 0, x+seg.length, y, 0); err != nil {
			return err
		}
		if _, err := d.Line(x+seg.length, y-dxfTickHeight/2, 0, x+seg.length, y+dxfTickHeight/2, 0); err != nil {
			return err
		}
		if _, err := d.Text(fmt.Sprintf("%.2f", seg.length), x+seg.length/2, y+dxfTextHeight/2, 0, dxfTextHeight); err != nil {
			return err
		}
		x += seg.length
	}
	_, err := d.Text(fmt.Sprintf("%d x, waste %.2f", p.Count, p.Waste), r.BinCapacity+dxfTextHeight, y, 0, dxfTextHeight)
	return err
}
