// Package export writes optimization runs as cutting instructions: plain
// text, PDF, QR-coded bar labels, XLSX workbooks and DXF diagrams.
package export

import (
	"errors"
	"sort"

	"github.com/piwi3910/BarCut/internal/model"
)

// ErrNoSolution is returned when a run has no solved category to export.
var ErrNoSolution = errors.New("no solved category to export")

func checkRun(run model.RunResult) error {
	if len(run.Results()) == 0 {
		return ErrNoSolution
	}
	return nil
}

// sortedPatterns returns the used patterns of r, least waste first.
func sortedPatterns(r model.OptimizationResult) []model.UsedPattern {
	out := append([]model.UsedPattern(nil), r.Patterns...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Waste < out[j].Waste
	})
	return out
}

// segment is one piece cut from a bar, in cutting order.
type segment struct {
	typeIdx int
	length  float64
}

// segments expands a pattern into its pieces, longest first.
func segments(p model.UsedPattern, lengths []float64) []segment {
	var out []segment
	for i, n := range p.Combo {
		if i >= len(lengths) {
			break
		}
		for k := 0; k < n; k++ {
			out = append(out, segment{typeIdx: i, length: lengths[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].length > out[j].length
	})
	return out
}

// rgb is a fill color for a cut type.
type rgb struct {
	R, G, B int
}

// cutColors is indexed by cut type.
var cutColors = []rgb{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

func cutColor(typeIdx int) rgb {
	return cutColors[typeIdx%len(cutColors)]
}
