package model

import (
	"math"
	"sort"
)

// Offcut is a reusable remnant: the waste end of a bar long enough to be
// kept for a later job.
type Offcut struct {
	Category string  `json:"category"`
	Length   float64 `json:"length"`
	Quantity int     `json:"quantity"` // One remnant per bar cut with the source pattern
}

// TotalLength returns the combined length of all remnants of this size.
func (o Offcut) TotalLength() float64 {
	return o.Length * float64(o.Quantity)
}

// DetectOffcuts lists the remnants of a result that are at least minLength
// long, merged by length and sorted longest first. A minLength of 0 keeps
// every non-zero remnant.
func DetectOffcuts(r OptimizationResult, minLength float64) []Offcut {
	byLength := make(map[float64]int)
	for _, p := range r.Patterns {
		if p.Waste <= LengthEpsilon || p.Waste < minLength {
			continue
		}
		// Round away float noise so 0.9999999 and 1.0 merge.
		key := math.Round(p.Waste*1e6) / 1e6
		byLength[key] += p.Count
	}

	offcuts := make([]Offcut, 0, len(byLength))
	for length, qty := range byLength {
		offcuts = append(offcuts, Offcut{Category: r.Category, Length: length, Quantity: qty})
	}
	sort.Slice(offcuts, func(i, j int) bool {
		return offcuts[i].Length > offcuts[j].Length
	})
	return offcuts
}

// DetectAllOffcuts finds remnants across every solved category of a run.
func DetectAllOffcuts(run RunResult, minLength float64) []Offcut {
	var all []Offcut
	for _, r := range run.Results() {
		all = append(all, DetectOffcuts(r, minLength)...)
	}
	return all
}

// TotalOffcutLength returns the combined length of all remnants.
func TotalOffcutLength(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.TotalLength()
	}
	return total
}
