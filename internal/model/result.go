package model

import (
	"fmt"
	"strings"
	"time"
)

// UsedPattern is a pattern chosen by the solver together with how many bars
// are cut that way. It carries everything needed to print a cutting instruction.
type UsedPattern struct {
	Combo       []int   `json:"combo"`
	Count       int     `json:"count"`
	TotalLength float64 `json:"total_length"`
	Waste       float64 `json:"waste"`
}

// Describe renders the pattern as "2 x 5.00 + 1 x 2.00".
func (u UsedPattern) Describe(lengths []float64) string {
	parts := make([]string, 0, len(u.Combo))
	for i, n := range u.Combo {
		if n > 0 && i < len(lengths) {
			parts = append(parts, fmt.Sprintf("%d x %.2f", n, lengths[i]))
		}
	}
	return strings.Join(parts, " + ")
}

// Efficiency returns the utilization of one bar as a percentage.
func (u UsedPattern) Efficiency(capacity float64) float64 {
	if capacity == 0 {
		return 0
	}
	return u.TotalLength / capacity * 100.0
}

// OptimizationResult is the immutable outcome of solving one category.
type OptimizationResult struct {
	Category        string        `json:"category"`
	BinCapacity     float64       `json:"bin_capacity"`
	Lengths         []float64     `json:"lengths"`
	Counts          []int         `json:"counts"`
	TheoreticalMin  int           `json:"theoretical_min"`
	TotalDemand     float64       `json:"total_demand"`
	TotalBars       int           `json:"total_bars"`
	TotalWaste      float64       `json:"total_waste"`
	WastePercentage float64       `json:"waste_percentage"` // Of material purchased, not of demand
	TotalCapacity   float64       `json:"total_capacity"`   // TotalBars x BinCapacity
	PhaseUsed       int           `json:"phase_used"`       // 1 = bar minimization only, 2 = waste minimized at fixed bars
	UsedEfficiency  float64       `json:"used_efficiency"`  // Efficiency floor that produced a feasible pool
	Phase1Waste     float64       `json:"phase1_waste"`
	PoolSize        int           `json:"pool_size"`
	Patterns        []UsedPattern `json:"patterns"`
}

// Produced returns how many pieces of cut type i the plan yields.
func (r OptimizationResult) Produced(i int) int {
	total := 0
	for _, p := range r.Patterns {
		if i < len(p.Combo) {
			total += p.Combo[i] * p.Count
		}
	}
	return total
}

// WasteImprovement is how much Phase 2 reduced waste relative to Phase 1.
func (r OptimizationResult) WasteImprovement() float64 {
	if r.PhaseUsed != 2 {
		return 0
	}
	return r.Phase1Waste - r.TotalWaste
}

// CategoryStatus classifies how a category's optimization ended.
type CategoryStatus string

const (
	StatusSolved       CategoryStatus = "solved"
	StatusInfeasible   CategoryStatus = "infeasible"    // Ladder exhausted without a solution
	StatusCutTooLong   CategoryStatus = "cut_too_long"  // A requested length exceeds the bar
	StatusInvalidInput CategoryStatus = "invalid_input" // Malformed demand
)

// CategoryOutcome is one entry of a run. Failed categories keep their entry
// with Result == nil so nothing is silently dropped.
type CategoryOutcome struct {
	Key     string              `json:"key"`
	Status  CategoryStatus      `json:"status"`
	Message string              `json:"message,omitempty"`
	Result  *OptimizationResult `json:"result,omitempty"`
}

// Solved reports whether the outcome carries a result.
func (o CategoryOutcome) Solved() bool {
	return o.Status == StatusSolved && o.Result != nil
}

// Summary aggregates every solved category of a run.
type Summary struct {
	Categories      int     `json:"categories"`
	Solved          int     `json:"solved"`
	Failed          int     `json:"failed"`
	TotalBars       int     `json:"total_bars"`
	TheoreticalBars int     `json:"theoretical_bars"`
	TotalWaste      float64 `json:"total_waste"`
	TotalDemand     float64 `json:"total_demand"`
	TotalCapacity   float64 `json:"total_capacity"`
	WastePercentage float64 `json:"waste_percentage"`
}

// Summarize computes the run totals. Failed categories are counted but
// contribute to none of the sums.
func Summarize(outcomes []CategoryOutcome) Summary {
	s := Summary{Categories: len(outcomes)}
	for _, o := range outcomes {
		if !o.Solved() {
			s.Failed++
			continue
		}
		r := o.Result
		s.Solved++
		s.TotalBars += r.TotalBars
		s.TheoreticalBars += r.TheoreticalMin
		s.TotalWaste += r.TotalWaste
		s.TotalDemand += r.TotalDemand
		s.TotalCapacity += r.TotalCapacity
	}
	if s.TotalCapacity > 0 {
		s.WastePercentage = s.TotalWaste / s.TotalCapacity * 100.0
	}
	return s
}

// RunResult holds the full solution of one orchestration run.
type RunResult struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Settings  Settings          `json:"settings"`
	Outcomes  []CategoryOutcome `json:"outcomes"` // Sorted by category key
	Summary   Summary           `json:"summary"`
}

// Outcome returns the outcome for key.
func (r RunResult) Outcome(key string) (CategoryOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Key == key {
			return o, true
		}
	}
	return CategoryOutcome{}, false
}

// Results returns the solved category results in run order.
func (r RunResult) Results() []OptimizationResult {
	var out []OptimizationResult
	for _, o := range r.Outcomes {
		if o.Solved() {
			out = append(out, *o.Result)
		}
	}
	return out
}

// HasSolution reports whether at least one category was solved.
func (r RunResult) HasSolution() bool {
	return r.Summary.Solved > 0
}

// Project ties everything together for save/load.
type Project struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Demands  Demands    `json:"demands"`
	Settings Settings   `json:"settings"`
	Result   *RunResult `json:"result,omitempty"`
}

func NewProject(name string) Project {
	if name == "" {
		name = "Untitled"
	}
	return Project{
		Name:     name,
		Demands:  Demands{},
		Settings: DefaultSettings(),
	}
}
