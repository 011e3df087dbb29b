package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/solver"
)

// errNoSolution is returned by a phase when the solver produced nothing
// usable: infeasible, timed out, failed, or returned an assignment that no
// longer satisfies the model once rounded.
var errNoSolution = errors.New("no solution")

// roundingTol is how far a rounded assignment may miss a constraint.
const roundingTol = 1e-6

// phaseSolution is what one solver phase yields.
type phaseSolution struct {
	Bars     int
	Waste    float64
	Patterns []model.UsedPattern
	Values   []float64 // Integral count per pool pattern
}

// demandModel builds the variables and demand rows shared by both phases.
// Each variable starts with a zero objective coefficient.
func demandModel(pool model.PatternPool, counts []int) *solver.Model {
	m := &solver.Model{}
	for p := range pool {
		m.AddVariable(fmt.Sprintf("bars_p%d", p), 0)
	}
	for t, demand := range counts {
		if demand <= 0 {
			continue
		}
		coeffs := make([]float64, len(pool))
		for p, pat := range pool {
			coeffs[p] = float64(pat.Combo[t])
		}
		m.AddConstraint(fmt.Sprintf("demand_t%d", t), coeffs, solver.GreaterEq, float64(demand))
	}
	return m
}

// solveMinBars is Phase 1: cover demand with as few bars as possible.
func solveMinBars(ctx context.Context, s solver.Solver, pool model.PatternPool, counts []int, capacity float64, limit time.Duration) (phaseSolution, error) {
	m := demandModel(pool, counts)
	for p := range pool {
		m.Objective[p] = 1
	}
	sol, err := s.Solve(ctx, m, limit)
	if err != nil {
		return phaseSolution{}, fmt.Errorf("%w: %v", errNoSolution, err)
	}
	return extract(m, sol, pool, capacity)
}

// solveMinWaste is Phase 2: cover demand with exactly fixedBars bars and
// the least waste. hint, when set, is a known feasible assignment (the
// Phase 1 counts).
func solveMinWaste(ctx context.Context, s solver.Solver, pool model.PatternPool, counts []int, capacity float64, fixedBars int, hint []float64, limit time.Duration) (phaseSolution, error) {
	m := demandModel(pool, counts)
	ones := make([]float64, len(pool))
	for p, pat := range pool {
		m.Objective[p] = pat.Waste
		ones[p] = 1
	}
	m.AddConstraint("fixed_bars", ones, solver.Equal, float64(fixedBars))
	m.Hint = hint

	sol, err := s.Solve(ctx, m, limit)
	if err != nil {
		return phaseSolution{}, fmt.Errorf("%w: %v", errNoSolution, err)
	}
	return extract(m, sol, pool, capacity)
}

// extract turns solver values into bar counts. Values are rounded only
// after the status confirms a solution, and the rounded assignment must
// still satisfy every constraint of m.
func extract(m *solver.Model, sol solver.Solution, pool model.PatternPool, capacity float64) (phaseSolution, error) {
	if !sol.Status.HasSolution() {
		return phaseSolution{}, fmt.Errorf("%w: solver status %s", errNoSolution, sol.Status)
	}
	if len(sol.Values) != len(pool) {
		return phaseSolution{}, fmt.Errorf("%w: %d values for %d patterns", errNoSolution, len(sol.Values), len(pool))
	}

	values := make([]float64, len(pool))
	for p, v := range sol.Values {
		values[p] = math.Round(v)
	}
	if !m.Satisfied(values, roundingTol) {
		return phaseSolution{}, fmt.Errorf("%w: rounded assignment violates the model", errNoSolution)
	}

	out := phaseSolution{Values: values}
	var used float64
	for p, v := range values {
		count := int(v)
		if count <= 0 {
			continue
		}
		pat := pool[p]
		out.Bars += count
		used += pat.TotalLength * float64(count)
		out.Patterns = append(out.Patterns, model.UsedPattern{
			Combo:       append([]int(nil), pat.Combo...),
			Count:       count,
			TotalLength: pat.TotalLength,
			Waste:       pat.Waste,
		})
	}
	out.Waste = float64(out.Bars)*capacity - used
	return out, nil
}
