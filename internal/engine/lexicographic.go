package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/piwi3910/BarCut/internal/model"
)

// state is a step of the per-category solve.
type state int

const (
	stateSearching state = iota // Trying ladder[idx]
	statePhase1Solved
	stateDone // Phase 1 already reached the theoretical minimum
	statePhase2Solved
	statePhase1Fallback // Phase 2 failed, Phase 1 result kept
	stateInfeasible
	stateCutTooLong
)

var stateNames = map[state]string{
	stateSearching:      "searching",
	statePhase1Solved:   "phase1_solved",
	stateDone:           "done",
	statePhase2Solved:   "phase2_solved",
	statePhase1Fallback: "phase1_fallback",
	stateInfeasible:     "infeasible",
	stateCutTooLong:     "cut_too_long",
}

func (s state) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s state) terminal() bool {
	switch s {
	case stateDone, statePhase2Solved, statePhase1Fallback, stateInfeasible, stateCutTooLong:
		return true
	}
	return false
}

// categoryRun is the working data of one category solve.
type categoryRun struct {
	cat            model.CutCategory
	lengths        []float64
	counts         []int
	theoreticalMin int
	ladder         []float64

	state      state
	idx        int
	efficiency float64
	poolSize   int
	pool       model.PatternPool
	phase1     phaseSolution
	phase2     phaseSolution
	tooLong    *CutTooLongError
	log        *logrus.Entry
}

// efficiencyLadder lists the efficiency floors to try, strictest first.
// A job that fits one bar is never filtered; otherwise the floor drops by
// 0.05 down to 0 when adaptive, or stays at minEfficiency when not.
func efficiencyLadder(minEfficiency float64, theoreticalMin int, adaptive bool) []float64 {
	if theoreticalMin <= 1 {
		return []float64{0}
	}
	if !adaptive {
		return []float64{minEfficiency}
	}
	ladder := []float64{minEfficiency}
	for h := int(math.Round(minEfficiency*100)) - 5; h > 0; h -= 5 {
		ladder = append(ladder, float64(h)/100)
	}
	if minEfficiency > 0 {
		ladder = append(ladder, 0)
	}
	return ladder
}

// validateCategory rejects demand the controller cannot reason about.
func validateCategory(cat model.CutCategory) error {
	if cat.BinCapacity <= 0 || math.IsInf(cat.BinCapacity, 0) || math.IsNaN(cat.BinCapacity) {
		return fmt.Errorf("%w: bar length must be positive, got %v", ErrInvalidInput, cat.BinCapacity)
	}
	if len(cat.Requirements) == 0 {
		return fmt.Errorf("%w: category %q has no cut lengths", ErrInvalidInput, cat.Key)
	}
	positive := false
	for _, r := range cat.Requirements {
		if r.Length <= 0 || math.IsInf(r.Length, 0) || math.IsNaN(r.Length) {
			return fmt.Errorf("%w: cut length must be positive, got %v", ErrInvalidInput, r.Length)
		}
		if r.Count < 0 {
			return fmt.Errorf("%w: count for length %.2f is negative", ErrInvalidInput, r.Length)
		}
		if r.Count > 0 {
			positive = true
		}
	}
	if !positive {
		return fmt.Errorf("%w: category %q has no pieces to cut", ErrInvalidInput, cat.Key)
	}
	return nil
}

// OptimizeCategory solves one category lexicographically: fewest bars
// first, then least waste at that bar count. It returns ErrInvalidInput,
// a *CutTooLongError or ErrInfeasible for categories it cannot solve, and
// ctx.Err() when cancelled.
func (o *Optimizer) OptimizeCategory(ctx context.Context, cat model.CutCategory) (model.OptimizationResult, error) {
	if err := validateCategory(cat); err != nil {
		return model.OptimizationResult{}, err
	}

	r := &categoryRun{
		cat:            cat,
		lengths:        cat.Lengths(),
		counts:         cat.Counts(),
		theoreticalMin: cat.TheoreticalMin(),
		log:            o.logger().WithField("category", cat.Key),
	}
	r.ladder = efficiencyLadder(o.Settings.MinEfficiency, r.theoreticalMin, o.Settings.Adaptive)
	r.state = o.start(r)

	for !r.state.terminal() {
		if err := ctx.Err(); err != nil {
			return model.OptimizationResult{}, err
		}
		next := o.step(ctx, r)
		r.log.WithFields(logrus.Fields{"from": r.state, "to": next}).Debug("State transition")
		r.state = next
	}

	switch r.state {
	case stateCutTooLong:
		return model.OptimizationResult{}, r.tooLong
	case stateInfeasible:
		if err := ctx.Err(); err != nil {
			return model.OptimizationResult{}, err
		}
		return model.OptimizationResult{}, fmt.Errorf("%w: no solution for category %q at any efficiency down to %.2f",
			ErrInfeasible, cat.Key, r.ladder[len(r.ladder)-1])
	case statePhase2Solved:
		return r.result(r.phase2, 2), nil
	default:
		return r.result(r.phase1, 1), nil
	}
}

// start checks lengths against the bar before any search begins.
func (o *Optimizer) start(r *categoryRun) state {
	for _, req := range r.cat.Requirements {
		if req.Count > 0 && req.Length > r.cat.BinCapacity+model.LengthEpsilon {
			r.tooLong = &CutTooLongError{Length: req.Length, Capacity: r.cat.BinCapacity}
			return stateCutTooLong
		}
	}
	r.log.WithFields(logrus.Fields{
		"theoretical_min": r.theoreticalMin,
		"ladder":          r.ladder,
	}).Debug("Starting category")
	return stateSearching
}

// step performs the work of the current state and returns the next one.
func (o *Optimizer) step(ctx context.Context, r *categoryRun) state {
	switch r.state {
	case stateSearching:
		return o.search(ctx, r)
	case statePhase1Solved:
		return o.improve(ctx, r)
	}
	return r.state
}

// search tries the current rung of the ladder.
func (o *Optimizer) search(ctx context.Context, r *categoryRun) state {
	if r.idx >= len(r.ladder) {
		return stateInfeasible
	}
	floor := r.ladder[r.idx]
	log := r.log.WithField("min_efficiency", floor)

	pool := GeneratePatterns(r.lengths, r.counts, r.cat.BinCapacity, floor, o.Settings.MaxPatterns,
		PatternOptions{SearchDepth: o.Settings.SearchDepth})
	if len(pool) == 0 {
		log.Debug("Empty pattern pool, relaxing efficiency")
		r.idx++
		return stateSearching
	}

	sol, err := solveMinBars(ctx, o.solver(), pool, r.counts, r.cat.BinCapacity, millis(o.Settings.Phase1TimeLimitMs))
	if err != nil {
		log.WithError(err).WithField("patterns", len(pool)).Debug("Phase 1 found no solution, relaxing efficiency")
		r.idx++
		return stateSearching
	}

	r.pool = pool
	r.poolSize = len(pool)
	r.efficiency = floor
	r.phase1 = sol
	log.WithFields(logrus.Fields{"bars": sol.Bars, "waste": sol.Waste, "patterns": len(pool)}).Debug("Phase 1 solved")
	return statePhase1Solved
}

// improve runs Phase 2 unless Phase 1 already hit the theoretical minimum.
func (o *Optimizer) improve(ctx context.Context, r *categoryRun) state {
	if r.phase1.Bars == r.theoreticalMin {
		return stateDone
	}
	sol, err := solveMinWaste(ctx, o.solver(), r.pool, r.counts, r.cat.BinCapacity, r.phase1.Bars, r.phase1.Values,
		millis(o.Settings.Phase2TimeLimitMs))
	if err != nil {
		r.log.WithError(err).Warn("Phase 2 failed, keeping Phase 1 result")
		return statePhase1Fallback
	}
	r.phase2 = sol
	r.log.WithFields(logrus.Fields{"waste": sol.Waste, "phase1_waste": r.phase1.Waste}).Debug("Phase 2 solved")
	return statePhase2Solved
}

// result assembles the immutable result from the chosen phase.
func (r *categoryRun) result(final phaseSolution, phase int) model.OptimizationResult {
	capacity := float64(final.Bars) * r.cat.BinCapacity
	res := model.OptimizationResult{
		Category:       r.cat.Key,
		BinCapacity:    r.cat.BinCapacity,
		Lengths:        r.lengths,
		Counts:         r.counts,
		TheoreticalMin: r.theoreticalMin,
		TotalDemand:    r.cat.TotalDemand(),
		TotalBars:      final.Bars,
		TotalWaste:     final.Waste,
		TotalCapacity:  capacity,
		PhaseUsed:      phase,
		UsedEfficiency: r.efficiency,
		Phase1Waste:    r.phase1.Waste,
		PoolSize:       r.poolSize,
		Patterns:       final.Patterns,
	}
	if capacity > 0 {
		res.WastePercentage = final.Waste / capacity * 100.0
	}
	return res
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
