package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// DefaultMaxNodes bounds the search tree when no time limit is set.
	DefaultMaxNodes = 200000

	integralityTol = 1e-6
	feasibilityTol = 1e-6
	simplexTol     = 1e-10
)

var errUnbounded = errors.New("relaxation is unbounded")

// BranchAndBound solves integer programs by depth-first branch and bound
// over LP relaxations computed with gonum's simplex.
type BranchAndBound struct {
	MaxNodes int           // 0 = DefaultMaxNodes
	Log      *logrus.Entry // nil = standard logger
}

// NewBranchAndBound returns a solver with default limits.
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{MaxNodes: DefaultMaxNodes}
}

// node holds the variable bounds of one subproblem.
type node struct {
	lower []float64
	upper []float64
}

// Solve implements Solver. The search stops at timeLimit, at MaxNodes, or
// when ctx is cancelled, returning the best solution found so far. A node
// whose relaxation fails for any reason other than infeasibility downgrades
// the status to Feasible or NoSolution.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model, timeLimit time.Duration) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	if timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}

	log := b.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	maxNodes := b.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	n := len(m.Variables)
	integralObjective := true
	for _, c := range m.Objective {
		if c != math.Trunc(c) {
			integralObjective = false
			break
		}
	}

	var (
		best     []float64
		bestObj  = math.Inf(1)
		nodes    int
		stopped  bool
		lost     bool // A relaxation failed, so the tree is not a proof
		hasBound bool
	)
	accept := func(x []float64) {
		if !m.Satisfied(x, feasibilityTol) {
			return
		}
		if obj := m.Evaluate(x); obj < bestObj-feasibilityTol {
			best = append([]float64(nil), x...)
			bestObj = obj
		}
	}
	if m.Hint != nil {
		accept(roundAll(m.Hint))
	}

	// prune reports whether a relaxation bound cannot beat the incumbent.
	prune := func(bound float64) bool {
		if best == nil {
			return false
		}
		if integralObjective {
			return math.Ceil(bound-integralityTol) >= bestObj-integralityTol
		}
		return bound >= bestObj-feasibilityTol
	}

	root := node{lower: make([]float64, n), upper: make([]float64, n)}
	for j, v := range m.Variables {
		root.upper[j] = v.Upper
	}
	stack := []node{root}

	for len(stack) > 0 {
		if ctx.Err() != nil || nodes >= maxNodes {
			stopped = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		x, obj, err := relax(m, nd.lower, nd.upper)
		if err != nil {
			if errors.Is(err, errUnbounded) {
				return Solution{}, err
			}
			if !errors.Is(err, lp.ErrInfeasible) {
				lost = true
				log.WithError(err).Debug("Relaxation failed, node dropped")
			}
			continue
		}
		hasBound = true
		if prune(obj) {
			continue
		}

		j := mostFractional(x)
		if j < 0 {
			accept(roundAll(x))
			continue
		}

		// Rounding every value up stays feasible for covering rows and
		// gives an early incumbent to prune against.
		accept(ceilAll(x, nd.upper))

		v := x[j]
		down := node{lower: nd.lower, upper: clone(nd.upper)}
		down.upper[j] = math.Floor(v)
		up := node{lower: clone(nd.lower), upper: nd.upper}
		up.lower[j] = math.Ceil(v)
		stack = append(stack, down, up)
	}

	sol := Solution{Nodes: nodes}
	switch {
	case best != nil && !stopped && !lost:
		sol.Status = Optimal
	case best != nil:
		sol.Status = Feasible
	case stopped || lost:
		sol.Status = NoSolution
	default:
		sol.Status = Infeasible
	}
	if best != nil {
		sol.Values = best
		sol.Objective = bestObj
	}

	log.WithFields(logrus.Fields{
		"nodes":     nodes,
		"status":    sol.Status.String(),
		"objective": sol.Objective,
		"relaxed":   hasBound,
		"lost":      lost,
	}).Debug("Branch and bound finished")

	return sol, nil
}

// relax solves the LP relaxation of m with lower ≤ x ≤ upper. Variables are
// shifted to y = x - lower so only finite upper bounds need extra rows, and
// every inequality gets its own slack column to reach gonum's equality form.
func relax(m *Model, lower, upper []float64) ([]float64, float64, error) {
	n := len(m.Variables)
	for j := 0; j < n; j++ {
		if upper[j] < lower[j] {
			return nil, 0, lp.ErrInfeasible
		}
	}

	// A variable that appears in no row can sit at its lower bound unless
	// the objective rewards increasing it.
	inRow := make([]bool, n)
	for _, c := range m.Constraints {
		for j, a := range c.Coeffs {
			if a != 0 {
				inRow[j] = true
			}
		}
	}
	cols := make([]int, 0, n)
	for j := 0; j < n; j++ {
		if inRow[j] || !math.IsInf(upper[j], 1) {
			cols = append(cols, j)
			continue
		}
		if m.Objective[j] < 0 {
			return nil, 0, errUnbounded
		}
	}

	type row struct {
		coeffs []float64 // Over cols
		slack  float64   // 0, +1 or -1
		rhs    float64
	}
	var rows []row
	for _, c := range m.Constraints {
		r := row{coeffs: make([]float64, len(cols)), rhs: c.RHS}
		nonzero := false
		for k, j := range cols {
			r.coeffs[k] = c.Coeffs[j]
			if c.Coeffs[j] != 0 {
				nonzero = true
			}
		}
		for j, a := range c.Coeffs {
			r.rhs -= a * lower[j]
		}
		switch c.Sense {
		case GreaterEq:
			r.slack = -1
		case LessEq:
			r.slack = 1
		case Equal:
			if !nonzero {
				if math.Abs(r.rhs) > feasibilityTol {
					return nil, 0, lp.ErrInfeasible
				}
				continue
			}
		}
		rows = append(rows, r)
	}
	for k, j := range cols {
		if math.IsInf(upper[j], 1) {
			continue
		}
		r := row{coeffs: make([]float64, len(cols)), slack: 1, rhs: upper[j] - lower[j]}
		r.coeffs[k] = 1
		rows = append(rows, r)
	}

	x := append([]float64(nil), lower...)
	if len(rows) == 0 {
		return x, m.Evaluate(x), nil
	}

	slacks := 0
	for _, r := range rows {
		if r.slack != 0 {
			slacks++
		}
	}
	width := len(cols) + slacks
	if len(rows) > width {
		// More equalities than columns: gonum needs full row rank.
		return nil, 0, lp.ErrSingular
	}
	data := make([]float64, len(rows)*width)
	b := make([]float64, len(rows))
	s := len(cols)
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for k, a := range r.coeffs {
			data[i*width+k] = sign * a
		}
		if r.slack != 0 {
			data[i*width+s] = sign * r.slack
			s++
		}
		b[i] = sign * r.rhs
	}
	c := make([]float64, width)
	for k, j := range cols {
		c[k] = m.Objective[j]
	}

	_, y, err := lp.Simplex(c, mat.NewDense(len(rows), width, data), b, simplexTol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrUnbounded) {
			return nil, 0, errUnbounded
		}
		return nil, 0, err
	}
	for k, j := range cols {
		x[j] += y[k]
	}
	return x, m.Evaluate(x), nil
}

// mostFractional returns the index of the value furthest from an integer,
// or -1 when all values are integral.
func mostFractional(x []float64) int {
	best, bestDist := -1, integralityTol
	for j, v := range x {
		f := v - math.Floor(v)
		dist := math.Min(f, 1-f)
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

func roundAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = math.Round(v)
	}
	return out
}

func ceilAll(x, upper []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = math.Min(math.Ceil(v-integralityTol), upper[j])
	}
	return out
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
