// Package solver defines the integer-programming capability the optimizer
// needs and a pure-Go branch-and-bound backend for it.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidModel is returned when a model's dimensions or values are inconsistent.
var ErrInvalidModel = errors.New("invalid model")

// Sense is the relation of a linear constraint to its right-hand side.
type Sense int

const (
	GreaterEq Sense = iota
	LessEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case GreaterEq:
		return ">="
	case LessEq:
		return "<="
	case Equal:
		return "=="
	}
	return fmt.Sprintf("Sense(%d)", int(s))
}

// Status is the outcome of a solve.
type Status int

const (
	NoSolution Status = iota // Stopped (time or node limit) before finding any solution
	Optimal
	Feasible   // Stopped early with a solution that may not be optimal
	Infeasible // Proven that no integer solution exists
)

func (s Status) String() string {
	switch s {
	case NoSolution:
		return "no_solution"
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// HasSolution reports whether Values carries a usable assignment.
func (s Status) HasSolution() bool {
	return s == Optimal || s == Feasible
}

// Variable is a non-negative integer decision variable.
type Variable struct {
	Name  string
	Upper float64 // math.Inf(1) when unbounded
}

// Constraint is Σ Coeffs[j]·x[j] (Sense) RHS.
type Constraint struct {
	Name   string
	Coeffs []float64 // One entry per variable
	Sense  Sense
	RHS    float64
}

// Model is a pure integer program: minimize Objective·x subject to the
// constraints, x integral and 0 ≤ x ≤ Upper.
type Model struct {
	Variables   []Variable
	Constraints []Constraint
	Objective   []float64

	// Hint is an optional known solution. A backend may use it as its first
	// incumbent; an infeasible hint is ignored.
	Hint []float64
}

// AddVariable appends an unbounded variable and returns its index.
func (m *Model) AddVariable(name string, cost float64) int {
	m.Variables = append(m.Variables, Variable{Name: name, Upper: math.Inf(1)})
	m.Objective = append(m.Objective, cost)
	return len(m.Variables) - 1
}

// AddConstraint appends a constraint. coeffs must have one entry per variable.
func (m *Model) AddConstraint(name string, coeffs []float64, sense Sense, rhs float64) {
	m.Constraints = append(m.Constraints, Constraint{Name: name, Coeffs: coeffs, Sense: sense, RHS: rhs})
}

// Validate checks dimensions and values.
func (m *Model) Validate() error {
	n := len(m.Variables)
	if n == 0 {
		return fmt.Errorf("%w: no variables", ErrInvalidModel)
	}
	if len(m.Objective) != n {
		return fmt.Errorf("%w: objective has %d coefficients for %d variables", ErrInvalidModel, len(m.Objective), n)
	}
	for j, v := range m.Variables {
		if math.IsNaN(v.Upper) || v.Upper < 0 {
			return fmt.Errorf("%w: variable %q has upper bound %v", ErrInvalidModel, v.Name, v.Upper)
		}
		if !finite(m.Objective[j]) {
			return fmt.Errorf("%w: objective coefficient %d is %v", ErrInvalidModel, j, m.Objective[j])
		}
	}
	for _, c := range m.Constraints {
		if len(c.Coeffs) != n {
			return fmt.Errorf("%w: constraint %q has %d coefficients for %d variables", ErrInvalidModel, c.Name, len(c.Coeffs), n)
		}
		if c.Sense < GreaterEq || c.Sense > Equal {
			return fmt.Errorf("%w: constraint %q has unknown sense %d", ErrInvalidModel, c.Name, int(c.Sense))
		}
		if !finite(c.RHS) {
			return fmt.Errorf("%w: constraint %q has rhs %v", ErrInvalidModel, c.Name, c.RHS)
		}
		for _, a := range c.Coeffs {
			if !finite(a) {
				return fmt.Errorf("%w: constraint %q has coefficient %v", ErrInvalidModel, c.Name, a)
			}
		}
	}
	if m.Hint != nil && len(m.Hint) != n {
		return fmt.Errorf("%w: hint has %d values for %d variables", ErrInvalidModel, len(m.Hint), n)
	}
	return nil
}

// Satisfied reports whether x meets every bound and constraint within tol.
// Integrality is not checked.
func (m *Model) Satisfied(x []float64, tol float64) bool {
	if len(x) != len(m.Variables) {
		return false
	}
	for j, v := range m.Variables {
		if x[j] < -tol || x[j] > v.Upper+tol {
			return false
		}
	}
	for _, c := range m.Constraints {
		var lhs float64
		for j, a := range c.Coeffs {
			lhs += a * x[j]
		}
		switch c.Sense {
		case GreaterEq:
			if lhs < c.RHS-tol {
				return false
			}
		case LessEq:
			if lhs > c.RHS+tol {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}

// Evaluate returns Objective·x.
func (m *Model) Evaluate(x []float64) float64 {
	var total float64
	for j, c := range m.Objective {
		total += c * x[j]
	}
	return total
}

// Solution is what a Solver returns. Values is only meaningful when
// Status.HasSolution() is true.
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
	Nodes     int // Branch-and-bound nodes explored
}

// Solver is the integer-programming capability. Implementations must
// return within timeLimit (plus the time of one LP relaxation) and must
// not keep state between calls.
type Solver interface {
	Solve(ctx context.Context, m *Model, timeLimit time.Duration) (Solution, error)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
