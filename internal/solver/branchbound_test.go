package solver

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, m *Model) Solution {
	t.Helper()
	sol, err := NewBranchAndBound().Solve(context.Background(), m, 5*time.Second)
	require.NoError(t, err)
	return sol
}

func TestSolve_CoveringRoundsUp(t *testing.T) {
	m := &Model{}
	m.AddVariable("x0", 1)
	m.AddVariable("x1", 1)
	m.AddConstraint("a", []float64{2, 0}, GreaterEq, 3)
	m.AddConstraint("b", []float64{1, 1}, GreaterEq, 1)

	sol := solve(t, m)

	require.Equal(t, Optimal, sol.Status)
	assert.Equal(t, []float64{2, 0}, sol.Values)
	assert.InDelta(t, 2.0, sol.Objective, 1e-9)
}

func TestSolve_BranchesPastTheRelaxation(t *testing.T) {
	// LP optimum is x0 = 7/3 (cost 11.67); the best integer point is (1, 2).
	m := &Model{}
	m.AddVariable("x0", 5)
	m.AddVariable("x1", 4)
	m.AddConstraint("cover", []float64{3, 2}, GreaterEq, 7)

	sol := solve(t, m)

	require.Equal(t, Optimal, sol.Status)
	assert.Equal(t, []float64{1, 2}, sol.Values)
	assert.InDelta(t, 13.0, sol.Objective, 1e-9)
	assert.Greater(t, sol.Nodes, 1)
}

func TestSolve_EqualityConstraint(t *testing.T) {
	m := &Model{}
	m.AddVariable("x0", 2)
	m.AddVariable("x1", 1)
	m.AddConstraint("total", []float64{1, 1}, Equal, 3)
	m.AddConstraint("min_x0", []float64{1, 0}, GreaterEq, 1)

	sol := solve(t, m)

	require.Equal(t, Optimal, sol.Status)
	assert.Equal(t, []float64{1, 2}, sol.Values)
	assert.InDelta(t, 4.0, sol.Objective, 1e-9)
}

func TestSolve_FractionalObjective(t *testing.T) {
	m := &Model{}
	m.AddVariable("a", 0.5)
	m.AddVariable("b", 1.25)
	m.AddConstraint("cover", []float64{2, 3}, GreaterEq, 5)
	m.AddConstraint("bars", []float64{1, 1}, Equal, 2)

	sol := solve(t, m)

	require.Equal(t, Optimal, sol.Status)
	assert.Equal(t, []float64{1, 1}, sol.Values)
	assert.InDelta(t, 1.75, sol.Objective, 1e-9)
}

func TestSolve_UpperBound(t *testing.T) {
	m := &Model{}
	m.AddVariable("x0", -1)
	m.AddVariable("x1", 0)
	m.Variables[0].Upper = 3
	m.AddConstraint("any", []float64{1, 1}, GreaterEq, 0)

	sol := solve(t, m)

	require.Equal(t, Optimal, sol.Status)
	assert.Equal(t, 3.0, sol.Values[0])
	assert.InDelta(t, -3.0, sol.Objective, 1e-9)
}

func TestSolve_Infeasible(t *testing.T) {
	m := &Model{}
	m.AddVariable("x", 1)
	m.AddConstraint("low", []float64{1}, GreaterEq, 2)
	m.AddConstraint("high", []float64{1}, LessEq, 1)

	sol := solve(t, m)

	assert.Equal(t, Infeasible, sol.Status)
	assert.False(t, sol.Status.HasSolution())
	assert.Nil(t, sol.Values)
}

func TestSolve_IntegerInfeasible(t *testing.T) {
	// 2x == 3 has an LP solution but no integer one.
	m := &Model{}
	m.AddVariable("x", 1)
	m.AddConstraint("odd", []float64{2}, Equal, 3)

	sol := solve(t, m)

	assert.Equal(t, Infeasible, sol.Status)
}

func TestSolve_CancelledUsesHint(t *testing.T) {
	m := &Model{}
	m.AddVariable("x0", 1)
	m.AddVariable("x1", 1)
	m.AddConstraint("cover", []float64{1, 1}, GreaterEq, 2)
	m.Hint = []float64{2, 0}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := NewBranchAndBound().Solve(ctx, m, time.Second)
	require.NoError(t, err)
	assert.Equal(t, Feasible, sol.Status)
	assert.Equal(t, []float64{2, 0}, sol.Values)
	assert.Equal(t, 0, sol.Nodes)
}

func TestSolve_CancelledWithoutHint(t *testing.T) {
	m := &Model{}
	m.AddVariable("x", 1)
	m.AddConstraint("cover", []float64{1}, GreaterEq, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := NewBranchAndBound().Solve(ctx, m, time.Second)
	require.NoError(t, err)
	assert.Equal(t, NoSolution, sol.Status)
}

func TestSolve_InfeasibleHintIgnored(t *testing.T) {
	m := &Model{}
	m.AddVariable("x", 1)
	m.AddConstraint("cover", []float64{1}, GreaterEq, 2)
	m.Hint = []float64{1}

	sol := solve(t, m)

	require.Equal(t, Optimal, sol.Status)
	assert.Equal(t, []float64{2}, sol.Values)
}

// redundantEqualities has more equality rows than columns, which the LP
// relaxation cannot factor.
func redundantEqualities() *Model {
	m := &Model{}
	m.AddVariable("x", 1)
	m.AddConstraint("one", []float64{1}, Equal, 1)
	m.AddConstraint("two", []float64{2}, Equal, 2)
	return m
}

func TestSolve_FailedRelaxationIsNotInfeasible(t *testing.T) {
	sol := solve(t, redundantEqualities())

	assert.Equal(t, NoSolution, sol.Status)
	assert.Nil(t, sol.Values)
}

func TestSolve_FailedRelaxationKeepsHintAsFeasible(t *testing.T) {
	m := redundantEqualities()
	m.Hint = []float64{1}

	sol := solve(t, m)

	assert.Equal(t, Feasible, sol.Status)
	assert.Equal(t, []float64{1}, sol.Values)
	assert.Equal(t, 1, sol.Nodes)
}

func TestSolve_InvalidModel(t *testing.T) {
	m := &Model{}
	m.AddVariable("x", 1)
	m.AddConstraint("bad", []float64{1, 2}, GreaterEq, 1)

	_, err := NewBranchAndBound().Solve(context.Background(), m, time.Second)
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, (&Model{}).Validate(), ErrInvalidModel)

	m := &Model{}
	m.AddVariable("x", math.NaN())
	assert.ErrorIs(t, m.Validate(), ErrInvalidModel)

	m = &Model{}
	m.AddVariable("x", 1)
	m.Hint = []float64{1, 2}
	assert.ErrorIs(t, m.Validate(), ErrInvalidModel)

	m = &Model{}
	m.AddVariable("x", 1)
	m.AddConstraint("ok", []float64{1}, Equal, 1)
	assert.NoError(t, m.Validate())
}

func TestSatisfied(t *testing.T) {
	m := &Model{}
	m.AddVariable("x", 1)
	m.AddVariable("y", 1)
	m.AddConstraint("cover", []float64{1, 1}, GreaterEq, 2)
	m.AddConstraint("pin", []float64{1, 0}, Equal, 1)

	assert.True(t, m.Satisfied([]float64{1, 1}, 1e-9))
	assert.False(t, m.Satisfied([]float64{2, 0}, 1e-9))
	assert.False(t, m.Satisfied([]float64{1, -1}, 1e-9))
	assert.False(t, m.Satisfied([]float64{1}, 1e-9))
}

func TestMostFractional(t *testing.T) {
	assert.Equal(t, -1, mostFractional([]float64{1, 2, 3.0000000001}))
	assert.Equal(t, 1, mostFractional([]float64{1.1, 2.5, 3.8}))
}
