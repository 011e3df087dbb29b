package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed demand: mismatched slices, an empty
	// category set, or non-positive lengths, counts or capacities.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCutTooLong marks a category where a required length exceeds the bar.
	ErrCutTooLong = errors.New("cut too long")

	// ErrInfeasible marks a category where no rung of the efficiency ladder
	// produced a solution.
	ErrInfeasible = errors.New("infeasible")
)

// CutTooLongError carries the offending length. It matches ErrCutTooLong
// with errors.Is.
type CutTooLongError struct {
	Length   float64
	Capacity float64
}

func (e *CutTooLongError) Error() string {
	return fmt.Sprintf("cut too long: %.2f exceeds bar length %.2f", e.Length, e.Capacity)
}

func (e *CutTooLongError) Is(target error) bool {
	return target == ErrCutTooLong
}
