package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/solver"
)

// Optimizer runs the lexicographic bar optimization.
type Optimizer struct {
	Settings model.Settings

	// Solver is the integer-programming backend. nil = branch and bound.
	Solver solver.Solver

	// Log receives progress. nil = logrus standard logger.
	Log *logrus.Entry

	// OnCategoryDone, when set, is called once per category as soon as it
	// finishes. Calls are serialized.
	OnCategoryDone func(model.CategoryOutcome)

	notifyMu sync.Mutex
}

func New(settings model.Settings) *Optimizer {
	return &Optimizer{Settings: settings}
}

func (o *Optimizer) solver() solver.Solver {
	if o.Solver == nil {
		return &solver.BranchAndBound{MaxNodes: solver.DefaultMaxNodes, Log: o.logger()}
	}
	return o.Solver
}

func (o *Optimizer) logger() *logrus.Entry {
	if o.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return o.Log
}

// OptimizeAll solves every category of demands independently, in sorted
// key order, and aggregates the totals. A category that cannot be solved
// stays in the result with its status; it never stops the others. The
// only errors are an empty demand set and cancellation of ctx.
//
// With Settings.Workers > 1 categories are solved concurrently. Each
// category builds its own model and solver call, and writes only its own
// outcome slot.
func (o *Optimizer) OptimizeAll(ctx context.Context, demands model.Demands) (model.RunResult, error) {
	if len(demands) == 0 {
		return model.RunResult{}, fmt.Errorf("%w: no categories to optimize", ErrInvalidInput)
	}

	keys := demands.SortedKeys()
	outcomes := make([]model.CategoryOutcome, len(keys))
	workers := o.Settings.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, key := range keys {
		g.Go(func() error {
			outcome, err := o.optimizeKey(gctx, key, demands[key])
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			o.notify(outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.RunResult{}, err
	}

	run := model.RunResult{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Settings:  o.Settings,
		Outcomes:  outcomes,
		Summary:   model.Summarize(outcomes),
	}
	o.logger().WithFields(logrus.Fields{
		"categories": run.Summary.Categories,
		"failed":     run.Summary.Failed,
		"bars":       run.Summary.TotalBars,
		"waste_pct":  run.Summary.WastePercentage,
	}).Info("Optimization finished")
	return run, nil
}

// optimizeKey solves one category and classifies its outcome. Only
// cancellation is returned as an error.
func (o *Optimizer) optimizeKey(ctx context.Context, key string, cd model.CategoryDemand) (model.CategoryOutcome, error) {
	log := o.logger().WithField("category", key)
	outcome := model.CategoryOutcome{Key: key}

	if len(cd.Lengths) != len(cd.Counts) {
		err := fmt.Errorf("%w: %d lengths but %d counts", ErrInvalidInput, len(cd.Lengths), len(cd.Counts))
		outcome.Status = model.StatusInvalidInput
		outcome.Message = err.Error()
		log.Warn(outcome.Message)
		return outcome, nil
	}

	res, err := o.OptimizeCategory(ctx, cd.Category(key, o.Settings.BinCapacity))
	switch {
	case err == nil:
		outcome.Status = model.StatusSolved
		outcome.Result = &res
		log.WithFields(logrus.Fields{
			"bars":  res.TotalBars,
			"waste": res.TotalWaste,
			"phase": res.PhaseUsed,
		}).Info("Category solved")
		return outcome, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcome, err
	case errors.Is(err, ErrCutTooLong):
		outcome.Status = model.StatusCutTooLong
	case errors.Is(err, ErrInvalidInput):
		outcome.Status = model.StatusInvalidInput
	default:
		outcome.Status = model.StatusInfeasible
	}
	outcome.Message = err.Error()
	log.WithField("status", outcome.Status).Warn(outcome.Message)
	return outcome, nil
}

func (o *Optimizer) notify(outcome model.CategoryOutcome) {
	if o.OnCategoryDone == nil {
		return
	}
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	o.OnCategoryDone(outcome)
}
