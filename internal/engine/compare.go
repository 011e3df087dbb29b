package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/solver"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the run and the headline numbers for one scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Run          model.RunResult
	BarsUsed     int
	WastePercent float64
	FailedCount  int
}

// CompareScenarios optimizes the same demand once per scenario and returns
// the results in scenario order. s is the solver backend (nil = branch and
// bound).
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, demands model.Demands, s solver.Solver) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		opt := New(scenario.Settings)
		opt.Solver = s
		run, err := opt.OptimizeAll(ctx, demands)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		results = append(results, ComparisonResult{
			Scenario:     scenario,
			Run:          run,
			BarsUsed:     run.Summary.TotalBars,
			WastePercent: run.Summary.WastePercentage,
			FailedCount:  run.Summary.Failed,
		})
	}

	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(baseSettings model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: baseSettings,
		},
	}

	// Scenario: Lower starting efficiency floor
	if baseSettings.MinEfficiency > 0.10 {
		lower := baseSettings
		lower.MinEfficiency = float64(int(baseSettings.MinEfficiency*100+0.5)-10) / 100
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Efficiency %.2f", lower.MinEfficiency),
			Settings: lower,
		})
	}

	// Scenario: Double the pattern pool
	larger := baseSettings
	larger.MaxPatterns = baseSettings.MaxPatterns * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Pool %d", larger.MaxPatterns),
		Settings: larger,
	})

	// Scenario: Combine one more cut type per pattern
	if baseSettings.SearchDepth < 5 {
		deeper := baseSettings
		deeper.SearchDepth = max(baseSettings.SearchDepth, 1) + 1
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Search depth %d", deeper.SearchDepth),
			Settings: deeper,
		})
	}

	// Scenario: Fixed efficiency floor
	if baseSettings.Adaptive {
		fixed := baseSettings
		fixed.Adaptive = false
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "No Adaptive Ladder",
			Settings: fixed,
		})
	}

	return scenarios
}
