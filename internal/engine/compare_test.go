package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/BarCut/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	base := model.DefaultSettings()
	scenarios := BuildDefaultScenarios(base)

	require.Len(t, scenarios, 5)
	assert.Equal(t, "Current Settings", scenarios[0].Name)
	assert.Equal(t, base, scenarios[0].Settings)
	assert.Equal(t, 0.75, scenarios[1].Settings.MinEfficiency)
	assert.Equal(t, 1000, scenarios[2].Settings.MaxPatterns)
	assert.Equal(t, 4, scenarios[3].Settings.SearchDepth)
	assert.False(t, scenarios[4].Settings.Adaptive)
}

func TestBuildDefaultScenarios_SkipsNoOps(t *testing.T) {
	base := model.DefaultSettings()
	base.MinEfficiency = 0.05
	base.SearchDepth = 5
	base.Adaptive = false

	scenarios := BuildDefaultScenarios(base)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "Current Settings", scenarios[0].Name)
	assert.Equal(t, "Pool 1000", scenarios[1].Name)
}

func TestCompareScenarios(t *testing.T) {
	demands := model.Demands{
		"12": {Lengths: []float64{7}, Counts: []int{3}},
	}
	base := model.DefaultSettings()
	scenarios := []ComparisonScenario{
		{Name: "Adaptive", Settings: base},
		{Name: "Fixed", Settings: func() model.Settings { s := base; s.Adaptive = false; return s }()},
	}

	results, err := CompareScenarios(context.Background(), scenarios, demands, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Adaptive", results[0].Scenario.Name)
	assert.Equal(t, 3, results[0].BarsUsed)
	assert.Equal(t, 0, results[0].FailedCount)

	assert.Equal(t, "Fixed", results[1].Scenario.Name)
	assert.Equal(t, 0, results[1].BarsUsed)
	assert.Equal(t, 1, results[1].FailedCount)
}

func TestCompareScenarios_PropagatesInvalidDemand(t *testing.T) {
	_, err := CompareScenarios(context.Background(), BuildDefaultScenarios(model.DefaultSettings()), model.Demands{}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
