package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Settings holds optimizer configuration.
type Settings struct {
	// Stock
	BinCapacity float64 `json:"bin_capacity" yaml:"bin_capacity" validate:"gt=0"` // Default stock bar length

	// Pattern pool
	MinEfficiency float64 `json:"min_efficiency" yaml:"min_efficiency" validate:"gte=0,lte=1"` // First rung of the efficiency ladder
	MaxPatterns   int     `json:"max_patterns" yaml:"max_patterns" validate:"gt=0"`            // Pool cap per category
	SearchDepth   int     `json:"search_depth" yaml:"search_depth" validate:"gte=1,lte=5"`     // Max distinct cut types combined per pattern
	Adaptive      bool    `json:"adaptive" yaml:"adaptive"`                                    // Relax the efficiency floor until a solution is found

	// Solver budgets
	Phase1TimeLimitMs int `json:"phase1_time_limit_ms" yaml:"phase1_time_limit_ms" validate:"gt=0"`
	Phase2TimeLimitMs int `json:"phase2_time_limit_ms" yaml:"phase2_time_limit_ms" validate:"gt=0"`

	// Orchestration
	Workers int `json:"workers" yaml:"workers" validate:"gte=1,lte=64"` // Categories solved concurrently

	// Reporting
	MinOffcutLength float64 `json:"min_offcut_length" yaml:"min_offcut_length" validate:"gte=0"` // Shortest remnant worth keeping
	SparePercent    float64 `json:"spare_percent" yaml:"spare_percent" validate:"gte=0,lte=100"` // Extra bars to order on top of the plan
	PricePerBar     float64 `json:"price_per_bar" yaml:"price_per_bar" validate:"gte=0"`         // 0 = no cost estimate
}

// DefaultSettings returns the settings used for a single-category job.
func DefaultSettings() Settings {
	return Settings{
		BinCapacity:       12.0,
		MinEfficiency:     0.85,
		MaxPatterns:       500,
		SearchDepth:       3,
		Adaptive:          true,
		Phase1TimeLimitMs: 30000,
		Phase2TimeLimitMs: 30000,
		Workers:           1,
		MinOffcutLength:   1.0,
		SparePercent:      0,
		PricePerBar:       0,
	}
}

// DefaultMultiSettings returns the settings used when several categories are
// solved in one run: a larger pool and longer solver budgets.
func DefaultMultiSettings() Settings {
	s := DefaultSettings()
	s.MaxPatterns = 1000
	s.Phase1TimeLimitMs = 90000
	s.Phase2TimeLimitMs = 90000
	return s
}

// SettingsFor picks the single or multi-category defaults.
func SettingsFor(categories int) Settings {
	if categories > 1 {
		return DefaultMultiSettings()
	}
	return DefaultSettings()
}

// Validate checks ranges using the struct tags.
func (s Settings) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
