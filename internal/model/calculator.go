package model

import "math"

// PurchaseEstimate holds the results of a bar purchasing calculation.
type PurchaseEstimate struct {
	TotalDemand     float64 `json:"total_demand"`     // Summed length of all pieces
	TheoreticalBars int     `json:"theoretical_bars"` // Lower bound ignoring cutting patterns
	PlannedBars     int     `json:"planned_bars"`     // Bars in the cutting plan
	SparePercent    float64 `json:"spare_percent"`    // Extra bars ordered on top of the plan (e.g., 5 for 5%)
	SpareBars       int     `json:"spare_bars"`
	BarsToOrder     int     `json:"bars_to_order"`
	PricePerBar     float64 `json:"price_per_bar"`
	EstimatedCost   float64 `json:"estimated_cost"` // 0 when no price is set
}

// CalculatePurchaseEstimate computes how many bars to buy for a run summary.
// Spare bars are rounded up so any non-zero spare percentage orders at least
// one extra bar.
func CalculatePurchaseEstimate(s Summary, sparePercent, pricePerBar float64) PurchaseEstimate {
	spare := 0
	if sparePercent > 0 && s.TotalBars > 0 {
		spare = int(math.Ceil(float64(s.TotalBars) * sparePercent / 100.0))
	}
	order := s.TotalBars + spare

	return PurchaseEstimate{
		TotalDemand:     s.TotalDemand,
		TheoreticalBars: s.TheoreticalBars,
		PlannedBars:     s.TotalBars,
		SparePercent:    sparePercent,
		SpareBars:       spare,
		BarsToOrder:     order,
		PricePerBar:     pricePerBar,
		EstimatedCost:   float64(order) * pricePerBar,
	}
}
