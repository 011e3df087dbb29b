package model

import (
	"math"
	"testing"
)

func TestCalculatePurchaseEstimateBasic(t *testing.T) {
	s := Summary{TotalBars: 20, TheoreticalBars: 18, TotalDemand: 210}
	est := CalculatePurchaseEstimate(s, 5.0, 12.5)

	if est.PlannedBars != 20 {
		t.Errorf("expected 20 planned bars, got %d", est.PlannedBars)
	}
	if est.SpareBars != 1 {
		t.Errorf("expected 1 spare bar, got %d", est.SpareBars)
	}
	if est.BarsToOrder != 21 {
		t.Errorf("expected 21 bars to order, got %d", est.BarsToOrder)
	}
	if math.Abs(est.EstimatedCost-262.5) > 1e-9 {
		t.Errorf("expected cost 262.5, got %f", est.EstimatedCost)
	}
}

func TestCalculatePurchaseEstimateSpareRoundsUp(t *testing.T) {
	est := CalculatePurchaseEstimate(Summary{TotalBars: 3}, 1.0, 0)
	if est.SpareBars != 1 {
		t.Errorf("expected any spare percentage to add a bar, got %d", est.SpareBars)
	}
	if est.EstimatedCost != 0 {
		t.Errorf("expected no cost without a price, got %f", est.EstimatedCost)
	}
}

func TestCalculatePurchaseEstimateNoBars(t *testing.T) {
	est := CalculatePurchaseEstimate(Summary{}, 10.0, 5.0)
	if est.BarsToOrder != 0 || est.SpareBars != 0 {
		t.Errorf("expected nothing to order, got %+v", est)
	}
}
