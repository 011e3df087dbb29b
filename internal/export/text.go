package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/piwi3910/BarCut/internal/model"
)

const textRule = 80

// WriteText writes the cutting instructions of run to w: one section per
// category with its patterns, then the overall summary table.
func WriteText(w io.Writer, run model.RunResult) error {
	if err := checkRun(run); err != nil {
		return err
	}

	var b bytes.Buffer
	heavy := strings.Repeat("=", textRule)
	light := strings.Repeat("-", textRule)

	fmt.Fprintln(&b, heavy)
	fmt.Fprintln(&b, "CUTTING PLAN - PRODUCTION INSTRUCTION")
	fmt.Fprintln(&b, heavy)
	if run.ID != "" {
		fmt.Fprintf(&b, "Run: %s\n", run.ID)
	}
	if !run.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", run.CreatedAt.Format("02.01.2006 15:04"))
	}
	fmt.Fprintf(&b, "Stock bar length: %.2f\n\n", run.Settings.BinCapacity)

	for _, o := range run.Outcomes {
		fmt.Fprintln(&b, heavy)
		if !o.Solved() {
			fmt.Fprintf(&b, "CATEGORY %s: NO SOLUTION (%s)\n", o.Key, o.Status)
			if o.Message != "" {
				fmt.Fprintf(&b, "  %s\n", o.Message)
			}
			fmt.Fprintln(&b)
			continue
		}
		writeCategory(&b, *o.Result, run.Settings.MinOffcutLength, light)
	}

	writeSummary(&b, run, heavy, light)

	_, err := b.WriteTo(w)
	return err
}

func writeCategory(b *bytes.Buffer, r model.OptimizationResult, minOffcut float64, rule string) {
	fmt.Fprintf(b, "CATEGORY %s (bar length %.2f)\n", r.Category, r.BinCapacity)
	fmt.Fprintln(b, rule)
	fmt.Fprintf(b, "Demand: %.2f\n", r.TotalDemand)
	fmt.Fprintf(b, "Bars (theoretical/used): %d/%d\n", r.TheoreticalMin, r.TotalBars)
	fmt.Fprintf(b, "Waste: %.2f (%.2f%%)\n", r.TotalWaste, r.WastePercentage)
	fmt.Fprintf(b, "Phase: %d | Efficiency floor: %.2f | Pool: %d patterns\n", r.PhaseUsed, r.UsedEfficiency, r.PoolSize)
	if imp := r.WasteImprovement(); imp > model.LengthEpsilon {
		fmt.Fprintf(b, "Phase 2 saved %.2f of waste\n", imp)
	}
	fmt.Fprintln(b)

	for i, p := range sortedPatterns(r) {
		fmt.Fprintf(b, "Pattern %d: %d bars -> %s\n", i+1, p.Count, p.Describe(r.Lengths))
		fmt.Fprintf(b, "  Total: %.2f | Waste: %.2f | Utilization: %.1f%%\n", p.TotalLength, p.Waste, p.Efficiency(r.BinCapacity))
	}

	if offcuts := model.DetectOffcuts(r, minOffcut); len(offcuts) > 0 {
		parts := make([]string, 0, len(offcuts))
		for _, o := range offcuts {
			parts = append(parts, fmt.Sprintf("%d x %.2f", o.Quantity, o.Length))
		}
		fmt.Fprintf(b, "Remnants >= %.2f: %s\n", minOffcut, strings.Join(parts, ", "))
	}
	fmt.Fprintln(b)
}

func writeSummary(b *bytes.Buffer, run model.RunResult, heavy, light string) {
	fmt.Fprintln(b, heavy)
	fmt.Fprintln(b, "OVERALL SUMMARY - ALL CATEGORIES")
	fmt.Fprintln(b, heavy)
	fmt.Fprintf(b, "%-12s %-8s %-12s %-10s %-12s %-6s %-6s\n", "CATEGORY", "BARS", "WASTE", "WASTE%", "DEMAND", "PHASE", "EFF")
	fmt.Fprintln(b, light)
	for _, o := range run.Outcomes {
		if !o.Solved() {
			fmt.Fprintf(b, "%-12s %s\n", o.Key, strings.ToUpper(string(o.Status)))
			continue
		}
		r := o.Result
		fmt.Fprintf(b, "%-12s %-8d %-12.2f %-10.2f %-12.2f %-6d %-6.2f\n",
			r.Category, r.TotalBars, r.TotalWaste, r.WastePercentage, r.TotalDemand, r.PhaseUsed, r.UsedEfficiency)
	}

	s := run.Summary
	fmt.Fprintln(b, light)
	fmt.Fprintf(b, "%-12s %-8d %-12.2f %-10.2f %-12.2f\n", "TOTAL", s.TotalBars, s.TotalWaste, s.WastePercentage, s.TotalDemand)
	fmt.Fprintln(b, "Waste % = total waste / (bars x bar length) x 100")

	if run.Settings.SparePercent > 0 || run.Settings.PricePerBar > 0 {
		est := model.CalculatePurchaseEstimate(s, run.Settings.SparePercent, run.Settings.PricePerBar)
		fmt.Fprintf(b, "Bars to order: %d (%d planned + %d spare)\n", est.BarsToOrder, est.PlannedBars, est.SpareBars)
		if est.PricePerBar > 0 {
			fmt.Fprintf(b, "Estimated cost: %.2f\n", est.EstimatedCost)
		}
	}
	fmt.Fprintln(b, heavy)
	fmt.Fprintln(b, "NOTE: Double-check all measurements before cutting.")
	fmt.Fprintln(b, heavy)
}
