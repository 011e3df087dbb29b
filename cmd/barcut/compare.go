package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/BarCut/internal/engine"
)

func newCompareCmd(a *app) *cobra.Command {
	var sf settingsFlags

	cmd := &cobra.Command{
		Use:   "compare FILE",
		Short: "Optimize a cut list under several what-if settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.loadDemands(args[0], sf.dxfScale)
			if err != nil {
				return err
			}
			settings, err := sf.resolve(a, cmd.Flags(), res)
			if err != nil {
				return err
			}

			results, err := engine.CompareScenarios(cmd.Context(), engine.BuildDefaultScenarios(settings), res.Demands, nil)
			if err != nil {
				return err
			}

			best := 0
			for i, r := range results {
				b := results[best]
				if r.FailedCount < b.FailedCount ||
					(r.FailedCount == b.FailedCount && r.BarsUsed < b.BarsUsed) ||
					(r.FailedCount == b.FailedCount && r.BarsUsed == b.BarsUsed && r.WastePercent < b.WastePercent-1e-9) {
					best = i
				}
			}

			fmt.Fprintf(a.out, "%-24s %-8s %-10s %-8s\n", "SCENARIO", "BARS", "WASTE%", "FAILED")
			fmt.Fprintln(a.out, strings.Repeat("-", 54))
			for i, r := range results {
				mark := ""
				if i == best {
					mark = " *"
				}
				fmt.Fprintf(a.out, "%-24s %-8d %-10.2f %-8d%s\n", r.Scenario.Name, r.BarsUsed, r.WastePercent, r.FailedCount, mark)
			}
			return nil
		},
	}
	sf.register(cmd.Flags())
	return cmd
}
