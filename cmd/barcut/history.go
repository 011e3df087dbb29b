package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/BarCut/internal/export"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show and delete recorded runs",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.out, "No recorded runs.")
				return nil
			}
			fmt.Fprintf(a.out, "%-36s %-16s %-6s %-8s %-8s %s\n", "ID", "DATE", "BARS", "WASTE%", "SOLVED", "SOURCE")
			for _, r := range runs {
				fmt.Fprintf(a.out, "%-36s %-16s %-6d %-8.2f %-8s %s\n",
					r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Summary.TotalBars, r.Summary.WastePercentage,
					fmt.Sprintf("%d/%d", r.Summary.Solved, r.Summary.Categories), r.Source)
			}
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 = all)")

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print the cutting plan of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(args[0])
			if err != nil {
				return err
			}
			return export.WriteText(a.out, run)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.DeleteRun(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %s\n", args[0])
			return nil
		},
	}

	categoryCmd := &cobra.Command{
		Use:   "category KEY",
		Short: "Show how one category was solved across runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.CategoryHistory(args[0], limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%-16s %-14s %-6s %-10s %-6s %s\n", "DATE", "STATUS", "BARS", "WASTE", "PHASE", "RUN")
			for _, r := range recs {
				fmt.Fprintf(a.out, "%-16s %-14s %-6d %-10.2f %-6d %s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"), strings.ToUpper(string(r.Status)), r.Bars, r.Waste, r.Phase, r.RunID)
			}
			return nil
		},
	}
	categoryCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 = all)")

	cmd.AddCommand(listCmd, showCmd, deleteCmd, categoryCmd)
	return cmd
}
