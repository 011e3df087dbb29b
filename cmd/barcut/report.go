package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/piwi3910/BarCut/internal/export"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		runID   string
		reports []string
		labels  string
	)

	cmd := &cobra.Command{
		Use:   "report [PROJECT]",
		Short: "Reprint the cutting plan of a saved project or a recorded run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var run model.RunResult
			switch {
			case runID != "":
				store, err := a.openHistory()
				if err != nil {
					return err
				}
				defer store.Close()
				if run, err = store.GetRun(runID); err != nil {
					return err
				}
			case len(args) == 1:
				p, err := project.LoadProject(args[0])
				if err != nil {
					return err
				}
				if p.Result == nil {
					return errors.New("project has no result; run optimize with --save first")
				}
				run = *p.Result
			default:
				return errors.New("give a project file or --run ID")
			}

			if len(reports) == 0 && labels == "" {
				return export.WriteText(a.out, run)
			}
			return a.writeReports(run, reports, labels)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Recorded run ID from the history database")
	cmd.Flags().StringSliceVar(&reports, "report", nil, "Write reports (.txt, .pdf, .xlsx, .dxf); repeatable")
	cmd.Flags().StringVar(&labels, "labels", "", "Write QR bar labels to this PDF")
	return cmd
}
