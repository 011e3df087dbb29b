package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/export"
	"github.com/piwi3910/BarCut/internal/importer"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

// settingsFlags are the optimizer overrides shared by optimize and compare.
type settingsFlags struct {
	profile       string
	barLength     float64
	minEfficiency float64
	maxPatterns   int
	phase1Ms      int
	phase2Ms      int
	noAdaptive    bool
	searchDepth   int
	workers       int
	price         float64
	spare         float64
	dxfScale      float64
}

func (f *settingsFlags) register(fs *pflag.FlagSet) {
	d := model.DefaultSettings()
	fs.StringVar(&f.profile, "profile", "", "Settings profile (default, multi, fast, thorough or a custom name)")
	fs.Float64Var(&f.barLength, "bar-length", d.BinCapacity, "Stock bar length")
	fs.Float64Var(&f.minEfficiency, "min-efficiency", d.MinEfficiency, "Starting pattern efficiency floor (0-1)")
	fs.IntVar(&f.maxPatterns, "max-patterns", d.MaxPatterns, "Pattern pool size per category")
	fs.IntVar(&f.phase1Ms, "phase1-ms", d.Phase1TimeLimitMs, "Bar minimization time limit in milliseconds")
	fs.IntVar(&f.phase2Ms, "phase2-ms", d.Phase2TimeLimitMs, "Waste minimization time limit in milliseconds")
	fs.BoolVar(&f.noAdaptive, "no-adaptive", false, "Do not relax the efficiency floor")
	fs.IntVar(&f.searchDepth, "search-depth", d.SearchDepth, "Max distinct cut lengths combined in one pattern (1-5)")
	fs.IntVar(&f.workers, "workers", d.Workers, "Categories solved in parallel")
	fs.Float64Var(&f.price, "price", 0, "Price per stock bar for the cost estimate")
	fs.Float64Var(&f.spare, "spare", 0, "Spare bars to order, in percent")
	fs.Float64Var(&f.dxfScale, "dxf-scale", 1, "Scale applied to DXF drawing units")
}

// resolve builds the run settings: config or profile first, then the
// file's bar length, then every flag the user set explicitly.
func (f *settingsFlags) resolve(a *app, fs *pflag.FlagSet, res importer.ImportResult) (model.Settings, error) {
	s := a.config.Settings
	if f.profile != "" {
		custom, err := project.LoadCustomProfiles(a.profilesPath())
		if err != nil {
			return model.Settings{}, err
		}
		p, ok := project.FindProfile(custom, f.profile)
		if !ok {
			return model.Settings{}, fmt.Errorf("unknown profile %q", f.profile)
		}
		s = p.Settings
	} else if len(res.Demands) > 1 && s == model.DefaultSettings() {
		s = model.DefaultMultiSettings()
	}
	if res.BinCapacity > 0 {
		s.BinCapacity = res.BinCapacity
	}

	if fs.Changed("bar-length") {
		s.BinCapacity = f.barLength
	}
	if fs.Changed("min-efficiency") {
		s.MinEfficiency = f.minEfficiency
	}
	if fs.Changed("max-patterns") {
		s.MaxPatterns = f.maxPatterns
	}
	if fs.Changed("phase1-ms") {
		s.Phase1TimeLimitMs = f.phase1Ms
	}
	if fs.Changed("phase2-ms") {
		s.Phase2TimeLimitMs = f.phase2Ms
	}
	if fs.Changed("no-adaptive") {
		s.Adaptive = !f.noAdaptive
	}
	if fs.Changed("search-depth") {
		s.SearchDepth = f.searchDepth
	}
	if fs.Changed("workers") {
		s.Workers = f.workers
	}
	if fs.Changed("price") {
		s.PricePerBar = f.price
	}
	if fs.Changed("spare") {
		s.SparePercent = f.spare
	}
	return s, s.Validate()
}

// loadDemands reads a cut list or a saved project.
func (a *app) loadDemands(path string, dxfScale float64) (importer.ImportResult, error) {
	var res importer.ImportResult
	switch strings.ToLower(filepath.Ext(path)) {
	case project.ProjectExt:
		p, err := project.LoadProject(path)
		if err != nil {
			return res, err
		}
		res = importer.ImportResult{Demands: p.Demands, BinCapacity: p.Settings.BinCapacity}
	case ".dxf":
		res = importer.ImportDXFScaled(path, dxfScale)
	default:
		res = importer.ImportFile(path)
	}

	for _, w := range res.Warnings {
		a.log.Warn(w)
	}
	for _, e := range res.Errors {
		a.log.Error(e)
	}
	if len(res.Demands) == 0 {
		if len(res.Errors) > 0 {
			return res, fmt.Errorf("%s: %s", path, res.Errors[0])
		}
		return res, fmt.Errorf("%s: no demand found", path)
	}
	a.log.WithFields(logrus.Fields{
		"file":       path,
		"categories": len(res.Demands),
		"pieces":     res.Pieces(),
	}).Info("Demand loaded")
	return res, nil
}

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		sf      settingsFlags
		reports []string
		labels  string
		save    string
		record  bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "optimize FILE",
		Short: "Optimize a cut list and print the cutting plan",
		Long: `Optimize a cut list (.csv, .xlsx, .yaml, .json, .dxf or a saved .barcut project).

Each category (bar diameter) is solved independently: first the number of
stock bars is minimized, then waste is minimized at that bar count.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.loadDemands(args[0], sf.dxfScale)
			if err != nil {
				return err
			}
			settings, err := sf.resolve(a, cmd.Flags(), res)
			if err != nil {
				return err
			}

			opt := engine.New(settings)
			opt.Log = logrus.NewEntry(a.log)
			opt.OnCategoryDone = func(o model.CategoryOutcome) {
				entry := a.log.WithField("category", o.Key)
				if o.Solved() {
					entry.WithField("bars", o.Result.TotalBars).Info("Category done")
				} else {
					entry.WithField("status", o.Status).Warn("Category failed")
				}
			}

			run, err := opt.OptimizeAll(cmd.Context(), res.Demands)
			if err != nil {
				return err
			}

			if !quiet {
				if err := export.WriteText(a.out, run); err != nil && !errors.Is(err, export.ErrNoSolution) {
					return err
				}
			}
			if !run.HasSolution() {
				return errors.New("no category could be solved")
			}

			if err := a.writeReports(run, reports, labels); err != nil {
				return err
			}
			if save != "" {
				if err := a.saveProject(save, res.Demands, settings, run); err != nil {
					return err
				}
			}
			if record || a.config.RecordHistory {
				if err := a.record(&run, args[0]); err != nil {
					return err
				}
			}
			return nil
		},
	}

	sf.register(cmd.Flags())
	cmd.Flags().StringSliceVar(&reports, "report", nil, "Write reports (.txt, .pdf, .xlsx, .dxf); repeatable")
	cmd.Flags().StringVar(&labels, "labels", "", "Write QR bar labels to this PDF")
	cmd.Flags().StringVar(&save, "save", "", "Save demand, settings and result as a project")
	cmd.Flags().BoolVar(&record, "record", false, "Store the run in the history database")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the cutting plan")
	return cmd
}

// writeReports writes every requested report, choosing the format by extension.
func (a *app) writeReports(run model.RunResult, reports []string, labels string) error {
	for _, path := range reports {
		path = a.reportPath(path)
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt":
			err = writeTextFile(path, run)
		case ".pdf":
			err = export.ExportPDF(path, run)
		case ".xlsx":
			err = export.ExportXLSX(path, run)
		case ".dxf":
			err = export.ExportDXF(path, run)
		default:
			err = fmt.Errorf("unsupported report format %q", filepath.Ext(path))
		}
		if err != nil {
			return fmt.Errorf("report %s: %w", path, err)
		}
		a.log.WithField("path", path).Info("Report written")
	}
	if labels != "" {
		path := a.reportPath(labels)
		if err := export.ExportLabels(path, run); err != nil {
			return fmt.Errorf("labels %s: %w", path, err)
		}
		a.log.WithField("path", path).Info("Labels written")
	}
	return nil
}

func writeTextFile(path string, run model.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteText(f, run); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *app) saveProject(path string, demands model.Demands, settings model.Settings, run model.RunResult) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p := model.NewProject(name)
	p.Demands = demands
	p.Settings = settings
	p.Result = &run
	if err := project.SaveProject(path, &p); err != nil {
		return fmt.Errorf("save project: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	a.config.AddRecentProject(abs)
	if err := project.SaveAppConfig(a.configPath, a.config); err != nil {
		a.log.WithError(err).Warn("Could not update recent projects")
	}
	return nil
}

func (a *app) record(run *model.RunResult, source string) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveRun(run, source); err != nil {
		return err
	}
	a.log.WithField("run", run.ID).Info("Run recorded")
	return nil
}
