package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/BarCut/internal/history"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the application config",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.configPath)
			}
			if err := project.SaveAppConfig(a.configPath, model.DefaultAppConfig()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %s\n", a.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.config)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "# %s\n", a.configPath)
			_, err = a.out.Write(data)
			return err
		},
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "List settings profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			custom, err := project.LoadCustomProfiles(a.profilesPath())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%-12s %-8s %-6s %-6s %-6s %s\n", "NAME", "SOURCE", "BAR", "EFF", "DEPTH", "POOL")
			all := append(project.BuiltInProfiles(), custom...)
			for _, p := range all {
				source := "custom"
				if p.IsBuiltIn {
					source = "builtin"
				}
				s := p.Settings
				fmt.Fprintf(a.out, "%-12s %-8s %-6.2f %-6.2f %-6d %d\n", p.Name, source, s.BinCapacity, s.MinEfficiency, s.SearchDepth, s.MaxPatterns)
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd, profilesCmd)
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import config, profiles and run history",
	}

	var withRuns bool
	exportCmd := &cobra.Command{
		Use:   "export PATH",
		Short: "Write config and custom profiles to a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			custom, err := project.LoadCustomProfiles(a.profilesPath())
			if err != nil {
				return err
			}
			var runs []history.StoredRun
			if withRuns {
				store, err := a.openHistory()
				if err != nil {
					return err
				}
				runs, err = store.ExportRuns()
				store.Close()
				if err != nil {
					return err
				}
			}
			if err := project.ExportAllData(args[0], project.NewBackup(a.config, custom, runs)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Backup written to %s (%d profiles, %d runs)\n", args[0], len(custom), len(runs))
			return nil
		},
	}
	exportCmd.Flags().BoolVar(&withRuns, "runs", false, "Include recorded runs from the history database")

	importCmd := &cobra.Command{
		Use:   "import PATH",
		Short: "Restore config, custom profiles and recorded runs from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveAppConfig(a.configPath, backup.Config); err != nil {
				return err
			}
			if err := project.SaveCustomProfiles(a.profilesPath(), backup.Profiles); err != nil {
				return err
			}
			a.config = backup.Config

			added := 0
			if len(backup.Runs) > 0 {
				store, err := a.openHistory()
				if err != nil {
					return err
				}
				added, err = store.ImportRuns(backup.Runs)
				store.Close()
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "Restored backup from %s (version %s, %d profiles, %d new runs)\n",
				args[0], backup.Version, len(backup.Profiles), added)
			return nil
		},
	}

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}
