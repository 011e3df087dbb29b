package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/piwi3910/BarCut/internal/history"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

// Environment overrides, read after .env is loaded.
const (
	envConfig    = "BARCUT_CONFIG"
	envHistoryDB = "BARCUT_HISTORY_DB"
)

// app is the state shared by every command of one invocation.
type app struct {
	logLevel   string
	configPath string
	historyDB  string

	config model.AppConfig
	log    *logrus.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	rootCmd := &cobra.Command{
		Use:           "barcut",
		Short:         "Minimize stock bars and waste for bar cutting lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", envOr(envConfig, project.DefaultConfigPath()), "Application config file")
	rootCmd.PersistentFlags().StringVar(&a.historyDB, "history", "", "Run history database (default from config)")

	rootCmd.AddCommand(
		newOptimizeCmd(a),
		newCompareCmd(a),
		newReportCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newBackupCmd(a),
	)
	return rootCmd
}

// setup configures logging and loads the app config before any command runs.
func (a *app) setup(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", a.logLevel)
	}
	a.log.SetLevel(level)
	a.log.SetOutput(cmd.ErrOrStderr())
	a.out = cmd.OutOrStdout()

	cfg, err := project.LoadAppConfig(a.configPath)
	if err != nil {
		return err
	}
	a.config = cfg
	return nil
}

// historyPath resolves the database from flag, environment, config, default.
func (a *app) historyPath() string {
	switch {
	case a.historyDB != "":
		return a.historyDB
	case os.Getenv(envHistoryDB) != "":
		return os.Getenv(envHistoryDB)
	case a.config.HistoryDB != "":
		return a.config.HistoryDB
	default:
		return project.DefaultHistoryPath()
	}
}

func (a *app) openHistory() (*history.Store, error) {
	path := a.historyPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return history.NewStore(path)
}

// profilesPath keeps custom profiles next to the config file.
func (a *app) profilesPath() string {
	return filepath.Join(filepath.Dir(a.configPath), "profiles.yaml")
}

// reportPath resolves relative report paths against the configured report dir.
func (a *app) reportPath(path string) string {
	if a.config.ReportDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.config.ReportDir, path)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
