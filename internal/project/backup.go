package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/piwi3910/BarCut/internal/history"
	"github.com/piwi3910/BarCut/internal/model"
)

// BackupVersion is written to every backup file. Backups with a newer
// major version are refused.
const BackupVersion = "2.0.0"

// BackupData bundles everything a user would move to another machine.
type BackupData struct {
	Version   string              `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
	Config    model.AppConfig     `json:"config"`
	Profiles  []SettingsProfile   `json:"profiles"`
	Runs      []history.StoredRun `json:"runs,omitempty"` // Recorded runs, when requested
}

// NewBackup stamps config, custom profiles and optional runs with the
// current version and time.
func NewBackup(config model.AppConfig, profiles []SettingsProfile, runs []history.StoredRun) BackupData {
	if profiles == nil {
		profiles = []SettingsProfile{}
	}
	return BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC(),
		Config:    config,
		Profiles:  profiles,
		Runs:      runs,
	}
}

// ExportAllData writes backup as indented JSON, creating the directory.
func ExportAllData(path string, backup BackupData) error {
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads and checks a backup. Nothing is applied; the caller
// decides what to restore.
func ImportAllData(path string) (BackupData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if err := checkBackupVersion(backup.Version); err != nil {
		return BackupData{}, err
	}
	if err := backup.Config.Settings.Validate(); err != nil {
		return BackupData{}, fmt.Errorf("invalid backup file: %w", err)
	}
	if err := validateProfiles(backup.Profiles); err != nil {
		return BackupData{}, fmt.Errorf("invalid backup file: %w", err)
	}

	if backup.Config.RecentProjects == nil {
		backup.Config.RecentProjects = []string{}
	}
	if backup.Profiles == nil {
		backup.Profiles = []SettingsProfile{}
	}
	return backup, nil
}

func checkBackupVersion(version string) error {
	if version == "" {
		return fmt.Errorf("invalid backup file: missing version field")
	}
	major, err := strconv.Atoi(strings.SplitN(version, ".", 2)[0])
	if err != nil {
		return fmt.Errorf("invalid backup file: bad version %q", version)
	}
	current, _ := strconv.Atoi(strings.SplitN(BackupVersion, ".", 2)[0])
	if major > current {
		return fmt.Errorf("backup version %s is newer than supported %s", version, BackupVersion)
	}
	return nil
}
