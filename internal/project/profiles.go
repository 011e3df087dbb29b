package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/BarCut/internal/model"
)

// SettingsProfile is a named set of optimizer settings.
type SettingsProfile struct {
	Name      string         `json:"name" yaml:"name"`
	Settings  model.Settings `json:"settings" yaml:"settings"`
	IsBuiltIn bool           `json:"-" yaml:"-"`
}

// BuiltInProfiles returns the profiles that ship with the application.
func BuiltInProfiles() []SettingsProfile {
	fast := model.DefaultSettings()
	fast.SearchDepth = 2
	fast.MaxPatterns = 200
	fast.Phase1TimeLimitMs = 5000
	fast.Phase2TimeLimitMs = 5000

	thorough := model.DefaultMultiSettings()
	thorough.SearchDepth = 4
	thorough.MaxPatterns = 2000

	return []SettingsProfile{
		{Name: "default", Settings: model.DefaultSettings(), IsBuiltIn: true},
		{Name: "multi", Settings: model.DefaultMultiSettings(), IsBuiltIn: true},
		{Name: "fast", Settings: fast, IsBuiltIn: true},
		{Name: "thorough", Settings: thorough, IsBuiltIn: true},
	}
}

// DefaultProfilesPath returns the default file path for custom profiles.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "profiles.yaml")
}

// SaveCustomProfiles saves custom profiles to a YAML file.
func SaveCustomProfiles(path string, profiles []SettingsProfile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(profiles)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCustomProfiles loads custom profiles from a YAML file.
// Returns an empty slice if the file does not exist.
func LoadCustomProfiles(path string) ([]SettingsProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []SettingsProfile{}, nil
		}
		return nil, err
	}

	var profiles []SettingsProfile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	if err := validateProfiles(profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func validateProfiles(profiles []SettingsProfile) error {
	for _, p := range profiles {
		if p.Name == "" {
			return errors.New("profile without a name")
		}
		if err := p.Settings.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return nil
}

// FindProfile looks name up among custom profiles first, then built-ins.
func FindProfile(custom []SettingsProfile, name string) (SettingsProfile, bool) {
	for _, p := range custom {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range BuiltInProfiles() {
		if p.Name == name {
			return p, true
		}
	}
	return SettingsProfile{}, false
}
