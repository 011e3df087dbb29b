package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default optimizer settings applied to new runs
	Settings Settings `json:"settings" yaml:"settings"`

	// Application preferences
	HistoryDB      string   `json:"history_db" yaml:"history_db"`           // SQLite file for run history; empty = default location
	RecordHistory  bool     `json:"record_history" yaml:"record_history"`   // Store every optimize run
	ReportDir      string   `json:"report_dir" yaml:"report_dir"`           // Relative report paths resolve here
	RecentProjects []string `json:"recent_projects" yaml:"recent_projects"` // Most recent first
}

// maxRecentProjects bounds the recent project list.
const maxRecentProjects = 10

// DefaultAppConfig returns an AppConfig populated with DefaultSettings().
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Settings:       DefaultSettings(),
		RecordHistory:  false,
		RecentProjects: []string{},
	}
}

// AddRecentProject moves path to the front of the recent list.
func (c *AppConfig) AddRecentProject(path string) {
	list := []string{path}
	for _, p := range c.RecentProjects {
		if p != path {
			list = append(list, p)
		}
	}
	if len(list) > maxRecentProjects {
		list = list[:maxRecentProjects]
	}
	c.RecentProjects = list
}
