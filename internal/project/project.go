package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/piwi3910/BarCut/internal/model"
)

// ProjectExt is the file extension for saved projects.
const ProjectExt = ".barcut"

// SaveProject writes p to path as JSON, assigning an ID on first save.
// It creates parent directories if they do not exist.
func SaveProject(path string, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProject reads a project from the specified JSON file. Projects saved
// without settings get the defaults for their category count.
func LoadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, err
	}
	var p model.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project %s: %w", path, err)
	}
	if p.Demands == nil {
		p.Demands = model.Demands{}
	}
	if p.Settings == (model.Settings{}) {
		p.Settings = model.SettingsFor(len(p.Demands))
	}
	return p, nil
}
