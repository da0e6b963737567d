package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of an expedition authoring file.
// Files are YAML; JSON documents parse as well.
type ImportSchema struct {
	Expedition  ExpeditionImport   `yaml:"expedition"`
	Pins        []PinImport        `yaml:"pins"`
	Connections []ConnectionImport `yaml:"connections,omitempty"`
}

type ExpeditionImport struct {
	Name         string `yaml:"name"`
	ClassroomID  string `yaml:"classroom_id"`
	MapImageURL  string `yaml:"map_image_url,omitempty"`
	AutoProgress bool   `yaml:"auto_progress,omitempty"`
	// Publish freezes the graph right after import.
	Publish bool `yaml:"publish,omitempty"`
}

// PointsImport is an XP/GP pair.
type PointsImport struct {
	XP int `yaml:"xp"`
	GP int `yaml:"gp"`
}

// PinImport defines a pin. Ref is local to the file and used by connections.
type PinImport struct {
	Ref                 string        `yaml:"ref"`
	Type                string        `yaml:"type"`
	Name                string        `yaml:"name"`
	Story               string        `yaml:"story,omitempty"`
	X                   float64       `yaml:"x,omitempty"`
	Y                   float64       `yaml:"y,omitempty"`
	RequiresSubmission  bool          `yaml:"requires_submission,omitempty"`
	DueDate             *string       `yaml:"due_date,omitempty"`
	EarlySubmissionDate *string       `yaml:"early_submission_date,omitempty"`
	Reward              *PointsImport `yaml:"reward,omitempty"`
	EarlyBonus          *PointsImport `yaml:"early_bonus,omitempty"`
	AutoProgress        *bool         `yaml:"auto_progress,omitempty"`
}

// ConnectionImport links two pin refs. When is "always" (default), "pass" or "fail".
type ConnectionImport struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	When string `yaml:"when,omitempty"`
}

// Parse decodes an authoring document.
func Parse(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}

// LoadImportSchema reads and parses an expedition import file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
