package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the file name written by SaveManifest.
const ManifestFile = "tool.yaml"

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// Manifest describes a tool so it can be shared and loaded elsewhere.
type Manifest struct {
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version"`
	Description string         `yaml:"description"`
	Inputs      []ParameterDef `yaml:"inputs"`
	OutputType  string         `yaml:"output_type"`
	Requires    []string       `yaml:"requires,omitempty"` // environment variables the tool needs
}

// NewManifest describes tool at the given version.
func NewManifest(tool Tool, version string, requires ...string) Manifest {
	return Manifest{
		Name:        tool.Name(),
		Version:     version,
		Description: tool.Description(),
		Inputs:      tool.Parameters(),
		OutputType:  "string",
		Requires:    requires,
	}
}

// Validate checks required fields, the name format and the semver version.
func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("invalid tool manifest: missing required field: name")
	}
	if !toolNamePattern.MatchString(m.Name) {
		return fmt.Errorf("invalid tool manifest: invalid name: %s", m.Name)
	}
	if m.Version == "" {
		return fmt.Errorf("invalid tool manifest: missing required field: version")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("invalid tool manifest: invalid semver format for version: %s", m.Version)
	}
	if m.Description == "" {
		return fmt.Errorf("invalid tool manifest: missing required field: description")
	}
	if m.OutputType == "" {
		return fmt.Errorf("invalid tool manifest: missing required field: output_type")
	}

	seen := make(map[string]bool, len(m.Inputs))
	for i, in := range m.Inputs {
		if in.Name == "" {
			return fmt.Errorf("invalid tool manifest: input[%d] missing name field", i)
		}
		if seen[in.Name] {
			return fmt.Errorf("invalid tool manifest: duplicate input %s", in.Name)
		}
		seen[in.Name] = true
		switch in.Type {
		case "string", "integer", "number", "boolean":
		default:
			return fmt.Errorf("invalid tool manifest: input %s has unsupported type %q", in.Name, in.Type)
		}
	}
	return nil
}

// SaveManifest validates m and writes it to dir/tool.yaml, creating dir if needed.
func SaveManifest(dir string, m Manifest) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to serialize manifest: %w", err)
	}

	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// LoadManifest reads and validates dir/tool.yaml.
func LoadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("invalid tool manifest YAML: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
