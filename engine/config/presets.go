package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Presets describes the fallback resources a scene creates before any user entity: the
// records a reference resolves to when it names nothing usable.
type Presets struct {
	Mesh     string         `yaml:"mesh"`
	Texture  string         `yaml:"texture"`
	Material MaterialPreset `yaml:"material"`
	Viewport ViewportPreset `yaml:"viewport"`
}

type MaterialPreset struct {
	Diffuse [4]float32 `yaml:"diffuse"`
}

type ViewportPreset struct {
	Position [3]float32 `yaml:"position"`
	Yaw      float32    `yaml:"yaw"`
	Pitch    float32    `yaml:"pitch"`
}

// DefaultPresets returns the presets used when no manifest is given.
func DefaultPresets() *Presets {
	return &Presets{
		Mesh:     "cube.obj",
		Texture:  "default.png",
		Material: MaterialPreset{Diffuse: [4]float32{1, 1, 1, 1}},
		Viewport: ViewportPreset{Position: [3]float32{0, 0, 3}},
	}
}

// LoadPresets reads the YAML manifest at path over the default presets.
//
// Parameters:
//   - path: the manifest file
//
// Returns:
//   - *Presets: the merged presets
//   - error: if the file cannot be read or parsed
func LoadPresets(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets %s: %w", path, err)
	}

	p := DefaultPresets()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	if p.Mesh == "" || p.Texture == "" {
		return nil, fmt.Errorf("presets %s: mesh and texture paths are required", path)
	}
	return p, nil
}
