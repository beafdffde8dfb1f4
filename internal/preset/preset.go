// Package preset loads and saves the named YAML preset files that bind a
// reference fingerprint path to default duck parameters (spec.md §6).
package preset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset identifies a reference fingerprint plus default duck parameters.
type Preset struct {
	Name            string   `yaml:"name"`
	FingerprintPath string   `yaml:"fingerprint_path"`
	DuckDB          float64  `yaml:"duck_db"`
	FadeSeconds     float64  `yaml:"fade_seconds"`
	TargetLUFS      *float64 `yaml:"target_lufs,omitempty"`
}

// DefaultDuckDB is the plateau used when neither a flag nor a preset
// supplies a duck mode. DefaultFadeSeconds fills a loaded preset whose
// fade_seconds is missing or zero, and is the fade analyze uses.
const (
	DefaultDuckDB      = -10.0
	DefaultFadeSeconds = 0.5
)

// Load reads a Preset from a YAML file at path.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset %s: %w", path, err)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if p.FadeSeconds == 0 {
		p.FadeSeconds = DefaultFadeSeconds
	}
	return &p, nil
}

// Save writes p to path as YAML.
func Save(path string, p *Preset) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write preset %s: %w", path, err)
	}
	return nil
}
