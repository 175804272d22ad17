// Package config loads engine tuning parameters from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"georef/internal/transform"
	"georef/internal/warp"
)

// WarpConfig holds resampler defaults.
type WarpConfig struct {
	Mode   warp.Mode `yaml:"mode"`   // "nearest" or "bilinear"
	Margin float64   `yaml:"margin"` // pixels of slack beyond source bounds
}

// Config aggregates all engine configuration.
type Config struct {
	Fit  transform.Options `yaml:"fit"`
	Warp WarpConfig        `yaml:"warp"`
}

// Default returns the documented engine defaults.
func Default() *Config {
	return &Config{
		Fit: transform.DefaultOptions(),
		Warp: WarpConfig{
			Mode:   warp.ModeNearest,
			Margin: 0,
		},
	}
}

// Load reads a YAML file and returns the configuration, with unset
// fields falling back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges on the loaded values.
func (c *Config) Validate() error {
	if c.Fit.ConditionThreshold <= 0 {
		return fmt.Errorf("fit.condition_threshold must be > 0, got %g", c.Fit.ConditionThreshold)
	}
	if c.Fit.InverseMaxIterations < 1 {
		return fmt.Errorf("fit.inverse_max_iterations must be >= 1, got %d", c.Fit.InverseMaxIterations)
	}
	if c.Fit.InverseTolerance <= 0 {
		return fmt.Errorf("fit.inverse_tolerance must be > 0, got %g", c.Fit.InverseTolerance)
	}
	switch c.Warp.Mode {
	case warp.ModeNearest, warp.ModeBilinear:
	default:
		return fmt.Errorf("warp.mode must be %q or %q, got %q", warp.ModeNearest, warp.ModeBilinear, c.Warp.Mode)
	}
	if c.Warp.Margin < 0 {
		return fmt.Errorf("warp.margin must be >= 0, got %g", c.Warp.Margin)
	}
	return nil
}
