// Package config loads the engine tunables workspace.json leaves implicit:
// reputation decay constants, lock timeouts, and the schema directory.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables loaded from awp.yaml. cmd/awpctl reads
// Schema.Dir from it; the engines use their own built-in constants and do
// not take a Config.
type Config struct {
	Reputation ReputationConfig `yaml:"reputation"`
	Lock       LockConfig       `yaml:"lock"`
	Schema     SchemaConfig     `yaml:"schema"`
	Stats      StatsConfig      `yaml:"stats"`
}

// ReputationConfig holds the reputation engine's EWMA decay constants.
type ReputationConfig struct {
	Alpha     float64 `yaml:"alpha"`
	DecayRate float64 `yaml:"decay_rate"`
	Baseline  float64 `yaml:"baseline"`
}

// LockConfig controls advisory-lock acquisition.
type LockConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// SchemaConfig points at the schema registry directory.
type SchemaConfig struct {
	Dir string `yaml:"dir"`
}

// StatsConfig holds the experiment comparator's default alpha.
type StatsConfig struct {
	Alpha float64 `yaml:"alpha"`
}

// Default returns the engine's built-in tunable constants.
func Default() *Config {
	return &Config{
		Reputation: ReputationConfig{
			Alpha:     0.15,
			DecayRate: 0.02,
			Baseline:  0.5,
		},
		Lock: LockConfig{TimeoutSeconds: 10},
		Schema: SchemaConfig{
			Dir: ".awp/schema",
		},
		Stats: StatsConfig{Alpha: 0.05},
	}
}

// Load reads awp.yaml at path, falling back to Default() for any field the
// file leaves unset. A missing file yields Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
