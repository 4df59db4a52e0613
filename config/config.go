// Package config holds the runtime configuration handed to a game module
// and the channels it can arrive through.
//
// Configuration is produced independently of the module: it may be known
// before the module finishes loading, arrive later, or never arrive. A
// Source is read at most once, at the moment the module becomes ready.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/gamehost/errors"
)

// RuntimeConfig is the argument set for the module's start entry.
type RuntimeConfig struct {
	// EntryModule names the script the module runs first. Only passed to
	// modules whose start takes a named entry.
	EntryModule   string   `yaml:"entry_module,omitempty" json:"entryModule,omitempty"`
	Width         uint32   `yaml:"width" json:"width"`
	Height        uint32   `yaml:"height" json:"height"`
	FrozenModules []string `yaml:"frozen_modules,omitempty" json:"frozenModules,omitempty"`
}

// Validate checks the display dimensions.
func (c RuntimeConfig) Validate() error {
	if c.Width == 0 {
		return errors.InvalidConfig([]string{"width"}, "must be positive")
	}
	if c.Height == 0 {
		return errors.InvalidConfig([]string{"height"}, "must be positive")
	}
	for i, m := range c.FrozenModules {
		if m == "" {
			return errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
				Path("frozen_modules").
				Value(i).
				Detail("entry %d is empty", i).
				Build()
		}
	}
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c RuntimeConfig) Clone() RuntimeConfig {
	if c.FrozenModules != nil {
		c.FrozenModules = append([]string(nil), c.FrozenModules...)
	}
	return c
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RuntimeConfig{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err, "parse yaml")
	}
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

// LoadFile reads and parses the YAML file at path.
func LoadFile(path string) (RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeConfig{}, errors.LoadFailure(errors.PhaseConfig, "read "+path, err)
	}
	return Parse(data)
}

// Marshal encodes cfg as YAML.
func Marshal(cfg RuntimeConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}
