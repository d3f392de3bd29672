// Package config holds the runtime's startup settings: listen address,
// bridge timeouts, and logging. It follows the same load/save/default
// shape the teacher's accounting config used, adapted to this
// runtime's settings (yaml.v3-backed, CLI flags win over file values).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level hexputd.yaml configuration.
type Config struct {
	Listen  ListenConfig  `yaml:"listen"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logging LoggingConfig `yaml:"logging"`
}

// ListenConfig controls the WebSocket listener (spec §6 "Starting the
// server").
type ListenConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// BridgeConfig controls the per-attempt timeouts of an outbound
// existence probe and call (spec §4.4).
type BridgeConfig struct {
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
}

// LimitsConfig bounds interpreter resource usage (spec §5 "Resource
// bounds").
type LimitsConfig struct {
	MaxCallbackDepth int `yaml:"max_callback_depth"`
}

// LoggingConfig controls the zerolog writer.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

// Default returns the configuration a bare `hexputd serve` runs with
// when no --config file and no overriding flags are given.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Address: "127.0.0.1",
			Port:    9001,
		},
		Bridge: BridgeConfig{
			ProbeTimeout: 5 * time.Second,
			CallTimeout:  30 * time.Second,
		},
		Limits: LimitsConfig{
			MaxCallbackDepth: 512,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a hexputd.yaml file from disk, filling any field the file
// omits from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to a YAML file, used by `hexputd config init`.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
