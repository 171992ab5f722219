// Package config loads runtime settings for the overload CLI from a
// YAML or JSON file, with optional environment overrides.
//
// Environment variables use the OVERLOAD_ prefix with "__" as the
// section separator, so OVERLOAD_LOGGING__LEVEL=debug overrides
// logging.level from the file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Trace   TraceConfig   `json:"trace"`
	Logging LoggingConfig `json:"logging"`
	Metrics MetricsConfig `json:"metrics"`
	Cache   CacheConfig   `json:"cache"`
}

// TraceConfig controls the SQLite event log.
type TraceConfig struct {
	// Enabled turns trace recording on.
	Enabled bool `json:"enabled"`
	// Path is the trace database file.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *TraceConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "overload.db"
	}
}

// Validate checks mandatory fields.
func (c TraceConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("trace path is required")
	}
	return nil
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	// Enabled starts the /metrics HTTP listener.
	Enabled bool `json:"enabled"`
	// Addr is the listen address for the exporter.
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":2112"
	}
}

// Validate checks mandatory fields.
func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("metrics addr is required")
	}
	return nil
}

// CacheConfig carries dispatch debug switches.
type CacheConfig struct {
	// Disabled turns the per-table resolution cache off, forcing every
	// call through the full scan.
	Disabled bool `json:"disabled"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("OVERLOAD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "overload_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Trace.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Trace.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Trace.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	return cfg
}
