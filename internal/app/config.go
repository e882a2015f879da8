package app

import (
	"errors"

	"github.com/vk/buildgridgo/internal/config"
)

// Config holds all the settings an App instance needs to run.
type Config struct {
	// Inputs are the source files or directories to build and run.
	Inputs []string

	ConfigPath string // optional HCL configuration file

	Target          string // artifact name override (single-toolchain builds)
	Toolchain       string // force one toolchain instead of dispatching by extension
	ExtensionModule bool   // build a Python extension module instead of an executable

	Workers    int
	Sequential bool
	CacheDir   string
	NoCache    bool

	Probe      bool
	ClearCache bool
	CacheStats bool

	LogFormat string
	LogLevel  string
}

// Maintenance reports whether the run is a housekeeping operation that
// needs no build inputs.
func (c *Config) Maintenance() bool {
	return c.Probe || c.ClearCache || c.CacheStats
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Inputs) == 0 && !cfg.Maintenance() {
		return nil, errors.New("at least one source file or directory is required")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("workers must not be negative")
	}
	if cfg.ExtensionModule && cfg.Toolchain == "" {
		return nil, errors.New("-extension-module requires -toolchain")
	}
	return &cfg, nil
}

// applyFlags lays CLI overrides over the loaded configuration model,
// completing the defaults < file < flags precedence chain.
func applyFlags(model *config.Model, cfg *Config) {
	if cfg.Workers > 0 {
		model.Build.Workers = cfg.Workers
	}
	if cfg.Sequential {
		model.Build.Sequential = true
	}
	if cfg.CacheDir != "" {
		model.Cache.Dir = cfg.CacheDir
	}
	if cfg.NoCache {
		model.Cache.Enabled = false
	}
}
