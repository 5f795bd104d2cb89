package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ManifestPath is an .hcl or .toml file, or a directory of .hcl files.
	ManifestPath string
	// OutputDir overrides the manifest output directory.
	OutputDir string
	// DotEnvPath is read for publisher credentials when it exists.
	DotEnvPath string
	// SkipPublish disables the publish step even when configured.
	SkipPublish bool

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 0 {
		return nil, errors.New("WorkerCount must not be negative")
	}
	return &cfg, nil
}

// FetchConfig configures a remote artifact retrieval.
type FetchConfig struct {
	StatusURL string
	OutputDir string
	Interval  time.Duration
	Timeout   time.Duration

	LogFormat string
	LogLevel  string
}

// NewFetchConfig validates cfg.
func NewFetchConfig(cfg FetchConfig) (*FetchConfig, error) {
	if cfg.StatusURL == "" {
		return nil, errors.New("a status URL is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("an output directory is required")
	}
	if cfg.Interval < 0 || cfg.Timeout < 0 {
		return nil, errors.New("interval and timeout must not be negative")
	}
	return &cfg, nil
}
