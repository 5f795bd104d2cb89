package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/portabundle/internal/config"
	"github.com/vk/portabundle/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	manifest *config.Manifest
}

// NewApp loads the manifest named by cfg. A nil loader selects one by file
// extension.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = LoaderFor(cfg.ManifestPath)
	}
	m, err := loader.Load(ctx, cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	logger.Debug("Manifest loaded.",
		"name", m.Name,
		"modules", len(m.ExplicitModules),
		"libraries", len(m.ExplicitLibraries),
		"exclusions", len(m.ExcludedPatterns),
	)

	return &App{outW: outW, logger: logger, config: cfg, manifest: m}, nil
}

// Manifest returns the loaded manifest. This is primarily for testing.
func (a *App) Manifest() *config.Manifest {
	return a.manifest
}
