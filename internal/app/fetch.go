package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/portabundle/internal/ctxlog"
	"github.com/vk/portabundle/internal/fetch"
)

// RunFetch waits for a remote build and extracts its artifact.
func RunFetch(ctx context.Context, outW io.Writer, cfg *FetchConfig) (*fetch.Result, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	f := fetch.New()
	if cfg.Interval > 0 {
		f.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		f.Timeout = cfg.Timeout
	}

	logger.Info("Waiting for remote build.", "status_url", cfg.StatusURL)
	res, err := f.Fetch(ctx, cfg.StatusURL, cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	if res.Status.WebURL != "" {
		logger.Info("Remote build details.", "web_url", res.Status.WebURL)
	}
	return res, nil
}
