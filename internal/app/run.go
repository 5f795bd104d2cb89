package app

import (
	"context"
	"fmt"

	"github.com/gookit/color"
	"github.com/vk/portabundle/internal/build"
	"github.com/vk/portabundle/internal/ctxlog"
	"github.com/vk/portabundle/internal/publish"
	"github.com/vk/portabundle/internal/report"
)

// Run builds the bundle and publishes it when the manifest asks for it. The
// result is returned even when the build fails.
func (a *App) Run(ctx context.Context) (*build.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	o := build.New(a.manifest, build.Options{
		Workers:   a.config.WorkerCount,
		OutputDir: a.config.OutputDir,
	})
	res, err := o.Run(ctx)
	if res != nil && res.Report != nil {
		if werr := res.Report.WriteText(a.outW); werr != nil {
			a.logger.Warn("Failed to print build summary.", "error", werr)
		}
	}
	if err != nil {
		fmt.Fprintln(a.outW, color.Danger.Sprintf("Build failed: %v", err))
		return res, fmt.Errorf("build failed: %w", err)
	}
	fmt.Fprintln(a.outW, color.Success.Sprintf("Bundle ready: %s", res.BundlePath))

	if a.manifest.Publish != nil && !a.config.SkipPublish {
		if err := a.publish(ctx, res); err != nil {
			return res, fmt.Errorf("publish failed: %w", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return res, nil
}

func (a *App) publish(ctx context.Context, res *build.Result) error {
	env, err := publish.LoadEnv(a.config.DotEnvPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", a.config.DotEnvPath, err)
	}
	store, err := publish.NewS3Store(publish.S3ConfigFor(a.manifest.Publish, env))
	if err != nil {
		return err
	}
	p := &publish.Publisher{Store: store, Prefix: a.manifest.Publish.Prefix}
	_, err = p.Publish(ctx, res.Report.BuildID, res.BundlePath, res.ReportJSON, res.ReportText)
	return err
}

// Succeeded reports whether res describes a successful build.
func Succeeded(res *build.Result) bool {
	return res != nil && res.Report != nil && res.Report.Status == report.StatusSucceeded
}
