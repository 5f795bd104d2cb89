package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/vk/portabundle/internal/app"
	"github.com/vk/portabundle/internal/cli"
)

// main is the entrypoint for the portabundle application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitBuildFailed)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) error {
	if len(args) > 0 && args[0] == "fetch" {
		return runFetch(ctx, outW, args[1:])
	}

	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	a, err := app.NewApp(ctx, outW, appConfig, nil)
	if err != nil {
		return err
	}
	if _, err := a.Run(ctx); err != nil {
		return &cli.ExitError{Code: cli.ExitBuildFailed, Message: err.Error()}
	}
	return nil
}

func runFetch(ctx context.Context, outW io.Writer, args []string) error {
	fetchConfig, shouldExit, err := cli.ParseFetch(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	if _, err := app.RunFetch(ctx, outW, fetchConfig); err != nil {
		return &cli.ExitError{Code: cli.ExitBuildFailed, Message: err.Error()}
	}
	return nil
}
