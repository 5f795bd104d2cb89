package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/portabundle/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes.
const (
	ExitBuildFailed = 1
	ExitUsage       = 2
)

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// logFlags registers the logging flags shared by every command.
func logFlags(fs *flag.FlagSet) (format, level *string) {
	format = fs.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	level = fs.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	return format, level
}

func validateLogFlags(format, level string) (string, string, error) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return "", "", usageError("invalid log-format: must be 'text' or 'json'")
	}
	level = strings.ToLower(level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return "", "", usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	return format, level, nil
}

// Parse processes the build command line. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("portabundle", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
portabundle - builds self-contained, runnable bundles from a manifest.

Usage:
  portabundle [options] [MANIFEST]
  portabundle fetch [options] STATUS_URL

Arguments:
  MANIFEST
    Path to an .hcl or .toml manifest, or a directory containing .hcl files.
    Defaults to bundle.hcl in the current directory.

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "", "Path to the manifest file or directory.")
	mFlag := flagSet.String("m", "", "Path to the manifest file or directory (shorthand).")
	outputFlag := flagSet.String("output", "", "Output directory. Overrides output_dir from the manifest.")
	envFileFlag := flagSet.String("env-file", ".env", "File read for publisher credentials when present.")
	noPublishFlag := flagSet.Bool("no-publish", false, "Skip uploading the bundle even if the manifest has a publish block.")
	workersFlag := flagSet.Int("workers", 0, "Number of libraries collected in parallel. 0 uses one per CPU.")
	logFormatFlag, logLevelFlag := logFlags(flagSet)

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	path := "bundle.hcl"
	if *manifestFlag != "" {
		path = *manifestFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, usageError("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))
	}
	slog.Debug("Manifest path determined.", "path", path)

	logFormat, logLevel, err := validateLogFlags(*logFormatFlag, *logLevelFlag)
	if err != nil {
		return nil, false, err
	}

	config, err := app.NewConfig(app.Config{
		ManifestPath: path,
		OutputDir:    *outputFlag,
		DotEnvPath:   *envFileFlag,
		SkipPublish:  *noPublishFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		WorkerCount:  *workersFlag,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// ParseFetch processes the arguments of the fetch command.
func ParseFetch(args []string, output io.Writer) (*app.FetchConfig, bool, error) {
	flagSet := flag.NewFlagSet("portabundle fetch", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Waits for a remote build to finish, then downloads and extracts its bundle.

Usage:
  portabundle fetch [options] STATUS_URL

Options:
`)
		flagSet.PrintDefaults()
	}

	outputFlag := flagSet.String("output", "dist", "Directory the bundle is extracted into.")
	intervalFlag := flagSet.Duration("interval", 10*time.Second, "Time between status polls.")
	timeoutFlag := flagSet.Duration("timeout", 30*time.Minute, "Maximum time to wait for the remote build.")
	logFormatFlag, logLevelFlag := logFlags(flagSet)

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return nil, false, usageError("fetch needs exactly one STATUS_URL")
	}

	logFormat, logLevel, err := validateLogFlags(*logFormatFlag, *logLevelFlag)
	if err != nil {
		return nil, false, err
	}
	config, err := app.NewFetchConfig(app.FetchConfig{
		StatusURL: flagSet.Arg(0),
		OutputDir: *outputFlag,
		Interval:  *intervalFlag,
		Timeout:   *timeoutFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}
	return config, false, nil
}
