package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/buildgridgo/internal/app"
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

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("buildgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
BuildGridGo - A cached, concurrent multi-language build-and-run tool.

Usage:
  buildgridgo [options] SOURCES...

Arguments:
  SOURCES
    Source files to build and run. Files of different languages are
    dispatched to their toolchains by extension; directories are searched
    recursively for known source extensions.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL configuration file.")
	targetFlag := flagSet.String("target", "", "Artifact name override for single-toolchain builds.")
	toolchainFlag := flagSet.String("toolchain", "", "Force one toolchain instead of dispatching by extension.")
	extensionFlag := flagSet.Bool("extension-module", false, "Build a Python extension module instead of an executable.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent build lanes. 0 uses the host CPU count.")
	sequentialFlag := flagSet.Bool("sequential", false, "Run build lanes one after another.")
	cacheDirFlag := flagSet.String("cache-dir", "", "Directory for the build cache.")
	noCacheFlag := flagSet.Bool("no-cache", false, "Disable the build cache.")
	probeFlag := flagSet.Bool("probe", false, "Check which toolchains are available, then exit.")
	clearCacheFlag := flagSet.Bool("clear-cache", false, "Delete every cached artifact, then exit.")
	cacheStatsFlag := flagSet.Bool("cache-stats", false, "Print cache statistics, then exit.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	inputs := flagSet.Args()
	maintenance := *probeFlag || *clearCacheFlag || *cacheStatsFlag
	if len(inputs) == 0 && !maintenance {
		slog.Debug("No sources provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Inputs:          inputs,
		ConfigPath:      *configFlag,
		Target:          *targetFlag,
		Toolchain:       *toolchainFlag,
		ExtensionModule: *extensionFlag,
		Workers:         *workersFlag,
		Sequential:      *sequentialFlag,
		CacheDir:        *cacheDirFlag,
		NoCache:         *noCacheFlag,
		Probe:           *probeFlag,
		ClearCache:      *clearCacheFlag,
		CacheStats:      *cacheStatsFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "inputs", len(config.Inputs))
	return config, false, nil
}
