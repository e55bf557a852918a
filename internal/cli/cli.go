package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/RaiVaibhav/coala/internal/app"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("coala", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
coala - Runs analysis routines (bears) over your code.

Usage:
  coala [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single config file or a directory containing config files.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the config file or directory.")
	cFlag := flagSet.String("c", "", "Path to the config file or directory (shorthand).")
	formatFlag := flagSet.String("config-format", "hcl", "Config file format. Options: 'hcl' or 'yaml'.")
	sectionsFlag := flagSet.String("sections", "", "Comma-separated list of sections to run. Empty runs all.")
	profileBearsFlag := flagSet.String("profile-bears", "", "Profile bears and report per the given specification. 'true' prints to the console.")
	profileDumpFlag := flagSet.String("profile-dump", "", "Dump raw profiles to the given directory instead of reporting.")
	debugBearsFlag := flagSet.Bool("debug-bears", false, "Attach the stepping debugger to every bear invocation.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	configFormat := strings.ToLower(*formatFlag)
	if configFormat != "hcl" && configFormat != "yaml" {
		return nil, false, &ExitError{Code: 2, Message: "invalid config-format: must be 'hcl' or 'yaml'"}
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

	var sections []string
	for _, s := range strings.Split(*sectionsFlag, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}

	config, err := app.NewConfig(app.Config{
		ConfigPath:   path,
		ConfigFormat: configFormat,
		Sections:     sections,
		ProfileBears: *profileBearsFlag,
		ProfileDump:  *profileDumpFlag,
		DebugBears:   *debugBearsFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
