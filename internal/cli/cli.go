package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/blocklift/internal/app"
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
	flagSet := flag.NewFlagSet("blocklift", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
blocklift - converts an embedded block type into a top-level model,
migrating all existing data and rewriting every referencing field.

Usage:
  blocklift [options] [JOB_PATH]

Arguments:
  JOB_PATH
    Path to the .hcl job file.

Options:
`)
		flagSet.PrintDefaults()
	}

	jobFlag := flagSet.String("job", "", "Path to the job file.")
	jFlag := flagSet.String("j", "", "Path to the job file (shorthand).")
	blockFlag := flagSet.String("block", "", "Target block api_key, overriding the job file.")
	fullReplaceFlag := flagSet.Bool("full-replace", false, "Delete the original fields and block type, overriding the job file.")
	publishFlag := flagSet.Bool("publish", false, "Publish changed records, overriding the job file.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *jobFlag != "" {
		path = *jobFlag
	} else if *jFlag != "" {
		path = *jFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	var logLevel slog.Level
	switch strings.ToLower(*logLevelFlag) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config := &app.Config{
		JobPath:       path,
		BlockOverride: *blockFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	}
	// Boolean overrides only apply when the flag was given explicitly.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "full-replace":
			v := *fullReplaceFlag
			config.FullReplaceOverride = &v
		case "publish":
			v := *publishFlag
			config.PublishOverride = &v
		}
	})

	return config, false, nil
}
