package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/streakd/pkg/logger"
)

const logFileMode = 0o600

// SetupLogging initializes the global logger on stdout, teeing into logFile
// when one is given.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
	}
	if err := logger.InitWithWriter(w); err != nil {
		return err
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`streakd seed tool

Generates members with daily, weekday, sporadic, lapsed and idle solving
habits, posts their submissions to /events and prints the party summary.

Usage:
  seed-submissions [options]

Options:
  -url string        service root (default "http://localhost:9080")
  -members int       number of members (default 10)
  -days int          history length and analytics window (default 28)
  -workers int       concurrent submitters (default CPU cores * 2)
  -timeout duration  per request timeout (default 10s)
  -settle duration   how long to wait for ingestion (default 30s)
  -seed uint         generator seed (default: current time)
  -output string     write generated submissions as JSON
  -log string        tee log output into a file
  -verbose           debug logging
  -help              show this message
`)
}
