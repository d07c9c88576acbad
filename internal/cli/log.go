// Package cli implements the depweight command-line interface.
//
// # Commands
//
//   - analyze: Report the weight of each dependency of a Cargo workspace
//   - runs: List and show stored analysis runs
//   - serve: Serve stored runs over HTTP
//   - cache: Clear or locate the persistent line-count cache
//
// # Configuration
//
// Settings are read from depweight.toml (or --config), then the environment
// and a .env file, then flags. See package config.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging through
// charmbracelet/log on stderr. Results go to stdout.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of a step with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g.
// "Resolved 42 packages (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
