// Package cli implements the designer command-line interface.
//
// This package provides commands for computing diagram layouts, editing the
// node hierarchy, rendering visualizations, browsing diagrams in a terminal
// UI, serving the engine over HTTP, and managing the layout cache. The CLI
// is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Recompute a diagram's layout and write the laid-out JSON
//   - edit: Apply a single mutation (add, remove, reparent, resize, move)
//   - render: Generate SVG, DOT, or JSON output
//   - view: Browse a diagram's hierarchy interactively
//   - serve: Expose the engine as a JSON HTTP API
//   - session: Save and restore named diagram snapshots
//   - cache: Manage the layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w, filtered at level, with
// millisecond timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when done is called.
// Single-goroutine use only.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, rounded to milliseconds.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey keeps the logger key distinct from other packages' context keys.
type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to the context for loggerFromContext to find.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default()
// when none is set, so commands always have a usable logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
