package formscan

import (
	"context"
	"log/slog"
)

// ScanOption configures a single Scan run.
type ScanOption func(*scanConfig)

type scanConfig struct {
	ctx    context.Context
	logger *slog.Logger
	sink   ProgressSink
}

// log returns the configured logger or a discard logger.
func (c *scanConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// ScanWithContext sets the context the pipeline checks between phases and
// inside per-item loops. Cancellation makes Scan return the context error
// with no index produced.
func ScanWithContext(ctx context.Context) ScanOption {
	return func(c *scanConfig) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// ScanWithLogger sets a logger for scan diagnostics (debug level only).
func ScanWithLogger(logger *slog.Logger) ScanOption {
	return func(c *scanConfig) {
		c.logger = logger
	}
}

// ScanWithProgress sets the sink receiving progress updates during the run.
func ScanWithProgress(sink ProgressSink) ScanOption {
	return func(c *scanConfig) {
		if sink != nil {
			c.sink = sink
		}
	}
}
