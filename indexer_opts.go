package formscan

import "log/slog"

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for indexer lifecycle events and scan
// diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// WithProgress sets the sink receiving progress updates from builds.
//
// The sink is called from the worker goroutine, including from builds that
// are later superseded.
func WithProgress(sink ProgressSink) Option {
	return func(ix *Indexer) {
		if sink != nil {
			ix.sink = sink
		}
	}
}

// WithResultFunc sets a callback invoked once per completed build that was
// not superseded: with the new index on success, or with a nil index and
// the build error on failure. The callback runs on the worker goroutine.
func WithResultFunc(fn func(*Index, error)) Option {
	return func(ix *Indexer) {
		ix.onResult = fn
	}
}
