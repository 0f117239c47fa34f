package formscan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Indexer builds indexes on a worker goroutine.
//
// At most one build is in flight: starting a new one cancels and supersedes
// the previous, whose outcome is discarded. A finished build publishes its
// Index with a single atomic swap, so [Indexer.Index] readers always see
// either the prior complete index or the new one, never a partial result,
// and a failed build leaves the prior index in place.
type Indexer struct {
	logger   *slog.Logger
	sink     ProgressSink
	onResult func(*Index, error)

	mu     sync.Mutex
	closed bool
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	err    error

	current atomic.Pointer[Index]
}

// NewIndexer creates an Indexer.
func NewIndexer(opts ...Option) *Indexer {
	ix := &Indexer{sink: nopSink{}}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// log returns the logger or a discard logger.
func (ix *Indexer) log() *slog.Logger {
	if ix.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return ix.logger
}

// Index returns the most recently published index, or nil before the first
// successful build. The returned index stays valid across later rescans.
func (ix *Indexer) Index() *Index {
	return ix.current.Load()
}

// Rescan starts a build over data, superseding any build in flight.
//
// Rescan returns immediately; completion is observed via [Indexer.Wait],
// [WithResultFunc], or [Indexer.Index]. On a closed Indexer it is a no-op.
func (ix *Indexer) Rescan(ctx context.Context, data []byte) {
	ix.start(ctx, func(ctx context.Context) (*Index, error) {
		return ix.scan(ctx, data)
	})
}

// RescanFile reads path into memory and starts a build over it, superseding
// any build in flight.
//
// A read failure is the build's result: the error surfaces through
// [Indexer.Wait] and the result callback, and the prior index stays
// published.
func (ix *Indexer) RescanFile(ctx context.Context, path string) {
	ix.start(ctx, func(ctx context.Context) (*Index, error) {
		ix.sink.SetStatus("Reading file into memory...")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("formscan: read archive: %w", err)
		}
		return ix.scan(ctx, data)
	})
}

func (ix *Indexer) scan(ctx context.Context, data []byte) (*Index, error) {
	opts := []ScanOption{ScanWithContext(ctx), ScanWithProgress(ix.sink)}
	if ix.logger != nil {
		opts = append(opts, ScanWithLogger(ix.logger))
	}
	return Scan(data, opts...)
}

// start cancels the in-flight build and launches a new one. Publication is
// guarded by a generation counter: only the newest build may publish.
func (ix *Indexer) start(ctx context.Context, build func(context.Context) (*Index, error)) {
	ix.mu.Lock()
	if ix.closed {
		ix.mu.Unlock()
		ix.log().Warn("rescan on closed indexer ignored")
		return
	}
	if ix.cancel != nil {
		ix.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ix.gen++
	gen := ix.gen
	ix.cancel = cancel
	ix.done = done
	ix.mu.Unlock()

	ix.log().Debug("build started", "generation", gen)

	go func() {
		defer cancel()
		idx, err := build(ctx)

		ix.mu.Lock()
		stale := gen != ix.gen || ix.closed
		if !stale {
			if err == nil {
				ix.current.Store(idx)
			}
			ix.err = err
		}
		// Only the owner resets done; a superseding build has already
		// replaced it with its own channel.
		if ix.done == done {
			ix.done = nil
		}
		ix.mu.Unlock()
		close(done)

		if stale {
			ix.log().Debug("build superseded", "generation", gen)
			return
		}
		ix.log().Debug("build finished", "generation", gen, "err", err)
		if ix.onResult != nil {
			if err != nil {
				ix.onResult(nil, err)
				return
			}
			ix.onResult(idx, nil)
		}
	}()
}

// Wait blocks until no build is in flight, then returns the latest
// published index and the last completed build's error.
//
// When builds keep superseding each other, Wait follows to the newest one.
// On a closed Indexer, Wait reports [ErrClosed] once the canceled build has
// wound down. Context cancellation returns the context error alongside
// whatever index is currently published.
func (ix *Indexer) Wait(ctx context.Context) (*Index, error) {
	for {
		ix.mu.Lock()
		done := ix.done
		closed := ix.closed
		err := ix.err
		ix.mu.Unlock()

		if done == nil {
			if closed {
				return ix.current.Load(), ErrClosed
			}
			return ix.current.Load(), err
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ix.current.Load(), ctx.Err()
		}
	}
}

// Close cancels any in-flight build and rejects further rescans. The last
// published index remains readable.
func (ix *Indexer) Close() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return
	}
	ix.closed = true
	if ix.cancel != nil {
		ix.cancel()
		ix.cancel = nil
	}
}
