// Package loader provides fetch-once data loaders with a snapshot view of
// their state.
package loader

import (
	"context"
	"log/slog"
	"sync"
)

// Snapshot is the externally visible state of a loader. Error holds a
// user-facing message, never the underlying cause.
type Snapshot[T any] struct {
	Data    T      `json:"data"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loader runs its fetch once per instance. Concurrent Load calls wait for the
// same fetch. The lock is not held while fetching, so Snapshot reports
// Loading until the fetch returns.
type Loader[T any] struct {
	name    string
	message string
	fetch   FetchFunc[T]
	log     *slog.Logger

	mu       sync.Mutex
	done     bool
	loading  bool
	inflight chan struct{}
	data     T
	errMsg   string
}

// New creates a loader. message is what Snapshot reports when the fetch
// fails.
func New[T any](name, message string, fetch FetchFunc[T], log *slog.Logger) *Loader[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Loader[T]{
		name:    name,
		message: message,
		fetch:   fetch,
		log:     log,
		loading: true,
	}
}

// Load fetches the data unless a previous Load already did.
func (l *Loader[T]) Load(ctx context.Context) Snapshot[T] {
	return l.run(ctx, false)
}

// Refresh discards the previous result and fetches again. A Refresh during a
// running fetch waits for that fetch instead of starting another.
func (l *Loader[T]) Refresh(ctx context.Context) Snapshot[T] {
	return l.run(ctx, true)
}

func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Loader[T]) run(ctx context.Context, force bool) Snapshot[T] {
	l.mu.Lock()
	if l.done && !force {
		defer l.mu.Unlock()
		return l.snapshotLocked()
	}
	if wait := l.inflight; wait != nil {
		l.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
		}
		return l.Snapshot()
	}
	wait := make(chan struct{})
	l.inflight = wait
	l.loading = true
	l.errMsg = ""
	l.mu.Unlock()

	data, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight = nil
	close(wait)
	l.loading = false
	l.done = true
	if err != nil {
		l.log.Error("loader fetch failed", "loader", l.name, "error", err)
		var zero T
		l.data = zero
		l.errMsg = l.message
		return l.snapshotLocked()
	}
	l.data = data
	return l.snapshotLocked()
}

func (l *Loader[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{Data: l.data, Loading: l.loading, Error: l.errMsg}
}
