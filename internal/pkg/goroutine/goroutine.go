// Package goroutine provides a bounded runner for background work.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/YessineAmor/stampd/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is the per-CPU multiplier applied when NewManager
// receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs tasks on goroutines while enforcing a concurrency cap.
// Errors returned by tasks are collected and surfaced by Wait.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	errs   []error
	closed bool
}

// NewManager returns a Manager that runs at most limit tasks concurrently.
func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, limit)}
}

// Go runs f on a new goroutine when a slot is free. The task is dropped with
// a warning when the manager is closed or at capacity.
func (m *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	if m == nil {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return
	}
	m.mu.Unlock()

	select {
	case m.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, failed to start new goroutine")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() { <-m.sema }()
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}

			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "stack", string(stack))
			}
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled", "because", err)
			return
		}

		if err := f(ctx); err != nil {
			m.mu.Lock()
			m.errs = append(m.errs, err)
			m.mu.Unlock()
		}
	}()
}

// Wait blocks until every scheduled task finishes, closes the manager to new
// work, and returns the joined task errors.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}
