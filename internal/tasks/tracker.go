package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrDraining is reported by Drain when tasks were still running at the deadline.
var ErrDraining = errors.New("tasks still running at shutdown deadline")

// Tracker runs detached work that must outlive the request that started it
// but not the process. Once Drain has been called no new task is accepted.
type Tracker struct {
	logger  *slog.Logger
	base    context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	running atomic.Int64
}

func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{logger: logger, base: ctx, cancel: cancel}
}

// Go starts fn in its own goroutine. It returns false when the tracker is
// already draining. A panic in fn is logged and swallowed.
func (t *Tracker) Go(name string, fn func(ctx context.Context)) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.logger.Warn("task rejected, tracker draining", "task", name)
		return false
	}
	t.wg.Add(1)
	t.running.Add(1)
	t.mu.Unlock()

	id := uuid.NewString()
	go func() {
		defer t.wg.Done()
		defer t.running.Add(-1)
		defer func() {
			if rec := recover(); rec != nil {
				t.logger.Error("task panicked",
					"task", name,
					"task_id", id,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn(t.base)
	}()
	return true
}

// InFlight reports how many tasks are currently running.
func (t *Tracker) InFlight() int { return int(t.running.Load()) }

// Drain stops accepting tasks and waits for running ones. When ctx expires
// first the task context is cancelled and ErrDraining is returned.
func (t *Tracker) Drain(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		return nil
	case <-ctx.Done():
		t.cancel()
		t.logger.Warn("shutdown deadline hit with tasks in flight", "in_flight", t.InFlight())
		return fmt.Errorf("%w: %d", ErrDraining, t.InFlight())
	}
}
