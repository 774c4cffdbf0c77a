// Package worker runs fire-and-forget tasks with retries and reports their
// final failure to an event sink.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/illegalcall/fitplan/internal/events"
)

// Task is one unit of background work. It is retried while it returns an
// error that is not terminal.
type Task func(ctx context.Context) error

type Runner struct {
	retryMax     int
	retryBackoff time.Duration
	sink         events.Sink
	terminal     []error
	wg           sync.WaitGroup
}

type Option func(*Runner)

// StopOn makes errors matching any of errs end a task without further
// attempts.
func StopOn(errs ...error) Option {
	return func(r *Runner) {
		r.terminal = append(r.terminal, errs...)
	}
}

// NewRunner creates a runner making up to retryMax attempts per task. A nil
// sink logs events through slog.
func NewRunner(retryMax int, retryBackoff time.Duration, sink events.Sink, opts ...Option) *Runner {
	if retryMax < 1 {
		retryMax = 1
	}
	if sink == nil {
		sink = events.NewLogSink(nil)
	}
	slog.Info("Initializing background runner", "retryMax", retryMax, "retryBackoff", retryBackoff)
	r := &Runner{
		retryMax:     retryMax,
		retryBackoff: retryBackoff,
		sink:         sink,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle tracks one spawned task.
type Handle struct {
	Name   string
	UserID string

	done chan struct{}
	err  error
}

// Done is closed once the task has finished, successfully or not.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the final task error. It is only meaningful after Done.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx ends. It returns the task error,
// or ctx's error if ctx ended first. The task keeps running either way.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Spawn starts task on its own goroutine. The task context keeps ctx's values
// but not its cancellation, so the caller returning does not abort the work.
func (r *Runner) Spawn(ctx context.Context, name, userID string, task Task) *Handle {
	h := &Handle{Name: name, UserID: userID, done: make(chan struct{})}
	taskCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(h.done)
		h.err = r.run(taskCtx, h, task)
	}()
	return h
}

// Wait blocks until every spawned task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) isTerminal(err error) bool {
	for _, target := range r.terminal {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (r *Runner) run(ctx context.Context, h *Handle, task Task) error {
	var err error
	attempts := 0
	for attempts < r.retryMax {
		attempts++
		slog.Debug("Running background task", "task", h.Name, "userID", h.UserID, "attempt", attempts)
		if err = task(ctx); err == nil {
			slog.Info("Background task completed", "task", h.Name, "userID", h.UserID, "attempt", attempts)
			return nil
		}
		slog.Warn("Background task attempt failed", "task", h.Name, "userID", h.UserID, "attempt", attempts, "error", err)
		if r.isTerminal(err) {
			break
		}
		if attempts < r.retryMax {
			time.Sleep(r.retryBackoff)
		}
	}

	slog.Error("Background task ultimately failed", "task", h.Name, "userID", h.UserID, "error", err)
	ev := events.Event{
		Type:     events.FailureType(h.Name),
		UserID:   h.UserID,
		Attempts: attempts,
		Error:    err.Error(),
		Time:     time.Now().UTC(),
	}
	if pubErr := r.sink.Publish(ctx, ev); pubErr != nil {
		slog.Error("Failed to publish task failure", "task", h.Name, "error", pubErr)
	}
	return err
}
