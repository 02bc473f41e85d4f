// Copyright (c) 2023 BVK Chaitanya

// Package job implements a handle for long-running background activities. A
// job runs its function in a separate goroutine under a context that is
// canceled when the job is canceled.
package job

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

type State string

const (
	RUNNING   State = "RUNNING"
	COMPLETED State = "COMPLETED"
	CANCELED  State = "CANCELED"
	FAILED    State = "FAILED"
)

type Func func(ctx context.Context) error

var errCancel = errors.New("ErrCancel")

type Job struct {
	cancel context.CancelCauseFunc

	done chan struct{}

	mu sync.Mutex

	state State

	err error
}

// Run starts a new job that runs the input function in the background. Job
// function receives a context derived from the input context, so jobs are
// also stopped when the input context is canceled.
func Run(f Func, ctx context.Context) *Job {
	jctx, jcancel := context.WithCancelCause(ctx)
	j := &Job{
		cancel: jcancel,
		done:   make(chan struct{}),
		state:  RUNNING,
	}
	go j.goRun(jctx, f)
	return j
}

func (j *Job) goRun(ctx context.Context, f Func) {
	defer close(j.done)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "panic", r)
			slog.Error(string(debug.Stack()))
			panic(r)
		}
	}()

	err := f(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()

	j.err = err
	switch {
	case err == nil:
		j.state = COMPLETED
	case errors.Is(err, errCancel) || errors.Is(err, context.Cause(ctx)):
		j.state = CANCELED
	default:
		j.state = FAILED
	}
}

// Cancel requests the job to stop. It doesn't wait for the job function to
// return; use Wait for that.
func (j *Job) Cancel() {
	j.cancel(errCancel)
}

// Wait blocks till the job function returns or the input context is
// canceled.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-j.done:
		return nil
	}
}

// Done returns a channel that is closed when the job function returns.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Err returns the error value returned by the job function.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func IsDone(s State) bool {
	return s == COMPLETED || s == CANCELED || s == FAILED
}
