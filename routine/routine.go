// Package routine provides panic-safe goroutines, callbacks and timers.
//
// Fetch goroutines, subscriber callbacks and poll timers all run user supplied
// code; a panic in any of them is logged and contained instead of taking the
// process down.
package routine

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dailyyoga/dashsync/logger"
	"go.uber.org/zap"
)

// Runner starts tracked goroutines so their owner can wait for them on
// shutdown. The store uses one for fetches, the relay for its listener.
type Runner interface {
	// GoNamed runs fn on a new goroutine. name labels panic logs.
	GoNamed(name string, fn func())

	// GoNamedWithContext is GoNamed for functions that take a context.
	GoNamedWithContext(ctx context.Context, name string, fn func(ctx context.Context))

	// Wait blocks until every goroutine started by the runner has returned.
	Wait()
}

type runner struct {
	log logger.Logger
	wg  sync.WaitGroup
}

// New returns a Runner logging panics to log.
func New(log logger.Logger) Runner {
	return &runner{log: log}
}

func (r *runner) GoNamed(name string, fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer guard(r.log, name)
		fn()
	}()
}

func (r *runner) GoNamedWithContext(ctx context.Context, name string, fn func(ctx context.Context)) {
	r.GoNamed(name, func() { fn(ctx) })
}

func (r *runner) Wait() {
	r.wg.Wait()
}

// GoNamed runs fn on an untracked goroutine with panic recovery. Use it for
// goroutines that live as long as their owner and are stopped another way.
func GoNamed(log logger.Logger, name string, fn func()) {
	go func() {
		defer guard(log, name)
		fn()
	}()
}

// Safe runs fn synchronously and returns ErrPanic if it panicked.
// It is used for subscriber callbacks, which run on the dispatcher goroutine
// and must not be able to stop it.
func Safe(log logger.Logger, name string, fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logPanic(log, name, rec)
			err = ErrPanic(rec)
		}
	}()
	fn()
	return nil
}

// Timer is a one-shot timer whose callback runs with panic recovery.
type Timer struct {
	t *time.Timer
}

// AfterFunc arms a one-shot timer that calls fn after d on its own goroutine.
func AfterFunc(log logger.Logger, name string, d time.Duration, fn func()) *Timer {
	return &Timer{
		t: time.AfterFunc(d, func() {
			defer guard(log, name)
			fn()
		}),
	}
}

// Stop prevents the timer from firing. It reports whether the call stopped
// the timer, false if it had already fired or been stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.t == nil {
		return false
	}
	return t.t.Stop()
}

// guard must be deferred directly so recover sees the panic.
func guard(log logger.Logger, name string) {
	if rec := recover(); rec != nil {
		logPanic(log, name, rec)
	}
}

func logPanic(log logger.Logger, name string, rec any) {
	log.Error("goroutine panicked",
		zap.String("routine", name),
		zap.Any("panic", rec),
		zap.String("stack", string(debug.Stack())),
	)
}
