package cron

import (
	"context"
	"time"

	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/routine"
	"go.uber.org/zap"
)

// Middleware is a function that wraps a Task with additional behavior
type Middleware func(Task) Task

// applyMiddlewares applies middlewares so that the first one listed is the
// outermost: applyMiddlewares(task, mw1, mw2) is mw1(mw2(task)).
func applyMiddlewares(t Task, mws ...Middleware) Task {
	for i := len(mws) - 1; i >= 0; i-- {
		t = mws[i](t)
	}
	return t
}

// recoveryMiddleware turns a panicking task into a failed one.
func recoveryMiddleware(log logger.Logger) Middleware {
	return func(next Task) Task {
		return &wrappedTask{
			name: next.Name(),
			exec: func(ctx context.Context) error {
				var err error
				if perr := routine.Safe(log, next.Name(), func() { err = next.Run(ctx) }); perr != nil {
					return perr
				}
				return err
			},
		}
	}
}

// loggingMiddleware logs duration and failures. Maintenance runs often, so
// success is logged at debug level.
func loggingMiddleware(log logger.Logger) Middleware {
	return func(next Task) Task {
		return &wrappedTask{
			name: next.Name(),
			exec: func(ctx context.Context) error {
				start := time.Now()
				err := next.Run(ctx)
				duration := time.Since(start)
				if err != nil {
					log.Error("task failed",
						zap.String("task", next.Name()),
						zap.Duration("duration", duration),
						zap.Error(err),
					)
				} else {
					log.Debug("task completed",
						zap.String("task", next.Name()),
						zap.Duration("duration", duration),
					)
				}
				return err
			},
		}
	}
}

// timeoutMiddleware bounds every run by d; zero disables it.
func timeoutMiddleware(d time.Duration) Middleware {
	return func(next Task) Task {
		if d <= 0 {
			return next
		}
		return &wrappedTask{
			name: next.Name(),
			exec: func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, d)
				defer cancel()
				return next.Run(ctx)
			},
		}
	}
}

// wrappedTask is an internal helper struct used to wrap tasks with middleware
type wrappedTask struct {
	name string
	exec func(ctx context.Context) error
}

// Name returns the name of the wrapped task
func (w *wrappedTask) Name() string {
	return w.name
}

// Run executes the wrapped task function
func (w *wrappedTask) Run(ctx context.Context) error {
	return w.exec(ctx)
}
