// Package cron runs the cache's periodic maintenance: evicting entries
// nobody watches any more and re-validating resources whose server-side
// state drifts without a local mutation (aggregate statistics, for example).
//
// Work is organised as chains of tasks on a robfig/cron schedule. Tasks of
// a chain run in order and share a Shared value; the first failure aborts
// the rest of the chain.
package cron

import (
	"context"

	"github.com/dailyyoga/dashsync/logger"
)

// Task is one named unit of maintenance work.
type Task interface {
	// Name identifies the task in logs
	Name() string
	// Run executes the task; ctx carries the chain's Shared value
	Run(ctx context.Context) error
}

// TaskFunc adapts a function into a Task.
func TaskFunc(name string, fn func(ctx context.Context) error) Task {
	return &wrappedTask{name: name, exec: fn}
}

// Chain is a named, scheduled sequence of tasks.
type Chain struct {
	// Name of the chain
	Name string
	// Spec is a cron spec with optional seconds field, or a descriptor such as "@every 30s"
	Spec string
	// Tasks run in order
	Tasks []Task
}

// Cron schedules chains.
type Cron interface {
	// Start begins the scheduler
	Start()
	// Close stops the scheduler, cancels running chains and waits for them
	Close()
	// AddTasks schedules tasks as one chain
	AddTasks(name string, spec string, tasks ...Task) error
	// AddChain is AddTasks for a Chain value
	AddChain(chain Chain) error
	// RunNow runs a registered chain once, synchronously
	RunNow(ctx context.Context, name string) error
	// Chains returns the names of registered chains
	Chains() []string
}

// NewCron creates a scheduler. Recovery and logging wrap every task, then
// mws in the given order.
func NewCron(log logger.Logger, cfg *Config, mws ...Middleware) (Cron, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	defaultMws := []Middleware{
		recoveryMiddleware(log),
		loggingMiddleware(log),
		timeoutMiddleware(cfg.TaskTimeout),
	}
	return newCronManager(log, append(defaultMws, mws...)...), nil
}
