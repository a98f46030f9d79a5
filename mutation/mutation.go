// Package mutation runs write operations against the resource collaborator
// and, only once they succeed, invalidates the cache keys they affect.
//
// Every call site declares its invalidation set explicitly. Deleting a
// comment changes both the comment lists and their aggregate statistics, and
// nothing in the data says so; the call site must name both:
//
//	coord.Mutate(ctx, deleteComment, cache.ByResource("comments"), cache.ByResource("comments-stats"))
package mutation

import (
	"context"

	"github.com/dailyyoga/dashsync/apierr"
	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/metrics"
	"go.uber.org/zap"
)

// Func performs one write and returns its result.
type Func func(ctx context.Context) (any, error)

// Invalidator is the part of the invalidation bus the coordinator needs.
type Invalidator interface {
	Invalidate(patterns ...cache.Pattern) int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics counts mutation outcomes on rec.
func WithMetrics(rec metrics.Recorder) Option {
	return func(c *Coordinator) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// Coordinator executes mutations and emits their invalidation sets.
type Coordinator struct {
	log     logger.Logger
	bus     Invalidator
	metrics metrics.Recorder
}

// New creates a coordinator invalidating through bus.
func New(log logger.Logger, bus Invalidator, opts ...Option) *Coordinator {
	c := &Coordinator{
		log:     log,
		bus:     bus,
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mutate runs fn. On success it invalidates each pattern once, in the given
// order, and returns fn's result. On failure nothing is invalidated and the
// classified error is returned.
//
// Invalidation only marks keys stale and starts their re-fetch; cached data
// is not yet updated when Mutate returns.
func (c *Coordinator) Mutate(ctx context.Context, fn Func, invalidates ...cache.Pattern) (any, error) {
	if fn == nil {
		return nil, ErrNilMutation
	}
	result, err := fn(ctx)
	if err != nil {
		err = apierr.Classify(err)
		c.metrics.Mutation("error")
		if !apierr.IsAuth(err) {
			c.log.Warn("mutation failed", zap.Strings("invalidates", names(invalidates)), zap.Error(err))
		}
		return nil, err
	}
	c.metrics.Mutation("ok")

	matched := 0
	for _, p := range invalidates {
		matched += c.bus.Invalidate(p)
	}
	c.log.Debug("mutation applied",
		zap.Strings("invalidates", names(invalidates)),
		zap.Int("matched", matched),
	)
	return result, nil
}

// Apply is Mutate with a declared Set.
func (c *Coordinator) Apply(ctx context.Context, set Set, fn Func) (any, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return c.Mutate(ctx, fn, set.Patterns...)
}

// Do is the typed form of Mutate.
func Do[T any](ctx context.Context, c *Coordinator, fn func(ctx context.Context) (T, error), invalidates ...cache.Pattern) (T, error) {
	var zero T
	if fn == nil {
		return zero, ErrNilMutation
	}
	var typed T
	_, err := c.Mutate(ctx, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		typed = v
		return v, err
	}, invalidates...)
	if err != nil {
		return zero, err
	}
	return typed, nil
}

func names(patterns []cache.Pattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.String()
	}
	return out
}
