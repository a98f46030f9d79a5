// Package cache is the client-side resource-synchronization core.
//
// A Store holds one Entry per Key (resource name + parameters). Subscribing to
// a key fetches it when absent or stale, re-polls it while the job it
// describes is non-terminal, and re-fetches it when a Bus invalidation matches.
// Responses are tagged with a per-key generation so a slow response can never
// overwrite the result of a fetch started after it.
//
// Components:
//   - Store: entry lifecycle, subscriptions, ordered change notification
//   - executor: deduplicated, generation-tagged fetches with bounded retry
//   - scheduler: at most one poll timer per key, driven by IntervalFunc
//   - Bus: pattern-based invalidation with listener fan-out
package cache

import (
	"context"
	"time"
)

// FetchFunc loads the payload for one key. It receives a copy of the key's
// parameters and must honour ctx cancellation and deadline.
type FetchFunc func(ctx context.Context, params Params) (any, error)

// IntervalFunc decides, from freshly written data, how long to wait before
// polling again. Returning false stops polling for the key. It runs while the
// store is locked and must not call back into the Store.
type IntervalFunc func(data any) (time.Duration, bool)

// Callback receives entry snapshots for a subscribed key, in order, on the
// store's dispatcher goroutine.
type Callback func(Entry)

// RetryPolicy bounds the retries a fetch performs before its entry is marked
// as failed. Backoff doubles on every attempt.
type RetryPolicy struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff" yaml:"backoff"`
}

// Resource describes how every key with a given resource name is fetched,
// how long its data stays fresh and how it is polled by default.
type Resource struct {
	// Name is the resource name keys are matched against (required)
	Name string
	// Fetch loads one key (required)
	Fetch FetchFunc
	// StaleAfter is the freshness budget; zero uses Config.StaleAfter
	StaleAfter time.Duration
	// Interval is the default poll policy; nil means the resource is never polled
	// unless a subscriber supplies its own
	Interval IntervalFunc
	// Retry overrides the store-wide retry policy
	Retry *RetryPolicy
}

// SubscribeOption customises one subscription.
type SubscribeOption func(*subscription)

// WithInterval overrides the resource's poll policy for this subscription.
func WithInterval(fn IntervalFunc) SubscribeOption {
	return func(s *subscription) {
		s.interval = fn
	}
}

// Every returns an IntervalFunc that always polls at d, regardless of data.
func Every(d time.Duration) IntervalFunc {
	return func(any) (time.Duration, bool) {
		return d, d > 0
	}
}

// Never is an IntervalFunc that never polls.
func Never(any) (time.Duration, bool) {
	return 0, false
}
