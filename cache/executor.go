package cache

import (
	"context"
	"time"

	"github.com/dailyyoga/dashsync/apierr"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/metrics"
	"github.com/dailyyoga/dashsync/routine"
	"go.uber.org/zap"
)

// executor runs fetches. The generation is assigned by the Store before
// execute is called, so every response is tagged before the first suspension
// point. Folding of concurrent requests for a key happens in the Store, which
// never starts a second fetch while one is in flight unless it supersedes it.
type executor struct {
	log     logger.Logger
	metrics metrics.Recorder
	runner  routine.Runner
	timeout time.Duration

	ctx context.Context

	// write stores the outcome; current returns the key's latest generation.
	write   func(key Key, generation uint64, data any, err error)
	current func(key Key) uint64
}

// execute starts the fetch for key at generation gen on its own goroutine.
func (x *executor) execute(key Key, gen uint64, res *Resource, retry RetryPolicy) {
	x.runner.GoNamed("fetch:"+key.Resource(), func() {
		data, err := x.fetch(key, gen, res, retry)
		x.write(key, gen, data, err)
	})
}

// fetch calls res.Fetch with bounded exponential-backoff retry, giving up
// early once a newer generation has started for the key.
func (x *executor) fetch(key Key, gen uint64, res *Resource, retry RetryPolicy) (any, error) {
	var lastErr error

	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if x.current(key) != gen {
				return nil, &apierr.CancelledError{Generation: gen}
			}
			backoff := retry.Backoff << (attempt - 1)
			x.metrics.FetchRetried(key.Resource())
			x.log.Warn("retrying fetch after backoff",
				zap.String("key", key.String()),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-x.ctx.Done():
				return nil, &apierr.CancelledError{Generation: gen}
			}
		}

		ctx, cancel := context.WithTimeout(x.ctx, x.timeout)
		x.metrics.FetchStarted(key.Resource())
		data, err := res.Fetch(ctx, key.Params())
		cancel()

		if err == nil {
			return data, nil
		}
		if x.ctx.Err() != nil {
			return nil, &apierr.CancelledError{Generation: gen}
		}

		lastErr = apierr.Classify(err)
		if !apierr.Retryable(lastErr) {
			break
		}
		x.log.Warn("fetch failed, will retry",
			zap.String("key", key.String()),
			zap.Error(lastErr),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", retry.MaxRetries),
		)
	}
	return nil, lastErr
}
