// Package relay keeps several dashboard processes consistent by mirroring
// invalidations over Redis pub/sub.
//
// Invalidations raised locally are published with this process's origin id.
// Messages from other origins are applied through Bus.InvalidateFrom, so they
// are not published again; messages carrying our own origin are ignored.
package relay

import (
	"context"
	"sync"

	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/routine"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Invalidator is the part of the invalidation bus the relay drives.
type Invalidator interface {
	InvalidateFrom(origin string, patterns ...cache.Pattern) int
	OnInvalidate(l cache.Listener)
}

// Relay bridges one local bus and a Redis channel.
type Relay struct {
	log    logger.Logger
	cfg    *Config
	client *redis.Client
	bus    Invalidator
	origin string
	runner routine.Runner

	mu      sync.Mutex
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// New creates a relay for bus. It does not connect until Start.
func New(log logger.Logger, cfg *Config, bus Invalidator) (*Relay, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	origin := uuid.NewString()
	log = logger.With(log, zap.String("node", origin))
	return &Relay{
		log:    log,
		cfg:    cfg,
		client: redis.NewClient(cfg.Options()),
		bus:    bus,
		origin: origin,
		runner: routine.New(log),
	}, nil
}

// Origin returns the id this process publishes under.
func (r *Relay) Origin() string { return r.origin }

// Start subscribes to the channel, waits for the subscription to be
// confirmed and begins mirroring in both directions.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}

	pubsub := r.client.Subscribe(ctx, r.cfg.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return ErrSubscribe(r.cfg.Channel, err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	r.pubsub = pubsub
	r.cancel = cancel
	r.started = true

	ch := pubsub.Channel()
	r.runner.GoNamedWithContext(listenCtx, "relay-listen", func(ctx context.Context) {
		r.listen(ctx, ch)
	})
	r.bus.OnInvalidate(r.onLocal)

	r.log.Info("invalidation relay started", zap.String("channel", r.cfg.Channel))
	return nil
}

// Publish sends patterns to every other process.
func (r *Relay) Publish(ctx context.Context, patterns ...cache.Pattern) error {
	if len(patterns) == 0 {
		return nil
	}
	payload, err := encode(r.origin, patterns)
	if err != nil {
		return ErrPublish(err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.cfg.Channel, payload).Err(); err != nil {
		return ErrPublish(err)
	}
	return nil
}

// onLocal is the bus listener. Only locally raised invalidations are
// published; publishing runs off the mutation path.
func (r *Relay) onLocal(origin string, patterns []cache.Pattern) {
	if origin != "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.runner.GoNamed("relay-publish", func() {
		if err := r.Publish(context.Background(), patterns...); err != nil {
			r.log.Warn("failed to publish invalidation", zap.Error(err))
		}
	})
}

func (r *Relay) listen(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.apply(msg.Payload)
		}
	}
}

func (r *Relay) apply(payload string) {
	origin, patterns, err := decode([]byte(payload))
	if err != nil {
		r.log.Warn("dropping malformed invalidation", zap.Error(err))
		return
	}
	if origin == r.origin || origin == "" || len(patterns) == 0 {
		return
	}
	matched := r.bus.InvalidateFrom(origin, patterns...)
	r.log.Debug("applied remote invalidation",
		zap.String("origin", origin),
		zap.Int("patterns", len(patterns)),
		zap.Int("matched", matched),
	)
}

// Close stops listening, waits for pending publishes and closes the Redis
// client. It is idempotent.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	cancel, pubsub := r.cancel, r.pubsub
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if pubsub != nil {
		pubsub.Close()
	}
	r.runner.Wait()
	r.log.Info("invalidation relay closed")
	return r.client.Close()
}
