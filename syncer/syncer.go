// Package syncer is the consumer-facing entry point of the synchronization
// core. Views subscribe to (resource, params) pairs and run mutations with
// declared invalidation sets; timers, generations and the bus stay inside.
package syncer

import (
	"context"
	"sync"

	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/config"
	"github.com/dailyyoga/dashsync/cron"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/metrics"
	"github.com/dailyyoga/dashsync/mutation"
	"github.com/dailyyoga/dashsync/registry"
	"github.com/dailyyoga/dashsync/relay"
	"go.uber.org/zap"
)

// Option configures a Syncer.
type Option func(*options)

type options struct {
	storeOpts []cache.Option
	recorder  metrics.Recorder
}

// WithStoreOptions passes options through to the cache store.
func WithStoreOptions(opts ...cache.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// WithRecorder reports to rec instead of the recorder built from config.
func WithRecorder(rec metrics.Recorder) Option {
	return func(o *options) {
		o.recorder = rec
	}
}

// Syncer owns one store and everything wired around it.
type Syncer struct {
	log   logger.Logger
	cfg   *config.Config
	store *cache.Store
	bus   *cache.Bus
	reg   *registry.Registry
	coord *mutation.Coordinator
	prom  *metrics.Prometheus
	relay *relay.Relay
	cron  cron.Cron

	mu      sync.Mutex
	started bool
	closed  bool
}

// New builds the store, bus, registry, coordinator, metrics and, when
// enabled, the relay and maintenance scheduler. Nothing runs until Start,
// except fetches triggered by subscriptions.
func New(log logger.Logger, cfg *config.Config, opts ...Option) (*Syncer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Syncer{log: log, cfg: cfg}

	rec := o.recorder
	if rec == nil {
		rec = metrics.Nop{}
		if cfg.Metrics.Enabled {
			prom, err := metrics.NewPrometheus(cfg.Metrics)
			if err != nil {
				return nil, ErrComponent("metrics", err)
			}
			s.prom, rec = prom, prom
		}
	}

	store, err := cache.New(logger.Named(log, "cache"), cfg.Cache, append([]cache.Option{cache.WithMetrics(rec)}, o.storeOpts...)...)
	if err != nil {
		return nil, ErrComponent("cache", err)
	}
	s.store = store
	s.bus = cache.NewBus(logger.Named(log, "bus"), store)
	s.reg = registry.New(logger.Named(log, "registry"), store)
	s.coord = mutation.New(logger.Named(log, "mutation"), s.bus, mutation.WithMetrics(rec))

	if cfg.Relay.Enabled {
		r, err := relay.New(logger.Named(log, "relay"), cfg.Relay, s.bus)
		if err != nil {
			return nil, s.abort("relay", err)
		}
		s.relay = r
	}
	if cfg.Maintenance.Enabled {
		c, err := cron.NewCron(logger.Named(log, "cron"), cfg.Maintenance)
		if err != nil {
			return nil, s.abort("maintenance", err)
		}
		s.cron = c
		if err := cron.Schedule(c, cfg.Maintenance, log, store, s.bus); err != nil {
			return nil, s.abort("maintenance", err)
		}
	}
	return s, nil
}

// abort releases the components New has built so far and wraps err.
func (s *Syncer) abort(component string, err error) error {
	if s.cron != nil {
		s.cron.Close()
	}
	if s.relay != nil {
		if cerr := s.relay.Close(); cerr != nil {
			s.log.Warn("failed to close relay", zap.Error(cerr))
		}
	}
	s.store.Close()
	return ErrComponent(component, err)
}

// Register adds a resource definition.
func (s *Syncer) Register(res cache.Resource) error {
	return s.store.Register(res)
}

// Subscribe returns a handle on (resource, params). Close the handle when
// the view goes away.
func (s *Syncer) Subscribe(resource string, params cache.Params, opts ...registry.Option) (*registry.Handle, error) {
	return s.reg.Use(cache.NewKey(resource, params), opts...)
}

// Mutate runs fn and, on success, invalidates patterns.
func (s *Syncer) Mutate(ctx context.Context, fn mutation.Func, patterns ...cache.Pattern) (any, error) {
	return s.coord.Mutate(ctx, fn, patterns...)
}

// Apply runs fn with a declared invalidation set.
func (s *Syncer) Apply(ctx context.Context, set mutation.Set, fn mutation.Func) (any, error) {
	return s.coord.Apply(ctx, set, fn)
}

// Coordinator exposes the coordinator for typed mutations via mutation.Do.
func (s *Syncer) Coordinator() *mutation.Coordinator {
	return s.coord
}

// Metrics returns the Prometheus recorder, nil when metrics are disabled.
func (s *Syncer) Metrics() *metrics.Prometheus {
	return s.prom
}

// Start connects the relay and starts maintenance.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if s.relay != nil {
		if err := s.relay.Start(ctx); err != nil {
			return ErrComponent("relay", err)
		}
	}
	if s.cron != nil {
		s.cron.Start()
	}
	s.started = true
	s.log.Info("syncer started",
		zap.Bool("relay", s.relay != nil),
		zap.Bool("maintenance", s.cron != nil),
		zap.Bool("metrics", s.prom != nil),
	)
	return nil
}

// Close shuts everything down in reverse dependency order. It is idempotent.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.reg.Close()
	if s.cron != nil {
		s.cron.Close()
	}
	if s.relay != nil {
		if err := s.relay.Close(); err != nil {
			s.log.Warn("failed to close relay", zap.Error(err))
		}
	}
	s.store.Close()
	s.log.Info("syncer closed")
}
