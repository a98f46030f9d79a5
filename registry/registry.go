// Package registry gives consumers a mount/unmount view of cache keys.
//
// A Handle is what a view holds while it is visible: the latest state of one
// key, a manual refetch, and the ability to switch to a different key (a new
// page, a new filter) without leaking the old subscription.
package registry

import (
	"sync"
	"time"

	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/logger"
	"go.uber.org/zap"
)

// Source is the part of the cache store a registry subscribes through.
type Source interface {
	Subscribe(key cache.Key, cb cache.Callback, opts ...cache.SubscribeOption) (func(), error)
	Refetch(key cache.Key) (cache.Entry, error)
}

// State is what a consumer renders.
type State struct {
	Key       cache.Key
	Status    cache.Status
	Data      any
	Err       error
	FetchedAt time.Time
}

// Loading reports whether a fetch is running with nothing to show yet.
func (s State) Loading() bool {
	return s.Data == nil && (s.Status == cache.StatusIdle || s.Status == cache.StatusFetching)
}

func stateOf(e cache.Entry) State {
	return State{
		Key:       e.Key,
		Status:    e.Status,
		Data:      e.Data,
		Err:       e.Err,
		FetchedAt: e.FetchedAt,
	}
}

// Option configures a handle.
type Option func(*options)

type options struct {
	interval cache.IntervalFunc
	onChange func(State)
}

// WithInterval overrides the resource's poll policy for this handle.
func WithInterval(fn cache.IntervalFunc) Option {
	return func(o *options) {
		o.interval = fn
	}
}

// WithOnChange calls fn with every new state, on the store's dispatcher
// goroutine.
func WithOnChange(fn func(State)) Option {
	return func(o *options) {
		o.onChange = fn
	}
}

// Registry tracks the live handles created through it.
type Registry struct {
	log    logger.Logger
	source Source

	mu      sync.Mutex
	handles map[*Handle]struct{}
	closed  bool
}

// New creates a registry subscribing through source.
func New(log logger.Logger, source Source) *Registry {
	return &Registry{
		log:     log,
		source:  source,
		handles: make(map[*Handle]struct{}),
	}
}

// Use subscribes to key and returns the handle that owns the subscription.
// The handle starts in the idle state and receives the cached entry shortly
// after.
func (r *Registry) Use(key cache.Key, opts ...Option) (*Handle, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	h := &Handle{
		registry: r,
		opts:     o,
		key:      key,
		state:    State{Key: key, Status: cache.StatusIdle},
		changes:  make(chan State, 1),
	}
	r.handles[h] = struct{}{}
	r.mu.Unlock()

	if err := h.subscribe(key); err != nil {
		r.release(h)
		return nil, err
	}
	return h, nil
}

// Len returns the number of open handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Close closes every open handle and rejects further Use calls.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	handles := make([]*Handle, 0, len(r.handles))
	for h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}
	if len(handles) > 0 {
		r.log.Debug("registry closed", zap.Int("handles", len(handles)))
	}
}

func (r *Registry) release(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, h)
}
