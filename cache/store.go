package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dailyyoga/dashsync/apierr"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/metrics"
	"github.com/dailyyoga/dashsync/routine"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fetchMode selects how ensure treats an existing entry.
type fetchMode int

const (
	// fetchIfStale fetches only absent or stale entries; folds into in-flight fetches.
	fetchIfStale fetchMode = iota
	// fetchFold always fetches unless a fetch is already in flight (poll timers).
	fetchFold
	// fetchSupersede always starts a new generation (manual refetch, invalidation).
	fetchSupersede
)

type entry struct {
	key         Key
	status      Status
	restore     Status // status to return to if the in-flight fetch is abandoned
	data        any
	err         error
	fetchedAt   time.Time
	staleAfter  time.Duration
	generation  uint64
	inflight    uint64 // generation of the in-flight fetch, 0 when none
	invalidated bool
	// invalidatedAt is the store generation at the last invalidation. Only a
	// fetch started after it may clear invalidated.
	invalidatedAt uint64
	subs          map[string]*subscription
	idleSince     time.Time
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:         e.key,
		Status:      e.status,
		Data:        e.data,
		Err:         e.err,
		FetchedAt:   e.fetchedAt,
		StaleAfter:  e.staleAfter,
		Generation:  e.generation,
		Invalidated: e.invalidated,
		Subscribers: len(e.subs),
	}
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics reports store activity to rec.
func WithMetrics(rec metrics.Recorder) Option {
	return func(s *Store) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithClock replaces time.Now for staleness and eviction decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the single owner of entry state. All entry mutations happen under
// mu; fetches run on their own goroutines and report back through write.
type Store struct {
	log     logger.Logger
	cfg     *Config
	metrics metrics.Recorder
	now     func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry
	resources map[string]*Resource
	closed    bool
	// gen is the last generation handed out. It is store-wide so that an
	// evicted and recreated entry never reuses a generation.
	gen uint64

	exec   *executor
	sched  *scheduler
	disp   *dispatcher
	runner routine.Runner
	cancel context.CancelFunc
}

// New creates a store. A nil cfg uses DefaultConfig; zero fields are merged
// with defaults before validation.
func New(log logger.Logger, cfg *Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		log:       log,
		cfg:       cfg,
		metrics:   metrics.Nop{},
		now:       time.Now,
		entries:   make(map[string]*entry),
		resources: make(map[string]*Resource),
		runner:    routine.New(log),
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.exec = &executor{
		log:     log,
		metrics: s.metrics,
		runner:  s.runner,
		timeout: cfg.FetchTimeout,
		ctx:     ctx,
		write:   s.write,
		current: s.currentGeneration,
	}
	s.sched = newScheduler(log, s.metrics, s.pollFired)
	s.disp = newDispatcher(log, cfg.QueueCapacity)
	return s, nil
}

// Register adds a resource definition. Every key whose resource name equals
// res.Name is fetched with res.Fetch.
func (s *Store) Register(res Resource) error {
	if res.Name == "" {
		return ErrInvalidResource(res.Name, "name is required")
	}
	if res.Fetch == nil {
		return ErrInvalidResource(res.Name, "fetch func is required")
	}
	if res.StaleAfter < 0 {
		return ErrInvalidResource(res.Name, "stale after must be >= 0")
	}
	if res.StaleAfter == 0 {
		res.StaleAfter = s.cfg.StaleAfter
	}
	if res.Retry != nil && (res.Retry.MaxRetries < 0 || res.Retry.Backoff < 0) {
		return ErrInvalidResource(res.Name, "retry policy must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[res.Name]; ok {
		return ErrDuplicateResource(res.Name)
	}
	s.resources[res.Name] = &res
	s.log.Debug("resource registered",
		zap.String("resource", res.Name),
		zap.Duration("stale_after", res.StaleAfter),
		zap.Bool("polled", res.Interval != nil),
	)
	return nil
}

// Get returns the current entry for key without side effects.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.String()]
	if !ok {
		return Entry{Key: key}, false
	}
	return e.snapshot(), true
}

// Ensure returns the current entry for key, creating it if needed, and starts
// a fetch when the entry is absent or stale and no fetch is in flight.
func (s *Store) Ensure(key Key) (Entry, error) {
	return s.ensure(key, fetchIfStale)
}

// Refetch starts a new fetch for key regardless of staleness. A fetch already
// in flight is superseded: whichever fetch started last determines the data.
func (s *Store) Refetch(key Key) (Entry, error) {
	return s.ensure(key, fetchSupersede)
}

func (s *Store) ensure(key Key, mode fetchMode) (Entry, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Entry{Key: key}, ErrStoreClosed
	}
	res, ok := s.resources[key.Resource()]
	if !ok {
		s.mu.Unlock()
		return Entry{Key: key}, ErrUnknownResource(key.Resource())
	}
	e := s.entryLocked(key, res)
	s.beginLocked(e, res, mode)
	snap := e.snapshot()
	s.mu.Unlock()
	return snap, nil
}

func (s *Store) entryLocked(key Key, res *Resource) *entry {
	id := key.String()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{
			key:        key,
			status:     StatusIdle,
			staleAfter: res.StaleAfter,
			subs:       make(map[string]*subscription),
			idleSince:  s.now(),
		}
		s.entries[id] = e
	}
	return e
}

// beginLocked decides whether a fetch must start for e and, if so, assigns
// it the next generation, marks the entry fetching and launches the fetch.
// Launching under the lock keeps Close from racing with new fetch goroutines.
func (s *Store) beginLocked(e *entry, res *Resource, mode fetchMode) bool {
	if e.inflight != 0 && mode != fetchSupersede {
		s.metrics.FetchDeduped(e.key.Resource())
		return false
	}
	if mode == fetchIfStale && !e.snapshot().Stale(s.now()) {
		return false
	}

	if e.inflight != 0 {
		s.log.Debug("superseding in-flight fetch",
			zap.String("key", e.key.String()),
			zap.Uint64("generation", e.inflight),
		)
	} else {
		e.restore = e.status
	}
	s.gen++
	e.generation = s.gen
	e.inflight = e.generation
	e.status = StatusFetching
	s.notifyLocked(e)

	retry := s.cfg.retryPolicy()
	if res.Retry != nil {
		retry = *res.Retry
	}
	s.exec.execute(e.key, e.generation, res, retry)
	return true
}

func (s *Store) currentGeneration(key Key) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key.String()]; ok {
		return e.generation
	}
	return 0
}

// write records the outcome of the fetch tagged generation. A response whose
// generation is not the entry's latest is discarded: the newest fetch wins,
// not the newest response.
func (s *Store) write(key Key, generation uint64, data any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	id := key.String()
	e, ok := s.entries[id]
	if !ok || generation != e.generation {
		s.metrics.ResponseDiscarded(key.Resource())
		s.log.Debug("discarding superseded response",
			zap.String("key", id),
			zap.Error(&apierr.CancelledError{Generation: generation}),
		)
		return
	}
	e.inflight = 0

	switch {
	case err == nil:
		e.status = StatusSuccess
		e.data = data
		e.err = nil
		e.fetchedAt = s.now()
		if generation > e.invalidatedAt {
			e.invalidated = false
		}
	case apierr.IsAuth(err), apierr.IsCancelled(err):
		// Handled at the transport boundary, or abandoned: not an entry error.
		e.status = e.restore
		s.log.Debug("fetch abandoned", zap.String("key", id), zap.Error(err))
	default:
		e.status = StatusError
		e.err = err
		s.metrics.FetchFailed(key.Resource())
		s.log.Warn("fetch failed", zap.String("key", id), zap.Error(err))
	}
	s.notifyLocked(e)

	if e.status == StatusSuccess {
		s.scheduleLocked(e)
	} else {
		s.sched.cancel(id)
	}
}

// scheduleLocked arms or cancels the poll timer of e from its current data.
func (s *Store) scheduleLocked(e *entry) {
	id := e.key.String()
	if len(e.subs) == 0 || e.status != StatusSuccess {
		s.sched.cancel(id)
		return
	}
	res := s.resources[e.key.Resource()]
	policies := make([]IntervalFunc, 0, len(e.subs))
	for _, sub := range e.subs {
		switch {
		case sub.interval != nil:
			policies = append(policies, sub.interval)
		case res != nil && res.Interval != nil:
			policies = append(policies, res.Interval)
		}
	}
	d, ok := decide(s.log, e.data, policies)
	if !ok {
		s.sched.cancel(id)
		return
	}
	s.sched.arm(e.key, d)
}

// pollFired runs on the timer goroutine. The poll is a forced fetch that
// folds into any fetch already in flight.
func (s *Store) pollFired(key Key, token uint64) {
	s.mu.Lock()
	id := key.String()
	if s.closed || !s.sched.consume(id, token) {
		s.mu.Unlock()
		return
	}
	e, ok := s.entries[id]
	res := s.resources[key.Resource()]
	if !ok || res == nil || len(e.subs) == 0 {
		s.mu.Unlock()
		return
	}
	s.beginLocked(e, res, fetchFold)
	s.mu.Unlock()
}

func (s *Store) notifyLocked(e *entry) {
	if len(e.subs) == 0 {
		return
	}
	snap := e.snapshot()
	for _, sub := range e.subs {
		s.disp.enqueue(sub, snap)
	}
}

// Subscribe registers cb for key. cb receives the current entry first (an
// idle entry when nothing is cached yet), then every subsequent change. The
// key is fetched if absent or stale. The returned function unsubscribes; it
// is safe to call more than once.
func (s *Store) Subscribe(key Key, cb Callback, opts ...SubscribeOption) (func(), error) {
	if cb == nil {
		return nil, ErrNilCallback
	}
	sub := &subscription{
		id:       uuid.NewString(),
		key:      key,
		callback: cb,
	}
	for _, opt := range opts {
		opt(sub)
	}
	sub.active.Store(true)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	res, ok := s.resources[key.Resource()]
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnknownResource(key.Resource())
	}
	e := s.entryLocked(key, res)
	e.subs[sub.id] = sub
	s.disp.enqueue(sub, e.snapshot())

	if started := s.beginLocked(e, res, fetchIfStale); !started && e.inflight == 0 {
		if _, armed := s.sched.interval(key.String()); !armed {
			// Fresh data cached while nobody was watching may still describe a
			// running job; resume polling from it.
			s.scheduleLocked(e)
		}
	}
	s.mu.Unlock()

	s.log.Debug("subscribed", zap.String("key", key.String()), zap.String("subscription", sub.id))

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(sub) })
	}, nil
}

// unsubscribe removes sub. Removing the last subscriber cancels the poll
// timer but leaves any in-flight fetch running; its result stays cached.
func (s *Store) unsubscribe(sub *subscription) {
	sub.active.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := sub.key.String()
	e, ok := s.entries[id]
	if !ok {
		return
	}
	delete(e.subs, sub.id)
	if len(e.subs) == 0 {
		e.idleSince = s.now()
		s.sched.cancel(id)
	}
	s.log.Debug("unsubscribed", zap.String("key", id), zap.String("subscription", sub.id))
}

// invalidate marks every entry matching any pattern stale and starts one
// superseding fetch per matched key that has subscribers. It returns the
// matched keys.
func (s *Store) invalidate(patterns []Pattern) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	var matched []Key
	for _, e := range s.entries {
		if !matchesAny(patterns, e.key) {
			continue
		}
		matched = append(matched, e.key)
		e.invalidated = true
		e.invalidatedAt = s.gen
		s.metrics.Invalidated(e.key.Resource())
		if len(e.subs) == 0 {
			continue
		}
		s.beginLocked(e, s.resources[e.key.Resource()], fetchSupersede)
	}
	return matched
}

func matchesAny(patterns []Pattern, k Key) bool {
	for _, p := range patterns {
		if p.Matches(k) {
			return true
		}
	}
	return false
}

// Sweep evicts entries that have had no subscribers for at least the
// configured grace period and have no fetch in flight. It returns the number
// of evicted entries.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.entries {
		if len(e.subs) > 0 || e.inflight != 0 {
			continue
		}
		if now.Sub(e.idleSince) < s.cfg.EvictionGrace {
			continue
		}
		s.sched.cancel(id)
		delete(s.entries, id)
		s.metrics.Evicted(e.key.Resource())
		n++
	}
	if n > 0 {
		s.log.Debug("evicted idle entries", zap.Int("count", n), zap.Int("remaining", len(s.entries)))
	}
	return n
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// PollInterval returns the interval of the poll timer armed for key.
func (s *Store) PollInterval(key Key) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.interval(key.String())
}

// InFlight reports whether a fetch is in flight for key.
func (s *Store) InFlight(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.String()]
	return ok && e.inflight != 0
}

// Close stops poll timers, aborts in-flight fetches, delivers queued
// notifications and waits for fetch goroutines to exit. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.sched.stopAll()
	s.mu.Unlock()

	s.cancel()
	s.runner.Wait()
	s.disp.close()
	s.log.Info("cache store closed")
}
