package cache

import (
	"sync"

	"github.com/dailyyoga/dashsync/logger"
	"go.uber.org/zap"
)

// Listener observes invalidations. origin is empty for invalidations raised
// in this process and carries the sender's id for relayed ones.
type Listener func(origin string, patterns []Pattern)

// Bus marks entries stale by pattern. Bookkeeping is synchronous; re-fetches
// of subscribed keys run on the normal fetch path, so data is not yet updated
// when Invalidate returns.
type Bus struct {
	log   logger.Logger
	store *Store

	mu        sync.RWMutex
	listeners []Listener
}

// NewBus creates a bus operating on store.
func NewBus(log logger.Logger, store *Store) *Bus {
	return &Bus{
		log:   log,
		store: store,
	}
}

// Invalidate marks every key matching any pattern stale and re-fetches the
// subscribed ones. A key matched by several patterns is fetched once. It
// returns the number of matched keys.
func (b *Bus) Invalidate(patterns ...Pattern) int {
	return b.InvalidateFrom("", patterns...)
}

// InvalidateFrom is Invalidate on behalf of origin. Listeners see origin and
// can skip re-broadcasting invalidations that came from elsewhere.
func (b *Bus) InvalidateFrom(origin string, patterns ...Pattern) int {
	if len(patterns) == 0 {
		return 0
	}
	matched := b.store.invalidate(patterns)

	fields := make([]string, len(patterns))
	for i, p := range patterns {
		fields[i] = p.String()
	}
	b.log.Debug("invalidated",
		zap.Strings("patterns", fields),
		zap.Int("matched", len(matched)),
		zap.String("origin", origin),
	)

	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.RUnlock()
	for _, l := range listeners {
		l(origin, patterns)
	}
	return len(matched)
}

// OnInvalidate registers a listener called after every invalidation.
func (b *Bus) OnInvalidate(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}
