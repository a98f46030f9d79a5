package registry

import (
	"sync"

	"github.com/dailyyoga/dashsync/cache"
	"go.uber.org/zap"
)

// Handle is one consumer's live view of a key.
type Handle struct {
	registry *Registry
	opts     options

	mu      sync.Mutex
	key     cache.Key
	state   State
	unsub   func()
	closed  bool
	changes chan State

	// seq numbers subscriptions. Callbacks of active update the state; those
	// of the newest pending one are held in pending until it is installed.
	seq     uint64
	active  uint64
	pending *State
}

// Key returns the key the handle currently watches.
func (h *Handle) Key() cache.Key {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.key
}

// State returns the latest state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Changes delivers state changes. Slow readers only see the most recent
// state; the channel is closed by Close.
func (h *Handle) Changes() <-chan State {
	return h.changes
}

// Refetch re-fetches the current key regardless of staleness. It may race a
// poll of the same key; whichever fetch started last determines the data.
func (h *Handle) Refetch() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHandleClosed
	}
	key := h.key
	h.mu.Unlock()

	_, err := h.registry.source.Refetch(key)
	return err
}

// SetKey switches the handle to key. Keys that are canonically equal to the
// current one (same resource, same parameters in any order) are a no-op.
// If key cannot be subscribed the handle keeps watching the old key.
func (h *Handle) SetKey(key cache.Key) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHandleClosed
	}
	if h.key.Equal(key) {
		h.mu.Unlock()
		return nil
	}
	old := h.key
	h.mu.Unlock()

	if err := h.subscribe(key); err != nil {
		return err
	}
	h.registry.log.Debug("handle switched key",
		zap.String("from", old.String()),
		zap.String("to", key.String()),
	)
	return nil
}

// Close unsubscribes. It is safe to call more than once.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.pending = nil
	unsub := h.unsub
	h.unsub = nil
	close(h.changes)
	h.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	h.registry.release(h)
}

// subscribe subscribes to key and, once that succeeded, drops the previous
// subscription. On error the previous subscription stays in place.
func (h *Handle) subscribe(key cache.Key) error {
	h.mu.Lock()
	h.seq++
	token := h.seq
	h.pending = nil
	h.mu.Unlock()

	var subOpts []cache.SubscribeOption
	if h.opts.interval != nil {
		subOpts = append(subOpts, cache.WithInterval(h.opts.interval))
	}
	unsub, err := h.registry.source.Subscribe(key, func(e cache.Entry) {
		h.deliver(token, e)
	}, subOpts...)
	if err != nil {
		return ErrSubscribe(key.String(), err)
	}

	h.mu.Lock()
	if h.closed || h.seq != token {
		// closed or switched again while subscribing
		h.mu.Unlock()
		unsub()
		return nil
	}
	prev := h.unsub
	h.unsub = unsub
	h.key = key
	h.active = token
	st, held := State{Key: key, Status: cache.StatusIdle}, h.pending != nil
	if held {
		st = *h.pending
		h.pending = nil
		h.publishLocked(st)
	} else {
		h.state = st
	}
	h.mu.Unlock()

	if prev != nil {
		prev()
	}
	if held && h.opts.onChange != nil {
		h.opts.onChange(st)
	}
	return nil
}

func (h *Handle) deliver(token uint64, e cache.Entry) {
	st := stateOf(e)

	h.mu.Lock()
	switch {
	case h.closed:
		h.mu.Unlock()
		return
	case token == h.active:
		h.publishLocked(st)
	case token == h.seq:
		h.pending = &st
		h.mu.Unlock()
		return
	default:
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	if h.opts.onChange != nil {
		h.opts.onChange(st)
	}
}

// publishLocked records st and offers it on the changes channel, replacing
// an unread state.
func (h *Handle) publishLocked(st State) {
	h.state = st
	select {
	case h.changes <- st:
	default:
		select {
		case <-h.changes:
		default:
		}
		h.changes <- st
	}
}
