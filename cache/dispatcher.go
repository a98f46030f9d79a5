package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/routine"
	"github.com/smallnest/chanx"
	"go.uber.org/zap"
)

// subscription is one consumer's interest in a key.
type subscription struct {
	id       string
	key      Key
	callback Callback
	interval IntervalFunc
	active   atomic.Bool
}

type notification struct {
	sub   *subscription
	entry Entry
}

// dispatcher delivers entry snapshots to subscribers on a single goroutine,
// in the order they were enqueued. Callbacks never run under the store lock,
// so they may call back into the Store.
type dispatcher struct {
	log   logger.Logger
	queue *chanx.UnboundedChan[notification]
	wg    sync.WaitGroup
}

func newDispatcher(log logger.Logger, capacity int) *dispatcher {
	d := &dispatcher{
		log: log,
		// Closing In drains the buffer and then closes Out.
		queue: chanx.NewUnboundedChan[notification](context.Background(), capacity),
	}
	d.wg.Add(1)
	routine.GoNamed(log, "cache-dispatcher", d.loop)
	return d
}

// enqueue must be called with Store.mu held so that notifications for one key
// are queued in the same order the entry changed.
func (d *dispatcher) enqueue(sub *subscription, e Entry) {
	d.queue.In <- notification{sub: sub, entry: e}
}

func (d *dispatcher) loop() {
	defer d.wg.Done()
	for n := range d.queue.Out {
		if !n.sub.active.Load() {
			continue
		}
		if err := routine.Safe(d.log, "subscriber", func() { n.sub.callback(n.entry) }); err != nil {
			d.log.Error("subscriber callback failed",
				zap.String("key", n.entry.Key.String()),
				zap.String("subscription", n.sub.id),
				zap.Error(err),
			)
		}
	}
}

// close stops accepting notifications and waits until queued ones are delivered.
func (d *dispatcher) close() {
	close(d.queue.In)
	d.wg.Wait()
}

// pending returns the number of undelivered notifications.
func (d *dispatcher) pending() int {
	return d.queue.Len()
}
