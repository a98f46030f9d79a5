package cache

import (
	"time"

	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/metrics"
	"github.com/dailyyoga/dashsync/routine"
	"go.uber.org/zap"
)

type pollTimer struct {
	timer    *routine.Timer
	token    uint64
	interval time.Duration
}

// scheduler keeps at most one poll timer per key. All methods are called
// with Store.mu held; fire is invoked from the timer goroutine without it.
type scheduler struct {
	log     logger.Logger
	metrics metrics.Recorder
	fire    func(key Key, token uint64)

	timers map[string]*pollTimer
	seq    uint64
}

func newScheduler(log logger.Logger, rec metrics.Recorder, fire func(Key, uint64)) *scheduler {
	return &scheduler{
		log:     log,
		metrics: rec,
		fire:    fire,
		timers:  make(map[string]*pollTimer),
	}
}

// arm replaces any timer for key with a new one firing after d.
func (s *scheduler) arm(key Key, d time.Duration) {
	id := key.String()
	s.stop(id)
	s.seq++
	token := s.seq
	s.timers[id] = &pollTimer{
		timer: routine.AfterFunc(s.log, "poll:"+key.Resource(), d, func() {
			s.fire(key, token)
		}),
		token:    token,
		interval: d,
	}
	s.metrics.PollArmed(key.Resource())
	s.log.Debug("poll armed", zap.String("key", id), zap.Duration("interval", d))
}

// cancel stops the timer for key, if any.
func (s *scheduler) cancel(id string) {
	if s.stop(id) {
		s.log.Debug("poll cancelled", zap.String("key", id))
	}
}

func (s *scheduler) stop(id string) bool {
	t, ok := s.timers[id]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.timers, id)
	return true
}

// consume reports whether token is the live timer for id and forgets it.
// A timer that was replaced or cancelled after it started firing is ignored.
func (s *scheduler) consume(id string, token uint64) bool {
	t, ok := s.timers[id]
	if !ok || t.token != token {
		return false
	}
	delete(s.timers, id)
	return true
}

func (s *scheduler) interval(id string) (time.Duration, bool) {
	t, ok := s.timers[id]
	if !ok {
		return 0, false
	}
	return t.interval, true
}

func (s *scheduler) stopAll() {
	for id := range s.timers {
		s.stop(id)
	}
}

// decide evaluates every subscriber's poll policy against data and returns
// the shortest requested interval. Non-positive intervals stop polling.
func decide(log logger.Logger, data any, policies []IntervalFunc) (time.Duration, bool) {
	var (
		best  time.Duration
		armed bool
	)
	for _, fn := range policies {
		var (
			d  time.Duration
			ok bool
		)
		if err := routine.Safe(log, "interval-policy", func() { d, ok = fn(data) }); err != nil {
			continue
		}
		if !ok || d <= 0 {
			continue
		}
		if !armed || d < best {
			best, armed = d, true
		}
	}
	return best, armed
}
