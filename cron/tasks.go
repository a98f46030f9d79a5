package cron

import (
	"context"
	"strings"

	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/logger"
	"go.uber.org/zap"
)

// EvictedKey is the Shared key under which SweepTask stores its count.
const EvictedKey = "evicted"

// Sweeper evicts idle cache entries.
type Sweeper interface {
	Sweep() int
	Len() int
}

// Invalidator marks cache keys stale.
type Invalidator interface {
	Invalidate(patterns ...cache.Pattern) int
}

// SweepTask evicts entries without subscribers whose grace period elapsed.
func SweepTask(s Sweeper) Task {
	return TaskFunc("sweep", func(ctx context.Context) error {
		n := s.Sweep()
		if shared := SharedFrom(ctx); shared != nil {
			shared.Set(EvictedKey, n)
		}
		return nil
	})
}

// ReportTask logs the cache size and, when it follows a SweepTask in the
// same chain, the number of evicted entries.
func ReportTask(log logger.Logger, s Sweeper) Task {
	return TaskFunc("report", func(ctx context.Context) error {
		evicted, _ := Value[int](ctx, EvictedKey)
		if evicted > 0 {
			log.Info("cache swept", zap.Int("evicted", evicted), zap.Int("entries", s.Len()))
		}
		return nil
	})
}

// RevalidateTask invalidates patterns on every run, re-fetching subscribed
// keys of resources that change on the server without a local mutation.
func RevalidateTask(name string, inv Invalidator, patterns ...cache.Pattern) Task {
	return TaskFunc(name, func(context.Context) error {
		inv.Invalidate(patterns...)
		return nil
	})
}

// Schedule registers the maintenance chains described by cfg: one sweep
// chain and one chain per revalidate entry.
func Schedule(c Cron, cfg *Config, log logger.Logger, s Sweeper, inv Invalidator) error {
	if !cfg.Enabled {
		return nil
	}
	if err := c.AddTasks("cache-sweep", cfg.SweepSpec, SweepTask(s), ReportTask(log, s)); err != nil {
		return err
	}
	for _, r := range cfg.Revalidate {
		patterns := make([]cache.Pattern, len(r.Resources))
		for i, name := range r.Resources {
			patterns[i] = cache.ByResource(name)
		}
		name := "revalidate:" + strings.Join(r.Resources, ",")
		if err := c.AddTasks(name, r.Spec, RevalidateTask("invalidate", inv, patterns...)); err != nil {
			return err
		}
	}
	return nil
}
