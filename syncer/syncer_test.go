package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/config"
	"github.com/dailyyoga/dashsync/cron"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/mutation"
	"github.com/dailyyoga/dashsync/registry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type counts struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *counts) fetch(resource string) cache.FetchFunc {
	return func(context.Context, cache.Params) (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.n[resource]++
		return c.n[resource], nil
	}
}

func (c *counts) get(resource string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[resource]
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newSyncer(t *testing.T, cfg *config.Config) (*Syncer, *counts) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
		cfg.Maintenance.Enabled = false
	}
	s, err := New(logger.NewNop(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	c := &counts{n: make(map[string]int)}
	for _, name := range []string{"comments", "comments-stats", "groups"} {
		if err := s.Register(cache.Resource{Name: name, Fetch: c.fetch(name)}); err != nil {
			t.Fatal(err)
		}
	}
	return s, c
}

func TestSyncer_SubscribeDeliversData(t *testing.T) {
	s, _ := newSyncer(t, nil)

	h, err := s.Subscribe("comments", cache.Params{"page": 1})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	select {
	case st := <-h.Changes():
		for st.Loading() {
			st = <-h.Changes()
		}
		if st.Status != cache.StatusSuccess || st.Data != 1 {
			t.Errorf("unexpected state %+v", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no state delivered")
	}

	if _, err := s.Subscribe("unknown", nil); err == nil {
		t.Error("expected error for unregistered resource")
	}
}

func TestSyncer_ApplyRefreshesDeclaredResources(t *testing.T) {
	s, c := newSyncer(t, nil)

	var handles []*registry.Handle
	for _, name := range []string{"comments", "comments-stats", "groups"} {
		h, err := s.Subscribe(name, nil)
		if err != nil {
			t.Fatal(err)
		}
		handles = append(handles, h)
	}
	defer func() {
		for _, h := range handles {
			h.Close()
		}
	}()
	eventually(t, "initial fetches", func() bool {
		return c.get("comments") == 1 && c.get("comments-stats") == 1 && c.get("groups") == 1
	})

	set := mutation.Resources("delete-comment", "comments", "comments-stats")
	out, err := s.Apply(context.Background(), set, func(context.Context) (any, error) { return "deleted", nil })
	if err != nil || out != "deleted" {
		t.Fatalf("Apply = %v, %v", out, err)
	}
	eventually(t, "declared resources re-fetched", func() bool {
		return c.get("comments") == 2 && c.get("comments-stats") == 2
	})
	time.Sleep(20 * time.Millisecond)
	if c.get("groups") != 1 {
		t.Error("undeclared resource must not be re-fetched")
	}

	if _, err := s.Mutate(context.Background(), func(context.Context) (any, error) {
		return nil, errors.New("boom")
	}, cache.ByResource("groups")); err == nil {
		t.Error("expected mutation error")
	}
	time.Sleep(20 * time.Millisecond)
	if c.get("groups") != 1 {
		t.Error("failed mutation must not invalidate")
	}
}

func TestSyncer_Lifecycle(t *testing.T) {
	s, _ := newSyncer(t, nil)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	s.Close()
	s.Close()
	if err := s.Start(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSyncer_MetricsAndMaintenance(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Maintenance.SweepSpec = "@every 1h"
	s, c := newSyncer(t, cfg)
	if s.Metrics() == nil {
		t.Fatal("metrics enabled but no recorder")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	h, _ := s.Subscribe("groups", nil)
	eventually(t, "fetched", func() bool { return c.get("groups") == 1 })
	h.Close()

	families, err := s.Metrics().Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "dashsync_cache_fetches_total" {
			found = true
		}
	}
	if !found {
		t.Error("fetch counter not exported")
	}
}

func TestSyncer_RelayBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	build := func() (*Syncer, *counts) {
		cfg := config.Default()
		cfg.Maintenance.Enabled = false
		cfg.Relay.Enabled = true
		cfg.Relay.Addr = mr.Addr()
		s, c := newSyncer(t, cfg)
		if err := s.Start(context.Background()); err != nil {
			t.Fatal(err)
		}
		return s, c
	}
	a, ca := build()
	b, cb := build()

	ha, _ := a.Subscribe("comments", nil)
	defer ha.Close()
	hb, _ := b.Subscribe("comments", nil)
	defer hb.Close()
	eventually(t, "initial", func() bool { return ca.get("comments") == 1 && cb.get("comments") == 1 })

	if _, err := a.Mutate(context.Background(), func(context.Context) (any, error) { return nil, nil },
		cache.ByResource("comments")); err != nil {
		t.Fatal(err)
	}
	eventually(t, "both instances re-fetched", func() bool {
		return ca.get("comments") == 2 && cb.get("comments") == 2
	})
}

func TestSyncer_NewReleasesRelayWhenMaintenanceFails(t *testing.T) {
	mr := miniredis.RunT(t)
	tests := []struct {
		name string
		cfg  *cron.Config
	}{
		{"invalid sweep schedule", &cron.Config{Enabled: true, SweepSpec: "whenever"}},
		{"duplicate revalidation", &cron.Config{Enabled: true, SweepSpec: "@every 1h", Revalidate: []cron.RevalidateConfig{
			{Spec: "@every 1m", Resources: []string{"comments-stats"}},
			{Spec: "@every 5m", Resources: []string{"comments-stats"}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			cfg := config.Default()
			cfg.Relay.Enabled = true
			cfg.Relay.Addr = mr.Addr()
			cfg.Maintenance = tt.cfg

			s, err := New(zap.New(core), cfg)
			if err == nil {
				s.Close()
				t.Fatal("expected a maintenance error")
			}
			if logs.FilterMessage("invalidation relay closed").Len() != 1 {
				t.Error("relay built before the failure was not closed")
			}
		})
	}
}
