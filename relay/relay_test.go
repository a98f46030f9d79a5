package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/redis/go-redis/v9"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, _ := logger.New(&logger.Config{Level: "debug", Encoding: "console"})
	return log
}

type node struct {
	store   *cache.Store
	bus     *cache.Bus
	relay   *Relay
	fetches atomic.Int32
}

// newNode builds one dashboard process: a store with a "comments" resource,
// its bus and a started relay.
func newNode(t *testing.T, addr string) *node {
	t.Helper()
	n := &node{}
	store, err := cache.New(testLogger(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(store.Close)
	store.Register(cache.Resource{Name: "comments", Fetch: func(context.Context, cache.Params) (any, error) {
		return n.fetches.Add(1), nil
	}})
	n.store = store
	n.bus = cache.NewBus(testLogger(t), store)

	r, err := New(testLogger(t), &Config{Addr: addr, DialTimeout: time.Second}, n.bus)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("failed to start relay: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	n.relay = r
	return n
}

func (n *node) watch(t *testing.T, k cache.Key) {
	t.Helper()
	unsub, err := n.store.Subscribe(k, func(cache.Entry) {})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(unsub)
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

// ============ Config Tests ============

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"empty addr", &Config{Channel: "c"}, true},
		{"negative db", &Config{Addr: "localhost:6379", Channel: "c", DB: -1}, true},
		{"negative pool", &Config{Addr: "localhost:6379", Channel: "c", PoolSize: -1}, true},
		{"negative timeout", &Config{Addr: "localhost:6379", Channel: "c", DialTimeout: -1}, true},
		{"no channel", &Config{Addr: "localhost:6379"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_MergeDefaults(t *testing.T) {
	cfg := (&Config{Addr: "custom:6379"}).MergeDefaults()
	if cfg.Addr != "custom:6379" || cfg.PoolSize != 4 || cfg.Channel != "dashsync:invalidate" {
		t.Errorf("MergeDefaults failed: %+v", cfg)
	}
	opts := cfg.Options()
	if opts.Addr != "custom:6379" || opts.PoolSize != 4 {
		t.Error("Options conversion failed")
	}
}

// ============ Wire format ============

func TestMessage_ExactKeysSurviveTheWire(t *testing.T) {
	k := cache.NewKey("account-login", cache.Params{"id": "a1", "attempt": 2})
	payload, err := encode("origin-1", []cache.Pattern{cache.ByResource("accounts"), cache.ByKey(k)})
	if err != nil {
		t.Fatal(err)
	}
	origin, patterns, err := decode(payload)
	if err != nil {
		t.Fatal(err)
	}
	if origin != "origin-1" || len(patterns) != 2 {
		t.Fatalf("unexpected decode %s %v", origin, patterns)
	}
	if _, exact := patterns[0].Exact(); exact || patterns[0].Resource() != "accounts" {
		t.Errorf("resource pattern decoded as %s", patterns[0])
	}
	// numbers come back as float64; canonical keys still match
	if !patterns[1].Matches(k) {
		t.Errorf("exact pattern %s no longer matches %s", patterns[1], k)
	}

	if _, _, err := decode([]byte("{nope")); err == nil {
		t.Error("expected decode error")
	}
}

// ============ Relay ============

func TestRelay_MirrorsInvalidationsBetweenProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newNode(t, mr.Addr())
	b := newNode(t, mr.Addr())

	k := cache.NewKey("comments", cache.Params{"page": 1})
	a.watch(t, k)
	b.watch(t, k)
	eventually(t, "initial fetches", func() bool { return a.fetches.Load() == 1 && b.fetches.Load() == 1 })

	a.bus.Invalidate(cache.ByResource("comments"))

	eventually(t, "remote re-fetch", func() bool { return b.fetches.Load() == 2 })
	time.Sleep(50 * time.Millisecond)
	if n := a.fetches.Load(); n != 2 {
		t.Errorf("origin must ignore its own message, got %d fetches", n)
	}
	if n := b.fetches.Load(); n != 2 {
		t.Errorf("remote invalidation must not echo back, got %d fetches", n)
	}
}

func TestRelay_IgnoresForeignGarbage(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newNode(t, mr.Addr())
	k := cache.NewKey("comments", nil)
	a.watch(t, k)
	eventually(t, "initial fetch", func() bool { return a.fetches.Load() == 1 })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()
	client.Publish(ctx, "dashsync:invalidate", "not json")
	client.Publish(ctx, "dashsync:invalidate", `{"origin":"","patterns":[{"resource":"comments"}]}`)
	client.Publish(ctx, "dashsync:invalidate", `{"origin":"ops-script","patterns":[{"resource":"comments"}]}`)

	eventually(t, "well-formed remote invalidation applied", func() bool { return a.fetches.Load() == 2 })
	time.Sleep(50 * time.Millisecond)
	if n := a.fetches.Load(); n != 2 {
		t.Errorf("expected only the well-formed message to apply, got %d fetches", n)
	}
}

func TestRelay_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	store, _ := cache.New(logger.NewNop(), nil)
	defer store.Close()
	bus := cache.NewBus(logger.NewNop(), store)

	r, err := New(logger.NewNop(), &Config{Addr: mr.Addr()}, bus)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// a bus listener left behind by a closed relay is inert
	bus.Invalidate(cache.ByResource("comments"))
}

func TestRelay_StartFailsWithoutRedis(t *testing.T) {
	r, err := New(logger.NewNop(), &Config{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond}, cache.NewBus(logger.NewNop(), nil))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Start(ctx); err == nil {
		t.Error("expected subscribe error")
	}
}
