package cron

import (
	"context"
	"sync"
)

type contextKey string

const sharedKey contextKey = "cron:shared"

// Shared carries values between the tasks of one chain run, e.g. the number
// of entries a sweep evicted for a later report task.
type Shared struct {
	mu     sync.Mutex
	values map[string]any
}

func withShared(ctx context.Context, s *Shared) context.Context {
	return context.WithValue(ctx, sharedKey, s)
}

// SharedFrom returns the chain's Shared value, nil outside a chain run.
func SharedFrom(ctx context.Context) *Shared {
	s, _ := ctx.Value(sharedKey).(*Shared)
	return s
}

// Set stores value under key.
func (s *Shared) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
}

// Get returns the value stored under key.
func (s *Shared) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Value returns the value under key from ctx's Shared as a T.
func Value[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	s := SharedFrom(ctx)
	if s == nil {
		return zero, false
	}
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
