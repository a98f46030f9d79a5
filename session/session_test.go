package session

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dailyyoga/dashsync/logger"
)

func TestState_TokenLifecycle(t *testing.T) {
	s := New(logger.NewNop(), "")
	if s.Valid() {
		t.Error("empty token should start invalid")
	}

	s.SetToken("abc")
	if !s.Valid() || s.Token() != "abc" {
		t.Errorf("expected valid session with token abc, got valid=%v token=%q", s.Valid(), s.Token())
	}

	if !s.Invalidate("401") {
		t.Error("first Invalidate should transition")
	}
	if s.Valid() || s.Token() != "" {
		t.Error("Invalidate should clear the credential")
	}
}

func TestState_InvalidateFiresOncePerTransition(t *testing.T) {
	s := New(logger.NewNop(), "tok")

	var calls atomic.Int32
	var gotReason atomic.Value
	s.OnInvalidate(func(reason string) {
		calls.Add(1)
		gotReason.Store(reason)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Invalidate("unauthorized")
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 listener call, got %d", calls.Load())
	}
	if gotReason.Load() != "unauthorized" {
		t.Errorf("unexpected reason %v", gotReason.Load())
	}

	s.SetToken("new")
	s.Invalidate("again")
	if calls.Load() != 2 {
		t.Errorf("expected a second transition after re-login, got %d calls", calls.Load())
	}
}
