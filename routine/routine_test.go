package routine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dailyyoga/dashsync/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.ErrorLevel)
	return zap.New(core), logs
}

func TestRunner_WaitCoversEveryGoroutine(t *testing.T) {
	log, logs := observed()
	r := New(log)

	var done atomic.Int32
	for i := 0; i < 50; i++ {
		r.GoNamed("fetch:comments", func() {
			time.Sleep(time.Millisecond)
			done.Add(1)
		})
	}
	r.GoNamed("fetch:accounts", func() { panic("decode failed") })
	r.Wait()

	if n := done.Load(); n != 50 {
		t.Errorf("Wait returned with %d of 50 goroutines finished", n)
	}
	entries := logs.FilterMessage("goroutine panicked").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 panic log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["routine"]; got != "fetch:accounts" {
		t.Errorf("panic log names routine %v", got)
	}
}

func TestRunner_GoNamedWithContext(t *testing.T) {
	log, _ := observed()
	r := New(log)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	r.GoNamedWithContext(ctx, "relay-listen", func(ctx context.Context) {
		<-ctx.Done()
		stopped <- ctx.Err()
	})
	cancel()
	r.Wait()

	if err := <-stopped; !errors.Is(err, context.Canceled) {
		t.Errorf("listener saw %v, want context.Canceled", err)
	}
}

func TestGoNamed(t *testing.T) {
	log, logs := observed()

	done := make(chan struct{})
	GoNamed(log, "metrics-server", func() {
		defer close(done)
		panic("listen failed")
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}

	deadline := time.After(time.Second)
	for logs.FilterMessage("goroutine panicked").Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("panic was not logged")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSafe(t *testing.T) {
	tests := []struct {
		name    string
		fn      func()
		wantErr bool
	}{
		{"returns", func() {}, false},
		{"panics with string", func() { panic("callback panic") }, true},
		{"panics with error", func() { panic(errors.New("boom")) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, logs := observed()
			err := Safe(log, "subscriber", tt.fn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Safe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrPanicRecovered) {
				t.Errorf("expected ErrPanicRecovered, got %v", err)
			}
			want := 0
			if tt.wantErr {
				want = 1
			}
			if got := logs.Len(); got != want {
				t.Errorf("expected %d panic logs, got %d", want, got)
			}
		})
	}
}

func TestErrPanic(t *testing.T) {
	if got := ErrPanic("nil map").Error(); got != "routine: panic recovered: nil map" {
		t.Errorf("ErrPanic() = %q", got)
	}
}

func TestAfterFunc(t *testing.T) {
	log, logs := observed()

	fired := make(chan struct{})
	AfterFunc(log, "poll:scan-tasks", 10*time.Millisecond, func() {
		defer close(fired)
		panic("policy panic")
	})
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	var late atomic.Bool
	timer := AfterFunc(log, "poll:comments", 50*time.Millisecond, func() { late.Store(true) })
	if !timer.Stop() {
		t.Error("Stop should report the timer was armed")
	}
	time.Sleep(100 * time.Millisecond)
	if late.Load() {
		t.Error("stopped timer fired")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	if (*Timer)(nil).Stop() {
		t.Error("nil timer Stop should report false")
	}
	if logs.FilterMessage("goroutine panicked").Len() != 1 {
		t.Errorf("expected the timer panic to be logged once, got %d", logs.Len())
	}
}
