package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"disabled empty", &Config{}, false},
		{"enabled with namespace", &Config{Enabled: true, Namespace: "x"}, false},
		{"enabled without namespace", &Config{Enabled: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrometheus_Counters(t *testing.T) {
	p, err := NewPrometheus(nil)
	if err != nil {
		t.Fatalf("NewPrometheus failed: %v", err)
	}

	p.FetchStarted("comments")
	p.FetchStarted("comments")
	p.FetchDeduped("comments")
	p.ResponseDiscarded("scan-tasks")
	p.Mutation("ok")

	if v := testutil.ToFloat64(p.fetches.WithLabelValues("comments")); v != 2 {
		t.Errorf("expected 2 fetches, got %v", v)
	}
	if v := testutil.ToFloat64(p.deduped.WithLabelValues("comments")); v != 1 {
		t.Errorf("expected 1 dedupe, got %v", v)
	}
	if v := testutil.ToFloat64(p.discarded.WithLabelValues("scan-tasks")); v != 1 {
		t.Errorf("expected 1 discard, got %v", v)
	}
	if v := testutil.ToFloat64(p.mutations.WithLabelValues("ok")); v != 1 {
		t.Errorf("expected 1 mutation, got %v", v)
	}
}

func TestPrometheus_Handler(t *testing.T) {
	p, err := NewPrometheus(&Config{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewPrometheus failed: %v", err)
	}
	p.Invalidated("groups")

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `test_cache_invalidations_total{resource="groups"} 1`) {
		t.Errorf("exposition missing invalidation counter:\n%s", body)
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.FetchStarted("x")
	r.Mutation("ok")
}
