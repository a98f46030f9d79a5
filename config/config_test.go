package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
logger:
  level: debug
  fields: {instance: ops-1}
cache:
  stale_after: 1m
  max_retries: 2
rest:
  base_url: https://admin.example.com/api
  timeout: 5s
maintenance:
  sweep_spec: "@every 10s"
  revalidate:
    - spec: "@every 1m"
      resources: [comments-stats]
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Logger.Level != "debug" || cfg.Logger.Encoding != "json" || cfg.Logger.Fields["instance"] != "ops-1" {
		t.Errorf("logger = %+v", cfg.Logger)
	}
	if cfg.Cache.StaleAfter != time.Minute || cfg.Cache.MaxRetries != 2 || cfg.Cache.FetchTimeout != 30*time.Second {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.REST.BaseURL != "https://admin.example.com/api" || cfg.REST.Timeout != 5*time.Second || cfg.REST.UserAgent != "dashsync" {
		t.Errorf("rest = %+v", cfg.REST)
	}
	if cfg.Relay.Enabled || cfg.Relay.Channel != "dashsync:invalidate" {
		t.Errorf("relay = %+v", cfg.Relay)
	}
	if !cfg.Maintenance.Enabled || cfg.Maintenance.SweepSpec != "@every 10s" || len(cfg.Maintenance.Revalidate) != 1 {
		t.Errorf("maintenance = %+v", cfg.Maintenance)
	}
	if cfg.Session.TokenEnv != "DASHSYNC_TOKEN" {
		t.Errorf("session = %+v", cfg.Session)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "cache: [unclosed"},
		{"bad level", "logger: {level: loud}"},
		{"negative stale", "cache: {stale_after: -1s}"},
		{"bad url", "rest: {base_url: not-a-url}"},
		{"bad spec", "maintenance: {sweep_spec: sometimes}"},
		{"enabled relay with bad db", "relay: {enabled: true, db: -1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParse_NullSectionKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("cache: null\nrelay: ~\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache == nil || cfg.Cache.QueueCapacity != 64 || cfg.Relay == nil {
		t.Errorf("null sections should fall back to defaults: %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	if _, err := Load(""); !errors.Is(err, ErrNoPath) {
		t.Errorf("expected ErrNoPath, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}

	path := filepath.Join(t.TempDir(), "dashsync.yaml")
	if err := os.WriteFile(path, []byte("rest:\n  base_url: http://api.internal\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.REST.BaseURL != "http://api.internal" {
		t.Errorf("base_url = %s", cfg.REST.BaseURL)
	}
}

func TestToken(t *testing.T) {
	cfg := Default()
	cfg.Session.TokenEnv = "DASHSYNC_TEST_TOKEN"
	t.Setenv("DASHSYNC_TEST_TOKEN", "from-env")
	if got := cfg.Token(); got != "from-env" {
		t.Errorf("Token() = %q", got)
	}
	cfg.Session.Token = "inline"
	if got := cfg.Token(); got != "inline" {
		t.Errorf("Token() = %q", got)
	}
}
