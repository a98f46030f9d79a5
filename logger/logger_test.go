package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"upper case level", &Config{Level: "DEBUG", Encoding: "console"}, false},
		{"invalid level", &Config{Level: "verbose", Encoding: "json"}, true},
		{"panic level not allowed", &Config{Level: "panic", Encoding: "json"}, true},
		{"invalid encoding", &Config{Level: "info", Encoding: "xml"}, true},
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
	cfg := (&Config{Level: "debug"}).MergeDefaults()
	if cfg.Level != "debug" || cfg.Encoding != "json" || cfg.Name != "dashsync" {
		t.Errorf("unexpected merge result %+v", cfg)
	}
	if len(cfg.OutputPaths) != 1 || cfg.OutputPaths[0] != "stdout" {
		t.Errorf("unexpected output paths %v", cfg.OutputPaths)
	}
}

func TestNew_NilConfig(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) failed: %v", err)
	}
	l.Info("test")
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(&Config{Level: "invalid"}); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New(&Config{Encoding: "invalid"}); err == nil {
		t.Error("expected error for invalid encoding")
	}
}

func TestNew_NameAndFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l, err := New(&Config{
		Level:       "debug",
		Name:        "watch",
		Fields:      map[string]string{"instance": "ops-1"},
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatal(err)
	}
	Named(l, "cache").Debug("entry written", zap.String("key", "comments?{}"))
	l.Sync()

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(out)
	for _, want := range []string{`"logger":"watch.cache"`, `"instance":"ops-1"`, `"key":"comments?{}"`, `"level":"debug"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %s missing %s", line, want)
		}
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded")
	if err := l.Sync(); err != nil {
		t.Errorf("nop Sync returned error: %v", err)
	}
}

func TestNamedAndWith(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	l := With(Named(zap.New(core), "cache"), zap.String("resource", "comments"))
	l.Info("hello")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "cache" {
		t.Errorf("expected logger name 'cache', got %q", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["resource"] != "comments" {
		t.Errorf("missing context field: %v", entries[0].ContextMap())
	}

	// non-zap loggers are returned unchanged
	var custom Logger = &countingLogger{}
	if Named(custom, "x") != custom || With(custom, zap.Int("n", 1)) != custom {
		t.Error("non-zap loggers should be returned unchanged")
	}
}

type countingLogger struct{ n int }

func (c *countingLogger) Debug(string, ...zap.Field) { c.n++ }
func (c *countingLogger) Info(string, ...zap.Field)  { c.n++ }
func (c *countingLogger) Warn(string, ...zap.Field)  { c.n++ }
func (c *countingLogger) Error(string, ...zap.Field) { c.n++ }
func (c *countingLogger) Sync() error                { return nil }
