// Package logger provides the structured logging interface used by every
// dashsync component, backed by zap.
//
// Components accept a Logger rather than *zap.Logger so tests can pass NewNop
// or an observer-backed logger.
package logger

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface for logging operations
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
}

// New builds a zap-backed Logger. A nil cfg uses DefaultConfig; zero fields
// of a given cfg take their defaults.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		return nil, ErrInvalidLevel(cfg.Level)
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Encoding == "console",
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig(),
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}
	l, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, ErrBuildLogger(err)
	}
	return l.Named(cfg.Name).With(staticFields(cfg.Fields)...), nil
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return zap.NewNop()
}

// Named returns a child logger tagged with a component name when l is backed
// by zap, and l itself otherwise.
func Named(l Logger, name string) Logger {
	if zl, ok := l.(*zap.Logger); ok {
		return zl.Named(name)
	}
	return l
}

// With returns a child logger carrying fields when l is backed by zap, and l
// itself otherwise.
func With(l Logger, fields ...zap.Field) Logger {
	if zl, ok := l.(*zap.Logger); ok {
		return zl.With(fields...)
	}
	return l
}

// staticFields turns configured fields into zap fields in key order.
func staticFields(m map[string]string) []zap.Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, len(keys))
	for i, k := range keys {
		fields[i] = zap.String(k, m[k])
	}
	return fields
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
