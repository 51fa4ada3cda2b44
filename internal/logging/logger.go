package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Logger is the structured logger every component receives.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
}

type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps an existing sugared logger.
func NewZapLogger(s *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{s: s}
}

// New builds a JSON logger for production and a console logger otherwise.
func New(level, env string) (*ZapLogger, error) {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl

	base, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return NewZapLogger(base.Sugar()), nil
}

// Nop discards everything. Used in tests.
func Nop() *ZapLogger {
	return NewZapLogger(zap.NewNop().Sugar())
}

func (l *ZapLogger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l *ZapLogger) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l *ZapLogger) Warnf(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l *ZapLogger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }
func (l *ZapLogger) Infow(msg string, kv ...interface{})       { l.s.Infow(msg, kv...) }
func (l *ZapLogger) Warnw(msg string, kv ...interface{})       { l.s.Warnw(msg, kv...) }
func (l *ZapLogger) Errorw(msg string, kv ...interface{})      { l.s.Errorw(msg, kv...) }

func (l *ZapLogger) With(kv ...interface{}) Logger {
	return &ZapLogger{s: l.s.With(kv...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error { return l.s.Sync() }
