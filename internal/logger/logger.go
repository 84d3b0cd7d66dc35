// Package logger wraps zap with the settings used across the service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap logger
type Logger struct {
	*zap.Logger
}

// New builds the service logger.  "dev" gets zap's console encoder at debug
// level; every other environment logs JSON at info.
func New(env string) *Logger {
	l, err := configFor(env).Build()
	if err != nil {
		panic(err)
	}
	return &Logger{Logger: l}
}

func configFor(env string) zap.Config {
	config := zap.NewProductionConfig()
	if env == "dev" {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.StacktraceKey = ""
	return config
}

// Nop returns a logger that discards everything.  Used by tests.
func Nop() *Logger { return &Logger{Logger: zap.NewNop()} }

// With creates a child logger and adds structured context to it
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Named returns a child logger for a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}
