package dataloader

import (
	"context"
	"time"
)

// Logger captures structured log output. Arguments are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsRecorder observes every executed batch.
type MetricsRecorder interface {
	ObserveBatch(ctx context.Context, entity string, keys int, success bool, duration time.Duration)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) ObserveBatch(context.Context, string, int, bool, time.Duration) {}

type options struct {
	logger  Logger
	metrics MetricsRecorder
}

// Option configures a Loader.
type Option func(*options)

// WithLogger sets the logger used for batch diagnostics.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the recorder notified after every batch.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}
