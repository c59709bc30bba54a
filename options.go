package featuregate

import (
	"log/slog"
	"time"
)

type Option func(e *Engine)

var _ = []Option{
	WithBaseURL(""),
	WithEnvironment(EnvProduction),
	WithTimeout(0),
	WithStaleAfter(0),
	WithStorage(nil),
	WithRemoteSource(nil),
	WithOfflineProbe(nil),
	WithTelemetry(nil),
	WithLogger(nil),
	WithRetries(3, 1*time.Second),
	WithCustomHeaders(nil),
}

func WithBaseURL(url string) Option {
	return func(e *Engine) {
		e.config.baseURL = url
	}
}

func WithEnvironment(env EnvironmentTag) Option {
	return func(e *Engine) {
		e.config.environment = env
	}
}

// WithTimeout bounds the remote flag lookup. A timeout is treated like any
// other remote failure, not as an application error.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.config.timeout = timeout
	}
}

// WithStaleAfter sets the age past which a persisted value is reported as
// stale. Stale values are still used.
func WithStaleAfter(age time.Duration) Option {
	return func(e *Engine) {
		e.config.staleAfter = age
	}
}

// WithStorage provides the persistent cache store. Without one the engine
// still works but every restart pays a fresh remote lookup.
func WithStorage(storage Storage) Option {
	return func(e *Engine) {
		e.storage = storage
	}
}

func WithRemoteSource(remote RemoteSource) Option {
	return func(e *Engine) {
		e.remote = remote
	}
}

func WithOfflineProbe(probe OfflineProbe) Option {
	return func(e *Engine) {
		e.probe = probe
	}
}

func WithTelemetry(recorder Recorder) Option {
	return func(e *Engine) {
		e.telemetry = recorder
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func WithRetries(count int, waitTime time.Duration) Option {
	return func(e *Engine) {
		e.client.SetRetryCount(count)
		e.client.SetRetryWaitTime(waitTime)
	}
}

func WithCustomHeaders(headers map[string]string) Option {
	return func(e *Engine) {
		e.client.SetHeaders(headers)
	}
}
