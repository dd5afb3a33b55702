package logsink

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	defaultOnce sync.Once
	defaultSink atomic.Pointer[Sink]
)

// Default returns the process-wide sink, creating, configuring and starting it on first use.
// Setup failures are reported on stderr; the sink keeps working without a file.
func Default() *Sink {
	defaultOnce.Do(func() {
		if defaultSink.Load() != nil {
			return
		}
		s := NewSink()
		// DefaultConfig is valid, so ApplyConfig and Start cannot fail here
		_ = s.ApplyConfig(DefaultConfig())
		_ = s.Start()
		defaultSink.Store(s)
	})
	return defaultSink.Load()
}

// SetDefault installs s as the process-wide sink, replacing lazy construction.
// It does not shut down a previous default.
func SetDefault(s *Sink) {
	if s == nil {
		return
	}
	defaultSink.Store(s)
	defaultOnce.Do(func() {})
}

// Package-level functions log to the anonymous category of the default sink

// Debug logs a message at debug severity
func Debug(args ...any) {
	Default().Category(DefaultCategory).Debug(args...)
}

// Info logs a message at info severity
func Info(args ...any) {
	Default().Category(DefaultCategory).Info(args...)
}

// Warning logs a message at warning severity
func Warning(args ...any) {
	Default().Category(DefaultCategory).Warning(args...)
}

// Critical logs a message at critical severity
func Critical(args ...any) {
	Default().Category(DefaultCategory).Critical(args...)
}

// Fatal logs a message at fatal severity and runs the fatal handler
func Fatal(args ...any) {
	Default().Category(DefaultCategory).Fatal(args...)
}

// HandleMessage passes a message to the default sink
func HandleMessage(category string, severity Severity, text string) {
	Default().HandleMessage(category, severity, text)
}

// Category returns a category logger on the default sink
func Category(name string) *CategoryLogger {
	return Default().Category(name)
}

// Flush delivers pending messages of the default sink
func Flush(timeout time.Duration) error {
	return Default().Flush(timeout)
}
