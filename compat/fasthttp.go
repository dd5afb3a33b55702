package compat

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/logsink"
	"github.com/valyala/fasthttp"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter wraps a logsink.Sink to implement the fasthttp Logger interface
type FastHTTPAdapter struct {
	sink             *logsink.Sink
	category         string
	defaultSeverity  logsink.Severity
	severityDetector func(string) (logsink.Severity, bool) // Detects severity from message content
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(s *logsink.Sink, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		sink:             s,
		category:         "fasthttp",
		defaultSeverity:  logsink.SeverityInfo,
		severityDetector: DetectSeverity,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultSeverity sets the severity used when detection finds nothing
func WithDefaultSeverity(severity logsink.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultSeverity = severity
	}
}

// WithSeverityDetector sets a custom function to detect severity from message content
func WithSeverityDetector(detector func(string) (logsink.Severity, bool)) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.severityDetector = detector
	}
}

// WithFastHTTPCategory sets the category fasthttp messages are logged under
func WithFastHTTPCategory(category string) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.category = category
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	severity := a.defaultSeverity
	if a.severityDetector != nil {
		if detected, ok := a.severityDetector(msg); ok {
			severity = detected
		}
	}

	a.sink.HandleMessage(a.category, severity, lineSanitizer.Sanitize(msg))
}

// DetectSeverity guesses a severity from message content.
// Returns false when the message carries no recognizable indicator.
func DetectSeverity(msg string) (logsink.Severity, bool) {
	msgLower := strings.ToLower(msg)

	// Error indicators map to critical; fatal is reserved for explicit fatal calls
	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return logsink.SeverityCritical, true
	}

	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return logsink.SeverityWarning, true
	}

	if strings.Contains(msgLower, "debug") ||
		strings.Contains(msgLower, "trace") {
		return logsink.SeverityDebug, true
	}

	return logsink.SeverityInfo, false
}
