package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/panjf2000/gnet/v2/pkg/logging"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter wraps a logsink.Sink to implement the gnet logging.Logger interface
type GnetAdapter struct {
	sink         *logsink.Sink
	category     string
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(s *logsink.Sink, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		sink:     s,
		category: "gnet",
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetCategory sets the category gnet messages are logged under
func WithGnetCategory(category string) GnetOption {
	return func(a *GnetAdapter) {
		a.category = category
	}
}

// Debugf logs at debug severity with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.log(logsink.SeverityDebug, format, args...)
}

// Infof logs at info severity with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.log(logsink.SeverityInfo, format, args...)
}

// Warnf logs at warning severity with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.log(logsink.SeverityWarning, format, args...)
}

// Errorf logs at critical severity with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.log(logsink.SeverityCritical, format, args...)
}

// Fatalf logs at fatal severity and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := a.log(logsink.SeverityFatal, format, args...)

	// Ensure the message is delivered before exit
	_ = a.sink.Flush(100 * time.Millisecond)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

// log formats and forwards a message, returning the forwarded text
func (a *GnetAdapter) log(severity logsink.Severity, format string, args ...any) string {
	msg := lineSanitizer.Sanitize(fmt.Sprintf(format, args...))
	a.sink.HandleMessage(a.category, severity, msg)
	return msg
}
