package compat

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/formatter"
)

// FiberAdapter wraps a logsink.Sink to implement Fiber's CommonLogger interface
// (Logger, FormatLogger and WithLogger method sets) without importing fiber
type FiberAdapter struct {
	sink         *logsink.Sink
	category     string
	fatalHandler func(msg string) // Customizable fatal behavior
	panicHandler func(msg string) // Customizable panic behavior
}

// NewFiberAdapter creates a new Fiber-compatible logger adapter
func NewFiberAdapter(s *logsink.Sink, opts ...FiberOption) *FiberAdapter {
	adapter := &FiberAdapter{
		sink:     s,
		category: "fiber",
		fatalHandler: func(msg string) {
			os.Exit(1)
		},
		panicHandler: func(msg string) {
			panic(msg)
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FiberOption allows customizing adapter behavior
type FiberOption func(*FiberAdapter)

// WithFiberFatalHandler sets a custom fatal handler
func WithFiberFatalHandler(handler func(string)) FiberOption {
	return func(a *FiberAdapter) {
		a.fatalHandler = handler
	}
}

// WithFiberPanicHandler sets a custom panic handler
func WithFiberPanicHandler(handler func(string)) FiberOption {
	return func(a *FiberAdapter) {
		a.panicHandler = handler
	}
}

// WithFiberCategory sets the category fiber messages are logged under
func WithFiberCategory(category string) FiberOption {
	return func(a *FiberAdapter) {
		a.category = category
	}
}

// --- Logger method set ---

// Trace logs at debug severity
func (a *FiberAdapter) Trace(v ...any) { a.log(logsink.SeverityDebug, fmt.Sprint(v...)) }

// Debug logs at debug severity
func (a *FiberAdapter) Debug(v ...any) { a.log(logsink.SeverityDebug, fmt.Sprint(v...)) }

// Info logs at info severity
func (a *FiberAdapter) Info(v ...any) { a.log(logsink.SeverityInfo, fmt.Sprint(v...)) }

// Warn logs at warning severity
func (a *FiberAdapter) Warn(v ...any) { a.log(logsink.SeverityWarning, fmt.Sprint(v...)) }

// Error logs at critical severity
func (a *FiberAdapter) Error(v ...any) { a.log(logsink.SeverityCritical, fmt.Sprint(v...)) }

// Fatal logs at fatal severity and triggers the fatal handler
func (a *FiberAdapter) Fatal(v ...any) { a.terminate(a.fatalHandler, fmt.Sprint(v...)) }

// Panic logs at fatal severity and triggers the panic handler
func (a *FiberAdapter) Panic(v ...any) { a.terminate(a.panicHandler, fmt.Sprint(v...)) }

// Write implements io.Writer so the adapter can receive fiber's raw output, one message per line
func (a *FiberAdapter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		line = bytes.TrimRight(line, "\r")
		if len(line) > 0 {
			a.log(logsink.SeverityInfo, string(line))
		}
	}
	return len(p), nil
}

// --- FormatLogger method set ---

// Tracef logs at debug severity with printf-style formatting
func (a *FiberAdapter) Tracef(format string, v ...any) {
	a.log(logsink.SeverityDebug, fmt.Sprintf(format, v...))
}

// Debugf logs at debug severity with printf-style formatting
func (a *FiberAdapter) Debugf(format string, v ...any) {
	a.log(logsink.SeverityDebug, fmt.Sprintf(format, v...))
}

// Infof logs at info severity with printf-style formatting
func (a *FiberAdapter) Infof(format string, v ...any) {
	a.log(logsink.SeverityInfo, fmt.Sprintf(format, v...))
}

// Warnf logs at warning severity with printf-style formatting
func (a *FiberAdapter) Warnf(format string, v ...any) {
	a.log(logsink.SeverityWarning, fmt.Sprintf(format, v...))
}

// Errorf logs at critical severity with printf-style formatting
func (a *FiberAdapter) Errorf(format string, v ...any) {
	a.log(logsink.SeverityCritical, fmt.Sprintf(format, v...))
}

// Fatalf logs at fatal severity and triggers the fatal handler
func (a *FiberAdapter) Fatalf(format string, v ...any) {
	a.terminate(a.fatalHandler, fmt.Sprintf(format, v...))
}

// Panicf logs at fatal severity and triggers the panic handler
func (a *FiberAdapter) Panicf(format string, v ...any) {
	a.terminate(a.panicHandler, fmt.Sprintf(format, v...))
}

// --- WithLogger method set ---

// Tracew logs at debug severity with key-value pairs
func (a *FiberAdapter) Tracew(msg string, keysAndValues ...any) {
	a.log(logsink.SeverityDebug, withPairs(msg, keysAndValues))
}

// Debugw logs at debug severity with key-value pairs
func (a *FiberAdapter) Debugw(msg string, keysAndValues ...any) {
	a.log(logsink.SeverityDebug, withPairs(msg, keysAndValues))
}

// Infow logs at info severity with key-value pairs
func (a *FiberAdapter) Infow(msg string, keysAndValues ...any) {
	a.log(logsink.SeverityInfo, withPairs(msg, keysAndValues))
}

// Warnw logs at warning severity with key-value pairs
func (a *FiberAdapter) Warnw(msg string, keysAndValues ...any) {
	a.log(logsink.SeverityWarning, withPairs(msg, keysAndValues))
}

// Errorw logs at critical severity with key-value pairs
func (a *FiberAdapter) Errorw(msg string, keysAndValues ...any) {
	a.log(logsink.SeverityCritical, withPairs(msg, keysAndValues))
}

// Fatalw logs at fatal severity with key-value pairs and triggers the fatal handler
func (a *FiberAdapter) Fatalw(msg string, keysAndValues ...any) {
	a.terminate(a.fatalHandler, withPairs(msg, keysAndValues))
}

// Panicw logs at fatal severity with key-value pairs and triggers the panic handler
func (a *FiberAdapter) Panicw(msg string, keysAndValues ...any) {
	a.terminate(a.panicHandler, withPairs(msg, keysAndValues))
}

// log sanitizes and forwards a message, returning the forwarded text
func (a *FiberAdapter) log(severity logsink.Severity, msg string) string {
	msg = lineSanitizer.Sanitize(msg)
	a.sink.HandleMessage(a.category, severity, msg)
	return msg
}

// terminate logs a fatal message, flushes, then hands control to handler
func (a *FiberAdapter) terminate(handler func(string), msg string) {
	msg = a.log(logsink.SeverityFatal, msg)

	// Ensure the message is delivered before exit or panic
	_ = a.sink.Flush(100 * time.Millisecond)

	if handler != nil {
		handler(msg)
	}
}

// withPairs appends " key=value" for each pair; a trailing key without value is kept bare
func withPairs(msg string, keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		sb.WriteByte(' ')
		sb.WriteString(formatter.Args(keysAndValues[i]))
		if i+1 < len(keysAndValues) {
			sb.WriteByte('=')
			sb.WriteString(formatter.Args(keysAndValues[i+1]))
		}
	}
	return sb.String()
}
