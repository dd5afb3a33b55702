package logsink

import (
	"time"

	"github.com/lixenwraith/logsink/formatter"
)

// CategoryLogger logs to a Sink under a fixed category
type CategoryLogger struct {
	sink     *Sink
	category string
}

// Category returns a logger for the named category. An empty name is the anonymous category.
func (s *Sink) Category(name string) *CategoryLogger {
	return &CategoryLogger{sink: s, category: name}
}

// Name returns the category name
func (c *CategoryLogger) Name() string {
	if c.category == "" {
		return DefaultCategory
	}
	return c.category
}

// Debug logs a message at debug severity
func (c *CategoryLogger) Debug(args ...any) {
	c.sink.HandleMessage(c.category, SeverityDebug, formatter.Args(args...))
}

// Info logs a message at info severity
func (c *CategoryLogger) Info(args ...any) {
	c.sink.HandleMessage(c.category, SeverityInfo, formatter.Args(args...))
}

// Warning logs a message at warning severity
func (c *CategoryLogger) Warning(args ...any) {
	c.sink.HandleMessage(c.category, SeverityWarning, formatter.Args(args...))
}

// Critical logs a message at critical severity and increments the error counter
func (c *CategoryLogger) Critical(args ...any) {
	c.sink.HandleMessage(c.category, SeverityCritical, formatter.Args(args...))
}

// Fatal logs a message at fatal severity, flushes, then runs the sink's fatal handler
func (c *CategoryLogger) Fatal(args ...any) {
	c.sink.fatal(c.category, formatter.Args(args...))
}

// Log logs a message at the given severity
func (c *CategoryLogger) Log(severity Severity, args ...any) {
	c.sink.HandleMessage(c.category, severity, formatter.Args(args...))
}

// fatal handles a fatal message and hands control to the fatal handler
func (s *Sink) fatal(category, text string) {
	s.HandleMessage(category, SeverityFatal, text)

	// Ensure the message reaches the file and subscribers before exit
	_ = s.Flush(100 * time.Millisecond)

	if s.fatalHandler != nil {
		s.fatalHandler(text)
	}
}
