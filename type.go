package logsink

import (
	"fmt"
	"io"
	"strings"
)

// Severity is the ordinal level of a diagnostic message
type Severity int64

// String returns the upper-case severity name
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int64(s))
	}
}

// Filter controls which messages are mirrored to the console
type Filter int64

// String returns the config name of the filter
func (f Filter) String() string {
	switch f {
	case FilterDefault:
		return "default"
	case FilterErrorsOnly:
		return "errors_only"
	case FilterTerse:
		return "terse"
	default:
		return fmt.Sprintf("filter(%d)", int64(f))
	}
}

// ParseFilter converts a filter name to its constant
func ParseFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "default", "":
		return FilterDefault, nil
	case "errors_only", "errorsonly", "errors":
		return FilterErrorsOnly, nil
	case "terse":
		return FilterTerse, nil
	default:
		return FilterDefault, fmtErrorf("invalid filter: '%s' (use default, errors_only, or terse)", name)
	}
}

// Entry is the structured form of one message delivered to subscribers
type Entry struct {
	Category string
	Severity Severity
	Text     string
}

// Batch is the set of messages accumulated between two flush cycles.
// Text holds the rendered markup, Entries the same messages unrendered.
type Batch struct {
	Text    string
	Entries []Entry
}

// Subscriber receives notifications from a Sink. Calls happen outside the
// sink lock, so a subscriber may log back into the sink. Error counts are
// delivered one at a time, in the order the counter changed.
type Subscriber interface {
	ErrorCountChanged(count int64)
	MessagesArrived(batch Batch)
}

// SubscriberFuncs adapts plain functions to the Subscriber interface. Nil fields are skipped.
type SubscriberFuncs struct {
	OnErrorCount func(count int64)
	OnMessages   func(batch Batch)
}

// ErrorCountChanged implements Subscriber
func (f SubscriberFuncs) ErrorCountChanged(count int64) {
	if f.OnErrorCount != nil {
		f.OnErrorCount(count)
	}
}

// MessagesArrived implements Subscriber
func (f SubscriberFuncs) MessagesArrived(batch Batch) {
	if f.OnMessages != nil {
		f.OnMessages(batch)
	}
}

// Stats is a point-in-time snapshot of sink counters
type Stats struct {
	MessagesHandled  uint64
	BatchesDelivered uint64
	FilesDeleted     uint64
	WriteErrors      uint64
	ErrorCount       int64
	FileOpen         bool
}

// consoleWriter is a wrapper around an io.Writer, atomic value type change workaround
type consoleWriter struct {
	w io.Writer
}
