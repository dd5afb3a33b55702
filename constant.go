package logsink

import (
	"time"
)

// Severity levels, ordered
const (
	SeverityDebug    Severity = -4
	SeverityInfo     Severity = 0
	SeverityWarning  Severity = 4
	SeverityCritical Severity = 8
	SeverityFatal    Severity = 12
)

// Console filter levels
const (
	FilterDefault    Filter = iota // No suppression beyond intake rules
	FilterErrorsOnly               // Console shows critical messages only
	FilterTerse                    // Console hides debug messages
)

// Heartbeat levels
const (
	HeartbeatOff  int64 = 0
	HeartbeatProc int64 = 1
	HeartbeatDisk int64 = 2
)

// Categories
const (
	// DefaultCategory is the anonymous category, never delivered to subscribers
	DefaultCategory = "default"
	// internalCategory tags the sink's own diagnostics
	internalCategory = "LOGGER"
)

// Storage
const (
	// Start timestamp layout used in log file names (yyyyMMdd-hhmmss)
	fileTimestampLayout = "20060102-150405"
	// Retention cap on files kept in the logs directory
	defaultMaxFiles int64 = 99
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Interval between flush cycles
	defaultFlushInterval = 250 * time.Millisecond
)
