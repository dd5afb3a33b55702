package logsink

import (
	"fmt"
	"io"
	"strings"
)

// HandleMessage is the intake for every diagnostic message. It is safe for concurrent use.
//
// The record line "[category] text" always goes to the log file when one is open.
// The console copy is subject to the filter, and the subscriber copy is buffered only
// for named categories above debug severity. Critical messages increment the error counter.
func (s *Sink) HandleMessage(category string, severity Severity, text string) {
	if category == "" {
		category = DefaultCategory
	}

	s.state.TotalMessages.Add(1)

	f := s.getFormatter()
	line := f.Line(category, text)
	enableConsole := s.getConfig().EnableConsole

	s.mu.Lock()

	if s.file != nil {
		s.writeFileLocked(line)
	}

	if consoleSuppressed(s.Filter(), severity) {
		s.mu.Unlock()
		return
	}

	if enableConsole {
		writeLine(s.getConsole(), line)
	}

	if subscriberSuppressed(category, severity) {
		s.mu.Unlock()
		return
	}

	critical := severity == SeverityCritical
	s.pendingText = f.AppendEntry(s.pendingText, line, critical)
	s.pendingEntries = append(s.pendingEntries, Entry{
		Category: category,
		Severity: severity,
		Text:     text,
	})

	changed := critical && s.setErrorCountLocked(s.errorCount+1)

	s.mu.Unlock()

	if changed {
		s.deliverErrorCounts()
	}
}

// consoleSuppressed applies the filter to the console mirror
func consoleSuppressed(filter Filter, severity Severity) bool {
	filterNonError := filter == FilterErrorsOnly && severity != SeverityCritical
	filterDebug := filter == FilterTerse && severity == SeverityDebug
	return filterNonError || filterDebug
}

// subscriberSuppressed keeps anonymous and debug messages out of subscriber batches
func subscriberSuppressed(category string, severity Severity) bool {
	return category == DefaultCategory || severity == SeverityDebug
}

// setErrorCountLocked stores a new counter value and queues its notification, assuming mu is held.
// Returns true if the value changed.
func (s *Sink) setErrorCountLocked(count int64) bool {
	if s.errorCount == count {
		return false
	}
	s.errorCount = count
	s.countQueue = append(s.countQueue, count)
	return true
}

// deliverErrorCounts notifies queued counter values in the order they were set.
// One goroutine delivers at a time; a caller finding delivery in progress leaves its
// value to the active deliverer, which keeps draining until the queue is empty.
func (s *Sink) deliverErrorCounts() {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true

	// A panicking subscriber unwinds with mu released; hand delivery back
	done := false
	defer func() {
		if !done {
			s.mu.Lock()
			s.delivering = false
			s.mu.Unlock()
		}
	}()

	for len(s.countQueue) > 0 {
		count := s.countQueue[0]
		s.countQueue = s.countQueue[1:]

		s.mu.Unlock()
		s.notifyErrorCount(count)
		s.mu.Lock()
	}

	s.delivering = false
	done = true
	s.mu.Unlock()
}

// writeFileLocked appends one record line to the log file, assuming mu is held
func (s *Sink) writeFileLocked(line string) {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	n, err := s.file.Write(buf)
	s.state.CurrentSize.Add(int64(n))
	if err != nil {
		s.state.WriteErrors.Add(1)
		return
	}
	s.dirty = true
}

// fallbackMessage writes a sink diagnostic straight to the console, bypassing the filter.
// Used only when file logging setup itself fails.
func (s *Sink) fallbackMessage(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := s.getFormatter().Line(internalCategory, msg)
	writeLine(s.getConsole(), line)
}

// writeLine writes a line and its terminator in one call; errors are ignored
func writeLine(w io.Writer, line string) {
	var sb strings.Builder
	sb.Grow(len(line) + 1)
	sb.WriteString(line)
	sb.WriteByte('\n')
	_, _ = io.WriteString(w, sb.String())
}
