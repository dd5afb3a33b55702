package compat

import (
	"bytes"
	"log"

	"github.com/lixenwraith/logsink"
)

// StdLogWriter is an io.Writer for the standard log package. Each line becomes one message,
// with severity detected from its content.
type StdLogWriter struct {
	sink     *logsink.Sink
	category string
	detector func(string) (logsink.Severity, bool)
}

// NewStdLogWriter creates a writer logging under category
func NewStdLogWriter(s *logsink.Sink, category string) *StdLogWriter {
	return &StdLogWriter{
		sink:     s,
		category: category,
		detector: DetectSeverity,
	}
}

// Write implements io.Writer
func (w *StdLogWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		msg := string(line)
		severity, _ := w.detector(msg)
		w.sink.HandleMessage(w.category, severity, lineSanitizer.Sanitize(msg))
	}
	return len(p), nil
}

// RedirectStdLog points the standard logger at s without prefixes or timestamps.
// The returned function restores the previous output, prefix and flags.
func RedirectStdLog(s *logsink.Sink, category string) (restore func()) {
	prevOut, prevFlags, prevPrefix := log.Writer(), log.Flags(), log.Prefix()

	log.SetOutput(NewStdLogWriter(s, category))
	log.SetFlags(0)
	log.SetPrefix("")

	return func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		log.SetPrefix(prevPrefix)
	}
}
