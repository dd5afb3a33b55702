package compat

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/formatter"
	"github.com/rs/zerolog"
)

var _ zerolog.LevelWriter = (*ZerologWriter)(nil)

// CategoryField is the event field that overrides the adapter category
const CategoryField = "category"

// ZerologWriter is a zerolog.LevelWriter that turns each JSON event into a sink message.
// The message field becomes the text, remaining fields are appended as key=value.
type ZerologWriter struct {
	sink     *logsink.Sink
	category string
}

// NewZerologWriter creates a writer for zerolog.New
func NewZerologWriter(s *logsink.Sink, category string) *ZerologWriter {
	return &ZerologWriter{sink: s, category: category}
}

// Write implements io.Writer for events without a level
func (w *ZerologWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter
func (w *ZerologWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	category, text := w.decode(p)
	w.sink.HandleMessage(category, zerologSeverity(level), lineSanitizer.Sanitize(text))
	return len(p), nil
}

// decode extracts category and text from a zerolog JSON event; non-JSON input is passed through
func (w *ZerologWriter) decode(p []byte) (string, string) {
	var fields map[string]any
	if err := json.Unmarshal(p, &fields); err != nil {
		return w.category, string(bytes.TrimRight(p, "\r\n"))
	}

	category := w.category
	if c, ok := fields[CategoryField].(string); ok && c != "" {
		category = c
	}

	var sb strings.Builder
	if msg, ok := fields[zerolog.MessageFieldName].(string); ok {
		sb.WriteString(msg)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		switch k {
		case zerolog.MessageFieldName, zerolog.LevelFieldName, zerolog.TimestampFieldName, CategoryField:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(formatter.Args(fields[k]))
	}

	return category, sb.String()
}

// zerologSeverity maps zerolog levels onto sink severities
func zerologSeverity(level zerolog.Level) logsink.Severity {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return logsink.SeverityDebug
	case zerolog.WarnLevel:
		return logsink.SeverityWarning
	case zerolog.ErrorLevel:
		return logsink.SeverityCritical
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return logsink.SeverityFatal
	default:
		return logsink.SeverityInfo
	}
}
