package compat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/formatter"
)

var _ slog.Handler = (*SlogHandler)(nil)

// SlogHandler is a slog.Handler forwarding records to a sink.
// An attribute named "category" with a string value overrides the handler category.
type SlogHandler struct {
	sink     *logsink.Sink
	category string
	level    slog.Leveler
	prefix   string // Dotted group path for subsequent attributes
	attrs    string // Preformatted attributes from WithAttrs
}

// NewSlogHandler creates a handler logging under category
func NewSlogHandler(s *logsink.Sink, category string) *SlogHandler {
	return &SlogHandler{
		sink:     s,
		category: category,
		level:    slog.LevelDebug,
	}
}

// WithLevel returns a copy of the handler that drops records below level
func (h *SlogHandler) WithLevel(level slog.Leveler) *SlogHandler {
	if level == nil {
		level = slog.LevelDebug
	}
	h2 := *h
	h2.level = level
	return &h2
}

// Enabled implements slog.Handler
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler
func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	category := h.category

	var sb strings.Builder
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		if c, ok := categoryAttr(a, h.prefix); ok {
			category = c
			return true
		}
		appendAttr(&sb, h.prefix, a)
		return true
	})

	h.sink.HandleMessage(category, slogSeverity(r.Level), lineSanitizer.Sanitize(sb.String()))
	return nil
}

// WithAttrs implements slog.Handler
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		if c, ok := categoryAttr(a, h.prefix); ok {
			h2.category = c
			continue
		}
		appendAttr(&sb, h.prefix, a)
	}
	h2.attrs = sb.String()
	return &h2
}

// WithGroup implements slog.Handler
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// categoryAttr reports a top-level string category attribute
func categoryAttr(a slog.Attr, prefix string) (string, bool) {
	if prefix != "" || a.Key != CategoryField {
		return "", false
	}
	v := a.Value.Resolve()
	if v.Kind() != slog.KindString || v.String() == "" {
		return "", false
	}
	return v.String(), true
}

// appendAttr writes " key=value", expanding groups into dotted keys
func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(sb, groupPrefix, ga)
		}
		return
	}

	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	sb.WriteString(formatter.Args(a.Value.Any()))
}

// slogSeverity maps slog levels onto sink severities
func slogSeverity(level slog.Level) logsink.Severity {
	switch {
	case level < slog.LevelInfo:
		return logsink.SeverityDebug
	case level < slog.LevelWarn:
		return logsink.SeverityInfo
	case level < slog.LevelError:
		return logsink.SeverityWarning
	default:
		return logsink.SeverityCritical
	}
}

// InstallSlog makes a handler on s the slog default for the rest of the process.
// Output of the standard log package is routed through it as well.
func InstallSlog(s *logsink.Sink, category string) {
	slog.SetDefault(slog.New(NewSlogHandler(s, category)))
}
