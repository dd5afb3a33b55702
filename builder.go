package logsink

import (
	"io"
)

// Builder provides a fluent API for building sink configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg  *Config
	opts []Option
	err  error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Sink with the specified configuration. The flush cycle is not started.
func (b *Builder) Build() (*Sink, error) {
	if b.err != nil {
		return nil, b.err
	}

	s := NewSink(b.opts...)

	// ApplyConfig handles storage setup and validation
	if err := s.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}

	return s, nil
}

// Name sets the application name.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// DataRoot sets the writable data root the logs subdirectory is created in.
func (b *Builder) DataRoot(dir string) *Builder {
	b.cfg.DataRoot = dir
	return b
}

// Extension sets the log file extension.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// MaxFiles sets the retention cap.
func (b *Builder) MaxFiles(n int64) *Builder {
	b.cfg.MaxFiles = n
	return b
}

// EnableFile enables or disables the log file.
func (b *Builder) EnableFile(enable bool) *Builder {
	b.cfg.EnableFile = enable
	return b
}

// EnableConsole enables or disables the console mirror.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// ConsoleTarget sets the console stream, "stdout" or "stderr".
func (b *Builder) ConsoleTarget(target string) *Builder {
	b.cfg.ConsoleTarget = target
	return b
}

// ConsoleWriter replaces the console stream with w.
func (b *Builder) ConsoleWriter(w io.Writer) *Builder {
	b.opts = append(b.opts, WithConsoleWriter(w))
	return b
}

// Filter sets the console filter.
func (b *Builder) Filter(f Filter) *Builder {
	b.cfg.Filter = f.String()
	return b
}

// FilterString sets the console filter from its name.
func (b *Builder) FilterString(name string) *Builder {
	if b.err != nil {
		return b
	}
	f, err := ParseFilter(name)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Filter = f.String()
	return b
}

// FlushIntervalMs sets the flush cycle interval.
func (b *Builder) FlushIntervalMs(ms int64) *Builder {
	b.cfg.FlushIntervalMs = ms
	return b
}

// EscapeMarkup sets whether message text is HTML-escaped in rendered batches.
func (b *Builder) EscapeMarkup(escape bool) *Builder {
	b.cfg.EscapeMarkup = escape
	return b
}

// HeartbeatLevel sets the heartbeat monitoring level.
func (b *Builder) HeartbeatLevel(level int64) *Builder {
	b.cfg.HeartbeatLevel = level
	return b
}

// HeartbeatIntervalS sets the heartbeat interval.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// Subscriber registers a subscriber on the built sink.
func (b *Builder) Subscriber(sub Subscriber) *Builder {
	b.opts = append(b.opts, WithSubscriber(sub))
	return b
}

// Option appends a construction option.
func (b *Builder) Option(opt Option) *Builder {
	b.opts = append(b.opts, opt)
	return b
}

// Example usage:
// s, err := logsink.NewBuilder().
//
//	Name("myapp").
//	FilterString("terse").
//	Subscriber(ui).
//	Build()
//
// if err == nil {
//
//	 _ = s.Start()
//	 defer s.Shutdown()
//	 s.Category("net").Warning("connection slow")
//
// }
