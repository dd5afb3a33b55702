// Package compat routes diagnostics of third-party libraries into a logsink.Sink.
package compat

import (
	"fmt"

	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/sanitizer"
)

// Builder provides a flexible way to create adapters sharing one sink.
// It can use an existing *logsink.Sink or create a new one from a *logsink.Config
type Builder struct {
	sink *logsink.Sink
	cfg  *logsink.Config
	err  error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSink specifies an existing sink to use for the adapters
// If this is set WithConfig is ignored
func (b *Builder) WithSink(s *logsink.Sink) *Builder {
	if s == nil {
		b.err = fmt.Errorf("logsink/compat: provided sink cannot be nil")
		return b
	}
	b.sink = s
	return b
}

// WithConfig provides a configuration for a new sink
// This is used only if an existing sink is NOT provided via WithSink
// If neither is used, the process-wide default sink is used
func (b *Builder) WithConfig(cfg *logsink.Config) *Builder {
	b.cfg = cfg
	return b
}

// getSink resolves the sink to be used, creating and starting one if necessary
func (b *Builder) getSink() (*logsink.Sink, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.sink != nil {
		return b.sink, nil
	}

	if b.cfg == nil {
		b.sink = logsink.Default()
		return b.sink, nil
	}

	s := logsink.NewSink()
	if err := s.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}

	// Cache the newly created sink for subsequent builds with this builder
	b.sink = s
	return s, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	s, err := b.getSink()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(s, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	s, err := b.getSink()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(s, opts...), nil
}

// BuildFiber creates a Fiber CommonLogger adapter
func (b *Builder) BuildFiber(opts ...FiberOption) (*FiberAdapter, error) {
	s, err := b.getSink()
	if err != nil {
		return nil, err
	}
	return NewFiberAdapter(s, opts...), nil
}

// BuildZerolog creates a zerolog level writer
func (b *Builder) BuildZerolog(category string) (*ZerologWriter, error) {
	s, err := b.getSink()
	if err != nil {
		return nil, err
	}
	return NewZerologWriter(s, category), nil
}

// BuildSlog creates a log/slog handler
func (b *Builder) BuildSlog(category string) (*SlogHandler, error) {
	s, err := b.getSink()
	if err != nil {
		return nil, err
	}
	return NewSlogHandler(s, category), nil
}

// BuildStdLog creates a writer for the standard log package
func (b *Builder) BuildStdLog(category string) (*StdLogWriter, error) {
	s, err := b.getSink()
	if err != nil {
		return nil, err
	}
	return NewStdLogWriter(s, category), nil
}

// GetSink returns the underlying sink
func (b *Builder) GetSink() (*logsink.Sink, error) {
	return b.getSink()
}

// lineSanitizer keeps foreign text on a single record line
var lineSanitizer = sanitizer.New().Policy(sanitizer.PolicyTxt)

// --- Example Usage ---
//
//	s := logsink.Default()
//	builder := compat.NewBuilder().WithSink(s)
//
//	gnetLogger, _ := builder.BuildGnet()
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//
//	fiberLogger, _ := builder.BuildFiber()
//	log.SetLogger(fiberLogger) // github.com/gofiber/fiber/v2/log
//
//	zw, _ := builder.BuildZerolog("app")
//	zl := zerolog.New(zw)
//
//	h, _ := builder.BuildSlog("app")
//	slog.SetDefault(slog.New(h))
