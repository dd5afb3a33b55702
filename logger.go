package logsink

import (
	"io"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/logsink/formatter"
)

// Sink is the core struct: it receives diagnostic messages, writes them to a
// per-run log file, mirrors them to the console and batches them for subscribers.
type Sink struct {
	currentConfig atomic.Value // stores *Config
	formatter     atomic.Value // stores *formatter.Formatter
	state         State
	initMu        sync.Mutex // Serializes configuration and lifecycle changes

	// Guarded by mu
	mu             sync.Mutex
	file           *os.File
	logsDir        string
	filePath       string
	pendingText    []byte
	pendingEntries []Entry
	errorCount     int64
	countQueue     []int64 // Counter values awaiting notification, in order set
	delivering     bool    // A goroutine is draining countQueue
	dirty          bool    // Data written since the last sync

	subMu       sync.RWMutex
	subscribers []subscription
	nextSubID   uint64

	// Processor control, guarded by initMu
	done   chan struct{}
	exited chan struct{}

	consoleOverride io.Writer
	now             func() time.Time
	fatalHandler    func(msg string)
}

// Option customizes a Sink at construction
type Option func(*Sink)

// WithConsoleWriter replaces the console stream selected by console_target
func WithConsoleWriter(w io.Writer) Option {
	return func(s *Sink) {
		s.consoleOverride = w
	}
}

// WithClock sets the time source used for the log file timestamp
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFatalHandler sets the action taken after a fatal message is flushed
func WithFatalHandler(handler func(msg string)) Option {
	return func(s *Sink) {
		s.fatalHandler = handler
	}
}

// WithSubscriber registers a subscriber before any message can be handled
func WithSubscriber(sub Subscriber) Option {
	return func(s *Sink) {
		s.Subscribe(sub)
	}
}

// NewSink creates a new Sink with default settings.
// Messages are accepted immediately; the log file is opened by ApplyConfig.
func NewSink(opts ...Option) *Sink {
	s := &Sink{
		now: time.Now,
		fatalHandler: func(string) {
			os.Exit(1)
		},
	}

	cfg := DefaultConfig()
	s.currentConfig.Store(cfg)
	s.formatter.Store(newFormatter(cfg))

	s.state.ProcessorExited.Store(true)
	s.state.Filter.Store(int64(FilterDefault))
	s.state.StartTime.Store(time.Time{})
	s.state.SetupErr.Store(setupError{})
	s.state.flushRequestChan = make(chan chan struct{}, 1)

	for _, opt := range opts {
		opt(s)
	}

	s.setConsoleWriter(cfg)

	return s
}

// ApplyConfig applies a validated configuration to the sink.
// The first call sets up storage; setup failures are reported on the console
// and through SetupError, never returned. Later calls may change console, filter,
// markup and timer settings but not the file layout.
func (s *Sink) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	return s.applyConfig(cfg.Clone())
}

// GetConfig returns a copy of current configuration
func (s *Sink) GetConfig() *Config {
	return s.getConfig().Clone()
}

// Start begins the flush cycle. Safe to call multiple times
func (s *Sink) Start() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	return s.startLocked()
}

// Stop halts the flush cycle after delivering pending messages. Can be restarted with Start()
// Returns nil if already stopped
func (s *Sink) Stop(timeout ...time.Duration) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	return s.stopLocked(timeout...)
}

// Shutdown stops the flush cycle, delivers pending messages, then syncs and closes the log file.
// If no timeout is provided, uses a default of 2x flush interval
func (s *Sink) Shutdown(timeout ...time.Duration) error {
	if !s.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	if !s.state.IsInitialized.Load() {
		s.state.ShutdownCalled.Store(false)
		return nil
	}

	var finalErr error
	if s.state.Started.Load() {
		finalErr = s.stopLocked(timeout...)
	} else {
		s.flushPending()
	}

	s.mu.Lock()
	if s.file != nil {
		if err := s.file.Sync(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to sync log file '%s' during shutdown: %w", s.filePath, err))
		}
		if err := s.file.Close(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to close log file '%s' during shutdown: %w", s.filePath, err))
		}
		s.file = nil
		s.dirty = false
	}
	s.mu.Unlock()

	s.state.FileOpen.Store(false)
	s.state.IsInitialized.Store(false)

	return finalErr
}

// Flush delivers pending messages to subscribers and syncs the log file,
// waiting for the processor to confirm when it is running
func (s *Sink) Flush(timeout time.Duration) error {
	s.state.flushMutex.Lock()
	defer s.state.flushMutex.Unlock()

	if !s.state.Started.Load() {
		s.flushPending()
		s.performSync(true)
		return nil
	}

	confirmChan := make(chan struct{})

	select {
	case s.state.flushRequestChan <- confirmChan:
	case <-time.After(timeout):
		return fmtErrorf("failed to send flush request to processor (possible deadlock or high load)")
	}

	select {
	case <-confirmChan:
		return nil
	case <-time.After(timeout):
	}

	// A concurrent Stop may have ended the processor before it saw the request
	if s.state.ProcessorExited.Load() {
		select {
		case <-s.state.flushRequestChan:
		default:
		}
		s.flushPending()
		s.performSync(true)
		return nil
	}

	return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
}

// SetFilter changes the console filter at runtime
func (s *Sink) SetFilter(f Filter) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	cfg := s.getConfig().Clone()
	cfg.Filter = f.String()
	s.currentConfig.Store(cfg)
	s.state.Filter.Store(int64(f))
}

// Filter returns the current console filter
func (s *Sink) Filter() Filter {
	return Filter(s.state.Filter.Load())
}

// ErrorCount returns the number of critical messages counted so far
func (s *Sink) ErrorCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

// SetErrorCount sets the error counter. Subscribers are notified only when the value changes
func (s *Sink) SetErrorCount(count int64) {
	s.mu.Lock()
	changed := s.setErrorCountLocked(count)
	s.mu.Unlock()

	if changed {
		s.deliverErrorCounts()
	}
}

// LogsPath returns the logs directory, empty before setup
func (s *Sink) LogsPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logsDir
}

// LogsURL returns the logs directory as a file URL, nil before setup
func (s *Sink) LogsURL() *url.URL {
	dir := s.LogsPath()
	if dir == "" {
		return nil
	}
	return fileURL(dir)
}

// LogFilePath returns the path of the file opened for this run, empty if file logging is inactive
func (s *Sink) LogFilePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.filePath
}

// SetupError returns the storage setup failure of the last ApplyConfig, if any
func (s *Sink) SetupError() error {
	return s.state.SetupErr.Load().(setupError).err
}

// Stats returns a snapshot of the sink counters
func (s *Sink) Stats() Stats {
	return Stats{
		MessagesHandled:  s.state.TotalMessages.Load(),
		BatchesDelivered: s.state.TotalBatches.Load(),
		FilesDeleted:     s.state.TotalDeletions.Load(),
		WriteErrors:      s.state.WriteErrors.Load(),
		ErrorCount:       s.ErrorCount(),
		FileOpen:         s.state.FileOpen.Load(),
	}
}

// getConfig returns the current configuration (thread-safe)
func (s *Sink) getConfig() *Config {
	return s.currentConfig.Load().(*Config)
}

// getFormatter returns the current formatter (thread-safe)
func (s *Sink) getFormatter() *formatter.Formatter {
	return s.formatter.Load().(*formatter.Formatter)
}

// getConsole returns the current console writer
func (s *Sink) getConsole() io.Writer {
	return s.state.ConsoleWriter.Load().(*consoleWriter).w
}

// setConsoleWriter selects the console stream for the configuration
func (s *Sink) setConsoleWriter(cfg *Config) {
	var w io.Writer
	switch {
	case s.consoleOverride != nil:
		w = s.consoleOverride
	case cfg.ConsoleTarget == "stdout":
		w = os.Stdout
	default:
		w = os.Stderr
	}
	s.state.ConsoleWriter.Store(&consoleWriter{w: w})
}

// newFormatter builds the formatter for a configuration
func newFormatter(cfg *Config) *formatter.Formatter {
	return formatter.New().
		EscapeMarkup(cfg.EscapeMarkup).
		CriticalColor(cfg.CriticalColor)
}

// applyConfig is the internal implementation for applying configuration, assuming initMu is held
func (s *Sink) applyConfig(cfg *Config) error {
	oldCfg := s.getConfig()
	wasInitialized := s.state.IsInitialized.Load()

	if wasInitialized && fileLayoutChanged(oldCfg, cfg) {
		return fmtErrorf("file layout settings (name, data_root, extension, max_files, enable_file) cannot change on an initialized sink")
	}

	// Validated already
	filter, _ := ParseFilter(cfg.Filter)

	needsRestart := wasInitialized && s.state.Started.Load() && processorChanged(oldCfg, cfg)
	if needsRestart {
		if err := s.stopLocked(); err != nil {
			return fmtErrorf("failed to stop processor for restart: %w", err)
		}
	}

	s.currentConfig.Store(cfg)
	s.formatter.Store(newFormatter(cfg))
	s.state.Filter.Store(int64(filter))
	s.setConsoleWriter(cfg)

	if !wasInitialized {
		s.setupStorage(cfg)
		s.state.IsInitialized.Store(true)
		s.state.ShutdownCalled.Store(false)
	}

	if needsRestart {
		return s.startLocked()
	}

	return nil
}

// startLocked launches the processor goroutine, assuming initMu is held
func (s *Sink) startLocked() error {
	if !s.state.IsInitialized.Load() {
		return fmtErrorf("sink not initialized, call ApplyConfig first")
	}

	if s.state.Started.CompareAndSwap(false, true) {
		s.done = make(chan struct{})
		s.exited = make(chan struct{})
		s.state.ProcessorExited.Store(false)
		go s.processMessages(s.done, s.exited)
	}

	return nil
}

// stopLocked signals the processor and waits for it to exit, assuming initMu is held
func (s *Sink) stopLocked(timeout ...time.Duration) error {
	if !s.state.Started.CompareAndSwap(true, false) {
		return nil
	}

	var effectiveTimeout time.Duration
	if len(timeout) > 0 {
		effectiveTimeout = timeout[0]
	} else {
		effectiveTimeout = 2 * time.Duration(s.getConfig().FlushIntervalMs) * time.Millisecond
	}

	close(s.done)

	select {
	case <-s.exited:
		return nil
	case <-time.After(effectiveTimeout):
		return fmtErrorf("processor did not exit within timeout (%v)", effectiveTimeout)
	}
}
