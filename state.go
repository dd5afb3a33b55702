package logsink

import (
	"sync"
	"sync/atomic"
)

// State encapsulates the runtime state of the sink
type State struct {
	IsInitialized   atomic.Bool
	Started         atomic.Bool
	ShutdownCalled  atomic.Bool
	ProcessorExited atomic.Bool // Tracks if the processor goroutine is running or has exited
	FileOpen        atomic.Bool

	flushRequestChan chan chan struct{} // Channel to request a flush
	flushMutex       sync.Mutex         // Protect concurrent Flush calls

	Filter        atomic.Int64 // stores Filter
	StartTime     atomic.Value // stores time.Time of the last storage setup
	SetupErr      atomic.Value // stores setupError
	ConsoleWriter atomic.Value // stores *consoleWriter
	CurrentSize   atomic.Int64 // Size of the current log file

	// Statistics
	HeartbeatSequence atomic.Uint64
	TotalMessages     atomic.Uint64 // Messages passed to HandleMessage
	TotalBatches      atomic.Uint64 // Batches delivered to subscribers
	TotalDeletions    atomic.Uint64 // Files removed by retention
	WriteErrors       atomic.Uint64 // Failed log file writes
}

// setupError boxes a possibly nil error for atomic.Value
type setupError struct {
	err error
}
