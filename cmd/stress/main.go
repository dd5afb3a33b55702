package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lixenwraith/logsink"
)

const (
	totalBursts    = 100
	logsPerBurst   = 500
	maxMessageSize = 2000
	numWorkers     = 200
	prefillFiles   = 120 // More than the retention cap, to exercise pruning
)

const dataRoot = "./stress_data"

var severities = []logsink.Severity{
	logsink.SeverityDebug,
	logsink.SeverityInfo,
	logsink.SeverityWarning,
	logsink.SeverityCritical,
}

var categories = []string{"", "net", "db", "ui", "io"}

var sink *logsink.Sink

// batchCounter counts what subscribers receive
type batchCounter struct {
	batches     atomic.Int64
	entries     atomic.Int64
	bytes       atomic.Int64
	lastCount   atomic.Int64
	countEvents atomic.Int64
}

func (c *batchCounter) ErrorCountChanged(count int64) {
	c.lastCount.Store(count)
	c.countEvents.Add(1)
}

func (c *batchCounter) MessagesArrived(batch logsink.Batch) {
	c.batches.Add(1)
	c.entries.Add(int64(len(batch.Entries)))
	c.bytes.Add(int64(len(batch.Text)))
}

func generateRandomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 <>&"
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.IntN(len(chars))])
	}
	return sb.String()
}

// logBurst simulates a burst of diagnostic activity
func logBurst(burstID int) {
	for i := 0; i < logsPerBurst; i++ {
		severity := severities[rand.IntN(len(severities))]
		category := categories[rand.IntN(len(categories))]
		msg := generateRandomMessage(rand.IntN(maxMessageSize) + 10)
		sink.Category(category).Log(severity, msg, "bst", burstID, "seq", i)
	}
}

// worker goroutine function
func worker(burstChan chan int, wg *sync.WaitGroup, completedBursts *atomic.Int64) {
	defer wg.Done()
	for burstID := range burstChan {
		logBurst(burstID)
		completed := completedBursts.Add(1)
		if completed%10 == 0 || completed == totalBursts {
			fmt.Printf("\rProgress: %d/%d bursts completed", completed, totalBursts)
		}
	}
}

// prefill creates old files in the logs directory so startup pruning has work to do
func prefill(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	base := time.Now().Add(-prefillFiles * time.Hour)
	for i := 0; i < prefillFiles; i++ {
		path := filepath.Join(dir, fmt.Sprintf("stress-old-%03d.log", i))
		if err := os.WriteFile(path, []byte("old run\n"), 0644); err != nil {
			return err
		}
		mtime := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	fmt.Println("--- LogSink Stress Test ---")

	_ = os.RemoveAll(dataRoot) // Clean previous run
	if err := prefill(filepath.Join(dataRoot, "stress")); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prefill logs directory: %v\n", err)
		os.Exit(1)
	}

	counter := &batchCounter{}
	var err error
	sink, err = logsink.NewBuilder().
		Name("stress").
		DataRoot(dataRoot).
		EnableConsole(false).
		FlushIntervalMs(50).
		HeartbeatLevel(logsink.HeartbeatDisk).
		HeartbeatIntervalS(1).
		Subscriber(counter).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build sink: %v\n", err)
		os.Exit(1)
	}
	if err := sink.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start sink: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Sink initialized. Logging to: %s\n", sink.LogFilePath())
	fmt.Printf("Pruned %d old files at startup.\n", sink.Stats().FilesDeleted)

	fmt.Printf("Starting stress test: %d workers, %d bursts, %d messages/burst.\n",
		numWorkers, totalBursts, logsPerBurst)
	fmt.Println("Press Ctrl+C to stop early.")

	// --- Setup Workers and Signal Handling ---
	burstChan := make(chan int, numWorkers)
	var wg sync.WaitGroup
	completedBursts := atomic.Int64{}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stopChan := make(chan struct{})

	go func() {
		<-sigChan
		fmt.Println("\n[Signal Received] Stopping burst generation...")
		close(stopChan)
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go worker(burstChan, &wg, &completedBursts)
	}

	// --- Run Test ---
	startTime := time.Now()
submit:
	for i := 1; i <= totalBursts; i++ {
		select {
		case burstChan <- i:
		case <-stopChan:
			fmt.Println("[Signal Received] Halting burst submission.")
			break submit
		}
	}
	close(burstChan)

	fmt.Println("\nWaiting for workers to finish...")
	wg.Wait()
	duration := time.Since(startTime)
	finalCompleted := completedBursts.Load()

	// --- Shutdown Sink ---
	fmt.Println("Shutting down sink...")
	if err := sink.Shutdown(5 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Sink shutdown error: %v\n", err)
	}

	fmt.Printf("\n--- Test Finished ---")
	fmt.Printf("\nCompleted %d/%d bursts in %v\n", finalCompleted, totalBursts, duration.Round(time.Millisecond))
	if finalCompleted > 0 && duration.Seconds() > 0 {
		perSec := float64(finalCompleted*logsPerBurst) / duration.Seconds()
		fmt.Printf("Approximate messages/sec: %.2f\n", perSec)
	}

	stats := sink.Stats()
	fmt.Printf("Handled: %d, write errors: %d\n", stats.MessagesHandled, stats.WriteErrors)
	fmt.Printf("Subscriber: %d batches, %d entries, %d bytes\n",
		counter.batches.Load(), counter.entries.Load(), counter.bytes.Load())
	fmt.Printf("Error count: %d (notified %d times, last %d)\n",
		stats.ErrorCount, counter.countEvents.Load(), counter.lastCount.Load())
	if counter.countEvents.Load() != stats.ErrorCount {
		fmt.Fprintln(os.Stderr, "Mismatch: every counter value should be notified exactly once")
	}
}
