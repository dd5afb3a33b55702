package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/compat"
)

const configFile = "demo_config.toml"

// Example TOML content
var tomlContent = `
# Example demo_config.toml
[logsink]
  name = "logsink-demo"
  data_root = "./demo_data"
  filter = "default"
  flush_interval_ms = 250
  max_files = 5
  heartbeat_level = 1
  heartbeat_interval_s = 1
`

// consoleView plays the part of a UI that renders batches
type consoleView struct {
	mu sync.Mutex
}

func (v *consoleView) ErrorCountChanged(count int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Printf("  [view] error count: %d\n", count)
}

func (v *consoleView) MessagesArrived(batch logsink.Batch) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Printf("  [view] batch of %d: %s\n", len(batch.Entries), batch.Text)
}

func main() {
	fmt.Println("--- LogSink Demo ---")

	// --- Setup Config ---
	err := os.WriteFile(configFile, []byte(tomlContent), 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write demo config: %v\n", err)
		// Continue with defaults
	} else {
		fmt.Printf("Created demo config file: %s\n", configFile)
	}

	cfg, err := logsink.NewConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v. Using defaults.\n", err)
		cfg = logsink.DefaultConfig()
	}

	// --- Initialize Sink ---
	sink := logsink.NewSink(logsink.WithSubscriber(&consoleView{}))
	if err := sink.ApplyConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure sink: %v\n", err)
		os.Exit(1)
	}
	if err := sink.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start sink: %v\n", err)
		os.Exit(1)
	}
	logsink.SetDefault(sink)

	if setupErr := sink.SetupError(); setupErr != nil {
		fmt.Printf("File logging disabled: %v\n", setupErr)
	} else {
		fmt.Printf("Logging to: %s\n", sink.LogFilePath())
	}

	// --- Logging ---
	net := logsink.Category("net")
	db := logsink.Category("db")

	logsink.Debug("anonymous debug, file and console only")
	net.Info("listening on", ":8080")
	db.Warning("slow query", 320*time.Millisecond)
	net.Critical("conn failed", "peer", "10.0.0.7")

	// Library output routed through the sink
	compat.InstallSlog(sink, "app")
	slog.Info("configured", "filter", cfg.Filter, "max_files", cfg.MaxFiles)
	restore := compat.RedirectStdLog(sink, "stdlog")
	log.Println("dial tcp 10.0.0.9:5432: connection failed")
	restore()

	// Logging from goroutines
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker := sink.Category(fmt.Sprintf("worker%d", id))
			worker.Info("started")
			time.Sleep(time.Duration(100+id*100) * time.Millisecond)
			worker.Critical("lost connection")
		}(i)
	}
	wg.Wait()

	// Let one flush cycle and a heartbeat pass
	time.Sleep(1200 * time.Millisecond)

	// --- Runtime filter ---
	fmt.Println("Switching console filter to errors_only")
	sink.SetFilter(logsink.FilterErrorsOnly)
	db.Info("not mirrored to the console")
	db.Critical("mirrored to the console")

	// --- Shutdown Sink ---
	fmt.Println("Shutting down sink...")
	if err := sink.Shutdown(2 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Sink shutdown error: %v\n", err)
	} else {
		fmt.Println("Sink shutdown complete.")
	}

	stats := sink.Stats()
	fmt.Printf("Handled %d messages, delivered %d batches, %d errors.\n",
		stats.MessagesHandled, stats.BatchesDelivered, stats.ErrorCount)
	fmt.Println("--- Demo Finished ---")
	fmt.Printf("Check log files in '%s'.\n", sink.LogsURL())
}
