package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/logsink"
)

// Switch the console filter and flush cadence while messages keep arriving
func main() {
	var count atomic.Int64
	var delivered atomic.Int64

	sink := logsink.NewSink(logsink.WithSubscriber(logsink.SubscriberFuncs{
		OnMessages: func(batch logsink.Batch) {
			delivered.Add(int64(len(batch.Entries)))
		},
	}))

	// Initialize the sink with defaults first
	if err := sink.ApplyConfig(logsink.DefaultConfig()); err != nil {
		fmt.Printf("Initial config error: %v\n", err)
		return
	}
	if err := sink.Start(); err != nil {
		fmt.Printf("Start error: %v\n", err)
		return
	}

	// Log something constantly
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker := sink.Category("worker")
		severities := []logsink.Severity{logsink.SeverityDebug, logsink.SeverityInfo, logsink.SeverityCritical}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			worker.Log(severities[i%len(severities)], "tick", i)
			count.Add(1)
			time.Sleep(time.Millisecond)
		}
	}()

	// Trigger multiple reconfigurations rapidly
	filters := []string{"default", "terse", "errors_only"}
	for i := 0; i < 10; i++ {
		err := sink.ApplyOverride(
			"filter="+filters[i%len(filters)],
			fmt.Sprintf("flush_interval_ms=%d", 50*(i+1)),
		)
		if err != nil {
			fmt.Printf("Override error: %v\n", err)
		}
		// Minimal delay between reconfigurations
		time.Sleep(10 * time.Millisecond)
	}

	// File layout is fixed once set up
	if err := sink.ApplyOverride("name=renamed"); err != nil {
		fmt.Printf("Expected rejection: %v\n", err)
	}

	time.Sleep(500 * time.Millisecond)
	close(stop)
	<-done

	if err := sink.Shutdown(time.Second); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}

	fmt.Printf("Messages sent: %d, delivered to subscribers: %d, error count: %d\n",
		count.Load(), delivered.Load(), sink.ErrorCount())
}
