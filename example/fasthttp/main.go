package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/compat"
	"github.com/valyala/fasthttp"
)

// batchView keeps the most recent batches for the /logs page
type batchView struct {
	mu         sync.Mutex
	batches    []string
	errorCount int64
}

const keepBatches = 50

func (v *batchView) ErrorCountChanged(count int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorCount = count
}

func (v *batchView) MessagesArrived(batch logsink.Batch) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.batches = append(v.batches, batch.Text)
	if len(v.batches) > keepBatches {
		v.batches = v.batches[len(v.batches)-keepBatches:]
	}
}

func (v *batchView) render() (string, int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return strings.Join(v.batches, ""), v.errorCount
}

func main() {
	view := &batchView{}

	// Create and configure sink
	sink, err := logsink.NewBuilder().
		Name("fasthttp-example").
		FilterString("terse").
		Subscriber(view).
		Build()
	if err != nil {
		panic(err)
	}
	if err := sink.Start(); err != nil {
		panic(err)
	}
	defer sink.Shutdown()

	// Create fasthttp adapter with custom severity detection
	fasthttpAdapter := compat.NewFastHTTPAdapter(
		sink,
		compat.WithDefaultSeverity(logsink.SeverityInfo),
		compat.WithSeverityDetector(customSeverityDetector),
	)

	requests := sink.Category("http")

	// Configure fasthttp server
	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			requests.Info(string(ctx.Method()), string(ctx.Path()), "from", ctx.RemoteAddr())
			requestHandler(ctx, view, requests)
		},
		Logger: fasthttpAdapter,

		// Other server settings
		Name:              "LogSinkExample",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	// Start server
	fmt.Println("Starting server on :8080, open /logs to see delivered batches")
	if err := server.ListenAndServe(":8080"); err != nil {
		requests.Fatal("server stopped:", err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx, view *batchView, requests *logsink.CategoryLogger) {
	switch string(ctx.Path()) {
	case "/logs":
		text, errorCount := view.render()
		ctx.SetContentType("text/html; charset=utf-8")
		fmt.Fprintf(ctx, "<html><body><p>errors: %d</p><p>%s</p></body></html>", errorCount, text)
	case "/fail":
		requests.Critical("requested failure for", string(ctx.RequestURI()))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	default:
		ctx.SetContentType("text/plain")
		fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
	}
}

func customSeverityDetector(msg string) (logsink.Severity, bool) {
	// Inspect specific fasthttp message patterns first

	if strings.Contains(msg, "connection cannot be served") {
		return logsink.SeverityWarning, true
	}
	if strings.Contains(msg, "error when serving connection") {
		return logsink.SeverityCritical, true
	}

	// Use default detection
	return compat.DetectSeverity(msg)
}
