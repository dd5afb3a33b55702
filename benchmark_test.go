package logsink

import (
	"io"
	"testing"
	"time"
)

// createBenchSink creates a sink with a discarded console
func createBenchSink(b *testing.B) *Sink {
	b.Helper()
	s := NewSink(
		WithConsoleWriter(io.Discard),
		WithSubscriber(SubscriberFuncs{}),
	)
	cfg := DefaultConfig()
	cfg.DataRoot = b.TempDir()
	if err := s.ApplyConfig(cfg); err != nil {
		b.Fatal(err)
	}
	if err := s.Start(); err != nil {
		b.Fatal(err)
	}
	return s
}

func BenchmarkHandleMessage(b *testing.B) {
	s := createBenchSink(b)
	defer s.Shutdown()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.HandleMessage("bench", SeverityInfo, "benchmark message")
	}
	b.StopTimer()
	_ = s.Flush(time.Second)
}

func BenchmarkHandleMessageCritical(b *testing.B) {
	s := createBenchSink(b)
	defer s.Shutdown()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.HandleMessage("bench", SeverityCritical, "failure <with> markup & entities")
	}
}

func BenchmarkCategoryArgs(b *testing.B) {
	s := createBenchSink(b)
	defer s.Shutdown()
	c := s.Category("bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Info("request", i, "took", 15*time.Millisecond, "ok", true)
	}
}

func BenchmarkConcurrentIntake(b *testing.B) {
	s := createBenchSink(b)
	defer s.Shutdown()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.HandleMessage("bench", SeverityWarning, "concurrent message")
		}
	})
}
