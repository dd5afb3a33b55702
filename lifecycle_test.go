package logsink

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStartStopLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _, _, _ := createTestSink(t) // Starts the sink

	assert.True(t, s.state.Started.Load(), "Sink should be in a started state")

	err := s.Stop()
	require.NoError(t, err)
	assert.False(t, s.state.Started.Load(), "Sink should be in a stopped state after Stop()")
	assert.True(t, s.state.ProcessorExited.Load())

	err = s.Start()
	require.NoError(t, err)
	assert.True(t, s.state.Started.Load(), "Sink should be in a started state after restart")

	require.NoError(t, s.Shutdown())
}

func TestStartAlreadyStarted(t *testing.T) {
	s, _, _, _ := createTestSink(t)
	defer s.Shutdown()

	// Calling Start() on a started sink is a no-op
	err := s.Start()
	assert.NoError(t, err)
	assert.True(t, s.state.Started.Load())
}

func TestStopAlreadyStopped(t *testing.T) {
	s, _, _, _ := createTestSink(t)
	defer s.Shutdown()

	require.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
	assert.False(t, s.state.Started.Load())
}

func TestStartBeforeConfig(t *testing.T) {
	s := NewSink()
	err := s.Start()
	assert.Error(t, err)
	assert.False(t, s.state.Started.Load())
}

func TestShutdownLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _, sub, _ := createTestSink(t)
	path := s.LogFilePath()

	s.HandleMessage("net", SeverityInfo, "last words")
	require.NoError(t, s.Shutdown(time.Second))

	assert.False(t, s.state.IsInitialized.Load())
	assert.False(t, s.state.Started.Load())
	assert.False(t, s.Stats().FileOpen)
	assert.Empty(t, s.LogFilePath())
	assert.Equal(t, "[net] last words<br>", sub.Text())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[net] last words\n")

	// Second shutdown is a no-op
	assert.NoError(t, s.Shutdown())

	// Messages after shutdown still reach the console and subscribers
	s.HandleMessage("net", SeverityInfo, "after")
	require.NoError(t, s.Flush(time.Second))
	assert.Contains(t, sub.Text(), "after")
}

func TestShutdownWithoutConfig(t *testing.T) {
	s := NewSink()
	assert.NoError(t, s.Shutdown())
	assert.False(t, s.state.ShutdownCalled.Load())
}

func TestShutdownNotStarted(t *testing.T) {
	sub := &recordingSubscriber{}
	s := NewSink(WithConsoleWriter(&lockedBuffer{}), WithSubscriber(sub))

	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	require.NoError(t, s.ApplyConfig(cfg))

	s.HandleMessage("net", SeverityInfo, "never started")
	require.NoError(t, s.Shutdown())

	assert.Equal(t, "[net] never started<br>", sub.Text())
}

func TestReconfigureAfterShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _, _, tmpDir := createTestSink(t)
	require.NoError(t, s.Shutdown())

	// A shut down sink may be set up again, including a new layout
	cfg := DefaultConfig()
	cfg.Name = "second"
	cfg.DataRoot = tmpDir
	require.NoError(t, s.ApplyConfig(cfg))
	require.NoError(t, s.Start())

	assert.Contains(t, s.LogFilePath(), "second-20260314-092653.log")
	require.NoError(t, s.Shutdown())
}

func TestDefaultSink(t *testing.T) {
	sub := &recordingSubscriber{}
	s := NewSink(WithConsoleWriter(&lockedBuffer{}), WithSubscriber(sub))
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	require.NoError(t, s.ApplyConfig(cfg))
	require.NoError(t, s.Start())
	defer s.Shutdown()

	SetDefault(s)
	assert.Same(t, s, Default())

	Category("pkg").Warning("through default")
	HandleMessage("pkg", SeverityInfo, "direct")
	Info("anonymous")
	require.NoError(t, Flush(time.Second))

	text := sub.Text()
	assert.Contains(t, text, "[pkg] through default")
	assert.Contains(t, text, "[pkg] direct")
	assert.NotContains(t, text, "anonymous")
}
