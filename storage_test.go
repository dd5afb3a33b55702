package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// populateLogsDir creates n files with strictly increasing modification times.
// Names are shuffled against age so ordering must come from mtime.
func populateLogsDir(t *testing.T, dir string, n int) []string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))

	base := time.Now().Add(-time.Duration(n+10) * time.Hour)
	byAge := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("old-%03d.log", (i*37)%n)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x\n"), 0644))
		mtime := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
		byAge = append(byAge, name)
	}
	return byAge
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestPruneOldFiles(t *testing.T) {
	for _, n := range []int{1, 98, 99, 100, 150} {
		t.Run(fmt.Sprintf("files_%d", n), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "logs")
			byAge := populateLogsDir(t, dir, n)

			s := NewSink(WithConsoleWriter(&lockedBuffer{}))
			err := s.pruneOldFiles(dir, defaultMaxFiles)
			require.NoError(t, err)

			remaining := listDir(t, dir)
			if n <= 99 {
				assert.Len(t, remaining, n)
				assert.Zero(t, s.state.TotalDeletions.Load())
				return
			}

			// Exactly the 99 most recently modified survive
			want := append([]string(nil), byAge[n-99:]...)
			sort.Strings(want)
			assert.Equal(t, want, remaining)
			assert.Equal(t, uint64(n-99), s.state.TotalDeletions.Load())
		})
	}
}

func TestPruneOldFilesSkipsDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	populateLogsDir(t, dir, 5)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0755))

	s := NewSink(WithConsoleWriter(&lockedBuffer{}))
	require.NoError(t, s.pruneOldFiles(dir, 5))

	assert.Len(t, listDir(t, dir), 6)
}

func TestSetupPrunesBeforeCreate(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "testapp")
	byAge := populateLogsDir(t, dir, 120)

	s, _, _, _ := createTestSinkIn(t, tmpDir, 99)
	defer s.Shutdown()

	remaining := listDir(t, dir)
	// 99 kept from before plus the new run's file
	assert.Len(t, remaining, 100)
	assert.Contains(t, remaining, "testapp-20260314-092653.log")
	for _, name := range byAge[:21] {
		assert.NotContains(t, remaining, name)
	}
	assert.Equal(t, uint64(21), s.Stats().FilesDeleted)
}

func TestSetupCustomRetention(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "testapp")
	populateLogsDir(t, dir, 10)

	s, _, _, _ := createTestSinkIn(t, tmpDir, 3)
	defer s.Shutdown()

	assert.Len(t, listDir(t, dir), 4)
}

func TestSetupFailureFallback(t *testing.T) {
	tmpDir := t.TempDir()
	// A regular file where the data root should be
	blocker := filepath.Join(tmpDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	console := &lockedBuffer{}
	sub := &recordingSubscriber{}
	s := NewSink(WithConsoleWriter(console), WithSubscriber(sub))

	cfg := DefaultConfig()
	cfg.Name = "testapp"
	cfg.DataRoot = blocker
	cfg.Filter = "errors_only"

	// Setup failure never surfaces as an error
	require.NoError(t, s.ApplyConfig(cfg))
	require.NoError(t, s.Start())
	defer s.Shutdown()

	assert.Error(t, s.SetupError())
	assert.Empty(t, s.LogFilePath())
	assert.False(t, s.Stats().FileOpen)
	// Fallback bypasses the errors_only filter
	assert.Contains(t, console.String(), "[LOGGER] Failed to create logs directory\n")

	// Console and subscribers keep working
	s.HandleMessage("net", SeverityCritical, "still here")
	require.NoError(t, s.Flush(time.Second))
	assert.Contains(t, console.String(), "[net] still here")
	assert.Contains(t, sub.Text(), "still here")
	assert.Equal(t, int64(1), s.ErrorCount())
}

// skipIfRoot skips tests relying on permission denial
func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
}

func TestCheckDirAccess(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, checkDirAccess(dir))

	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	err := checkDirAccess(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")

	err = checkDirAccess(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestSetupAccessFailure(t *testing.T) {
	skipIfRoot(t)

	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "testapp")
	require.NoError(t, os.Mkdir(dir, 0000))
	defer os.Chmod(dir, 0755)

	s, console, sub, _ := createTestSinkIn(t, tmpDir, defaultMaxFiles)
	defer s.Shutdown()

	assert.Error(t, s.SetupError())
	assert.Empty(t, s.LogFilePath())
	assert.Contains(t, console.String(), "[LOGGER] Failed to access logs directory\n")

	s.HandleMessage("net", SeverityWarning, "still delivered")
	require.NoError(t, s.Flush(time.Second))
	assert.Contains(t, sub.Text(), "still delivered")
}

func TestPruneFailureAborts(t *testing.T) {
	skipIfRoot(t)

	dir := filepath.Join(t.TempDir(), "logs")
	byAge := populateLogsDir(t, dir, 5)
	require.NoError(t, os.Chmod(dir, 0555))
	defer os.Chmod(dir, 0755)

	console := &lockedBuffer{}
	s := NewSink(WithConsoleWriter(console))
	err := s.pruneOldFiles(dir, 3)
	require.Error(t, err)

	// The first failed deletion stops the pass
	assert.Equal(t, "[LOGGER] Failed to remove file: "+byAge[0]+"\n", console.String())
	assert.Zero(t, s.state.TotalDeletions.Load())
	assert.Len(t, listDir(t, dir), 5)
}

func TestSetupPruneFailure(t *testing.T) {
	skipIfRoot(t)

	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "testapp")
	byAge := populateLogsDir(t, dir, 5)
	require.NoError(t, os.Chmod(dir, 0555))
	defer os.Chmod(dir, 0755)

	s, console, sub, _ := createTestSinkIn(t, tmpDir, 3)
	defer s.Shutdown()

	assert.Error(t, s.SetupError())
	assert.Empty(t, s.LogFilePath())
	assert.False(t, s.Stats().FileOpen)
	assert.Equal(t,
		"[LOGGER] Failed to remove file: "+byAge[0]+"\n[LOGGER] Failed to remove old files\n",
		console.String())

	s.HandleMessage("net", SeverityCritical, "still delivered")
	require.NoError(t, s.Flush(time.Second))
	assert.Contains(t, sub.Text(), "still delivered")
	assert.Equal(t, int64(1), s.ErrorCount())
}

func TestSetupOpenFailure(t *testing.T) {
	tmpDir := t.TempDir()
	// A directory already occupies the run's file name
	target := filepath.Join(tmpDir, "testapp", "testapp-20260314-092653.log")
	require.NoError(t, os.MkdirAll(target, 0755))

	s, console, sub, _ := createTestSinkIn(t, tmpDir, defaultMaxFiles)
	defer s.Shutdown()

	assert.Error(t, s.SetupError())
	assert.Empty(t, s.LogFilePath())
	assert.False(t, s.Stats().FileOpen)
	assert.Contains(t, console.String(), "[LOGGER] Failed to open log file: ")
	// Logs directory is still known
	assert.Equal(t, filepath.Join(tmpDir, "testapp"), s.LogsPath())

	// Console and subscribers keep working
	s.HandleMessage("net", SeverityCritical, "no file today")
	require.NoError(t, s.Flush(time.Second))
	assert.Contains(t, console.String(), "[net] no file today\n")
	assert.Contains(t, sub.Text(), `<font color="#ff1f00">[net] no file today</font><br>`)
	assert.Equal(t, int64(1), s.ErrorCount())
}

func TestFileDisabled(t *testing.T) {
	tmpDir := t.TempDir()
	s := NewSink(WithConsoleWriter(&lockedBuffer{}))

	cfg := DefaultConfig()
	cfg.DataRoot = tmpDir
	cfg.EnableFile = false
	require.NoError(t, s.ApplyConfig(cfg))
	defer s.Shutdown()

	assert.NoError(t, s.SetupError())
	assert.Empty(t, s.LogFilePath())
	assert.Equal(t, filepath.Join(tmpDir, "logsink"), s.LogsPath())

	_, err := os.Stat(s.LogsPath())
	assert.True(t, os.IsNotExist(err))
}

func TestLogFileName(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "app-20240102-030405.log", logFileName("app", "log", start))
	assert.Equal(t, "app-20240102-030405", logFileName("app", "", start))
}

func TestPlatformDataDir(t *testing.T) {
	dir := platformDataDir()
	assert.NotEmpty(t, dir)
	assert.True(t, filepath.IsAbs(dir))
}

func TestGetLogDirStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	populateLogsDir(t, dir, 4)

	count, size, err := getLogDirStats(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, int64(8), size)

	count, size, err = getLogDirStats(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, size)
}

// createTestSinkIn creates a started sink over an existing data root
func createTestSinkIn(t *testing.T, root string, maxFiles int64) (*Sink, *lockedBuffer, *recordingSubscriber, string) {
	t.Helper()

	console := &lockedBuffer{}
	sub := &recordingSubscriber{}
	s := NewSink(
		WithConsoleWriter(console),
		WithClock(func() time.Time { return testStart }),
		WithSubscriber(sub),
	)

	cfg := DefaultConfig()
	cfg.Name = "testapp"
	cfg.DataRoot = root
	cfg.MaxFiles = maxFiles
	require.NoError(t, s.ApplyConfig(cfg))
	require.NoError(t, s.Start())

	return s, console, sub, root
}
