package logsink

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndToEndCritical(t *testing.T) {
	s, console, sub, _ := createTestSink(t)
	defer s.Shutdown()

	s.HandleMessage("net", SeverityCritical, "conn failed")

	assert.Contains(t, readLogFile(t, s), "[net] conn failed\n")
	assert.Contains(t, console.String(), "[net] conn failed\n")
	assert.Equal(t, int64(1), s.ErrorCount())
	assert.Equal(t, []int64{1}, sub.Counts())

	batches := sub.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, `<font color="#ff1f00">[net] conn failed</font><br>`, batches[0].Text)
}

func TestEndToEndAnonymousDebug(t *testing.T) {
	for _, filter := range []Filter{FilterDefault, FilterErrorsOnly, FilterTerse} {
		t.Run(filter.String(), func(t *testing.T) {
			s, console, sub, _ := createTestSink(t)
			defer s.Shutdown()

			s.SetFilter(filter)
			s.HandleMessage("default", SeverityDebug, "tick")

			assert.Contains(t, readLogFile(t, s), "[default] tick\n")

			if filter == FilterDefault {
				assert.Contains(t, console.String(), "[default] tick")
			} else {
				assert.NotContains(t, console.String(), "tick")
			}
			assert.Empty(t, sub.Batches())
		})
	}
}

func TestConcurrentIntake(t *testing.T) {
	s, _, sub, _ := createTestSink(t)
	defer s.Shutdown()

	cfg := s.GetConfig()
	cfg.FlushIntervalMs = 5
	require.NoError(t, s.ApplyConfig(cfg))

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			category := fmt.Sprintf("worker%d", id)
			for j := 0; j < perGoroutine; j++ {
				s.HandleMessage(category, SeverityInfo, fmt.Sprintf("msg %d", j))
				if j%25 == 0 {
					s.SetFilter(Filter(j % 3))
				}
			}
		}(i)
	}
	wg.Wait()
	s.SetFilter(FilterDefault)
	require.NoError(t, s.Flush(time.Second))

	content := readLogFile(t, s)
	assert.Equal(t, goroutines*perGoroutine, strings.Count(content, "\n"), "every record reaches the file")

	// Every line in the file is a whole record
	for _, line := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		assert.Regexp(t, `^\[worker\d\] msg \d+$`, line)
	}

	for _, b := range sub.Batches() {
		assert.Equal(t, len(b.Entries), strings.Count(b.Text, "<br>"))
	}
}

func TestConfigFileToSink(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfigFile(t, fmt.Sprintf(`
[logsink]
name = "fromfile"
data_root = %q
filter = "terse"
max_files = 5
`, tmpDir))

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)

	console := &lockedBuffer{}
	s := NewSink(WithConsoleWriter(console))
	require.NoError(t, s.ApplyConfig(cfg))
	require.NoError(t, s.Start())
	defer s.Shutdown()

	assert.Equal(t, FilterTerse, s.Filter())
	assert.True(t, strings.HasPrefix(s.LogFilePath(), tmpDir))
	assert.Contains(t, s.LogFilePath(), "fromfile-")

	s.HandleMessage("cfg", SeverityDebug, "not mirrored")
	assert.NotContains(t, console.String(), "not mirrored")
}
