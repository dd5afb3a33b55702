package logsink

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// setupStorage resolves the logs directory, prunes it and opens the run's log file.
// Each failure is reported once through the fallback path and leaves file logging disabled.
func (s *Sink) setupStorage(cfg *Config) {
	s.state.SetupErr.Store(setupError{})

	startTime := s.now()
	s.state.StartTime.Store(startTime)

	root := cfg.DataRoot
	if root == "" {
		root = platformDataDir()
	}
	dir := filepath.Join(root, cfg.Name)

	s.mu.Lock()
	s.logsDir = dir
	s.mu.Unlock()

	if !cfg.EnableFile {
		return
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		s.setupFailed(fmtErrorf("failed to create logs directory '%s': %w", dir, err), "Failed to create logs directory")
		return
	}

	if err := checkDirAccess(dir); err != nil {
		s.setupFailed(err, "Failed to access logs directory")
		return
	}

	if err := s.pruneOldFiles(dir, cfg.MaxFiles); err != nil {
		s.setupFailed(err, "Failed to remove old files")
		return
	}

	path := filepath.Join(dir, logFileName(cfg.Name, cfg.Extension, startTime))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		s.setupFailed(fmtErrorf("failed to open log file '%s': %w", path, err), "Failed to open log file: %v", err)
		return
	}

	s.mu.Lock()
	s.file = file
	s.filePath = path
	s.dirty = false
	s.mu.Unlock()

	s.state.CurrentSize.Store(0)
	s.state.FileOpen.Store(true)
}

// setupFailed records a setup error and emits the fallback diagnostic
func (s *Sink) setupFailed(err error, format string, args ...any) {
	s.state.SetupErr.Store(setupError{err: err})
	s.fallbackMessage(format, args...)
}

// checkDirAccess verifies that path is a directory the process can open
func checkDirAccess(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmtErrorf("failed to stat logs directory '%s': %w", path, err)
	}
	if !info.IsDir() {
		return fmtErrorf("logs path '%s' is not a directory", path)
	}

	d, err := os.Open(path)
	if err != nil {
		return fmtErrorf("failed to open logs directory '%s': %w", path, err)
	}
	return d.Close()
}

// pruneOldFiles deletes the oldest regular files until at most maxFiles remain.
// The first failed deletion aborts the pass.
func (s *Sink) pruneOldFiles(dir string, maxFiles int64) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmtErrorf("failed to read logs directory '%s' for cleanup: %w", dir, err)
	}

	type logFileMeta struct {
		name    string
		modTime time.Time
	}
	var files []logFileMeta
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil {
			continue
		}
		files = append(files, logFileMeta{name: entry.Name(), modTime: info.ModTime()})
	}

	excess := int64(len(files)) - maxFiles
	if excess <= 0 {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].name < files[j].name
		}
		return files[i].modTime.Before(files[j].modTime)
	})

	for _, f := range files[:excess] {
		if err := os.Remove(filepath.Join(dir, f.name)); err != nil {
			s.fallbackMessage("Failed to remove file: %s", f.name)
			return fmtErrorf("failed to remove old log file '%s': %w", f.name, err)
		}
		s.state.TotalDeletions.Add(1)
	}

	return nil
}

// logFileName composes "<name>-<yyyyMMdd-hhmmss>.<ext>"
func logFileName(name, ext string, start time.Time) string {
	filename := name + "-" + start.Format(fileTimestampLayout)
	if ext != "" {
		filename += "." + ext
	}
	return filename
}

// platformDataDir returns the per-user writable data location, or the temp directory
func platformDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir
		}
	case "darwin", "ios":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" && filepath.IsAbs(dir) {
			return dir
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share")
		}
	}
	return os.TempDir()
}

// getLogDirStats counts regular files in the logs directory and sums their size
func getLogDirStats(dir string) (count int, size int64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return -1, -1, fmtErrorf("failed to read logs directory '%s': %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}

// performSync syncs the log file. Unless forced, only when data was written since the last sync
func (s *Sink) performSync(force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil || (!force && !s.dirty) {
		return
	}
	if err := s.file.Sync(); err != nil {
		s.state.WriteErrors.Add(1)
		return
	}
	s.dirty = false
}
