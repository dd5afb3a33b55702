package logsink

import (
	"fmt"
	"strings"
	"time"

	"github.com/lixenwraith/logsink/formatter"
)

// handleHeartbeat processes a heartbeat timer tick
func (s *Sink) handleHeartbeat() {
	heartbeatLevel := s.getConfig().HeartbeatLevel

	if heartbeatLevel >= HeartbeatProc {
		s.logProcHeartbeat()
	}

	if heartbeatLevel >= HeartbeatDisk {
		s.logDiskHeartbeat()
	}
}

// logProcHeartbeat logs intake and delivery statistics
func (s *Sink) logProcHeartbeat() {
	sequence := s.state.HeartbeatSequence.Add(1)

	var uptimeHours float64
	if startTime, ok := s.state.StartTime.Load().(time.Time); ok && !startTime.IsZero() {
		uptimeHours = time.Since(startTime).Hours()
	}

	s.writeHeartbeatRecord(
		"type", "proc",
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", uptimeHours),
		"handled_messages", s.state.TotalMessages.Load(),
		"error_count", s.ErrorCount(),
		"delivered_batches", s.state.TotalBatches.Load(),
		"write_errors", s.state.WriteErrors.Load(),
	)
}

// logDiskHeartbeat logs logs directory statistics
func (s *Sink) logDiskHeartbeat() {
	sequence := s.state.HeartbeatSequence.Load()

	fileCount, dirSize, err := getLogDirStats(s.LogsPath())
	totalSizeMB := float64(-1)
	if err == nil {
		totalSizeMB = float64(dirSize) / (1024 * 1024)
	}

	s.writeHeartbeatRecord(
		"type", "disk",
		"sequence", sequence,
		"log_file_count", fileCount,
		"total_log_size_mb", fmt.Sprintf("%.2f", totalSizeMB),
		"current_file_size_mb", fmt.Sprintf("%.2f", float64(s.state.CurrentSize.Load())/(1024*1024)),
		"deleted_files", s.state.TotalDeletions.Load(),
		"file_open", s.state.FileOpen.Load(),
	)
}

// writeHeartbeatRecord formats key/value pairs and hands them to the intake as an internal debug message
func (s *Sink) writeHeartbeatRecord(pairs ...any) {
	if s.state.ShutdownCalled.Load() {
		return
	}

	var sb strings.Builder
	sb.WriteString("heartbeat")
	for i := 0; i+1 < len(pairs); i += 2 {
		sb.WriteByte(' ')
		sb.WriteString(formatter.Args(pairs[i]))
		sb.WriteByte('=')
		sb.WriteString(formatter.Args(pairs[i+1]))
	}

	s.HandleMessage(internalCategory, SeverityDebug, sb.String())
}
