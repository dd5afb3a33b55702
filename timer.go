package logsink

import (
	"time"
)

// TimerSet holds all timers used in processMessages
type TimerSet struct {
	flushTicker     *time.Ticker
	heartbeatTicker *time.Ticker
	heartbeatChan   <-chan time.Time
}

// setupProcessingTimers creates and configures all necessary timers for the processor
func (s *Sink) setupProcessingTimers() *TimerSet {
	timers := &TimerSet{}

	flushInterval := time.Duration(s.getConfig().FlushIntervalMs) * time.Millisecond
	if flushInterval < minWaitTime {
		flushInterval = minWaitTime
	}
	timers.flushTicker = time.NewTicker(flushInterval)

	timers.heartbeatChan = s.setupHeartbeatTimer(timers)

	return timers
}

// closeProcessingTimers stops all active timers
func (s *Sink) closeProcessingTimers(timers *TimerSet) {
	timers.flushTicker.Stop()
	if timers.heartbeatTicker != nil {
		timers.heartbeatTicker.Stop()
	}
}

// setupHeartbeatTimer configures the heartbeat timer if heartbeats are enabled.
// A nil channel disables the select case.
func (s *Sink) setupHeartbeatTimer(timers *TimerSet) <-chan time.Time {
	c := s.getConfig()
	if c.HeartbeatLevel <= HeartbeatOff {
		return nil
	}

	intervalS := c.HeartbeatIntervalS
	if intervalS <= 0 {
		intervalS = 60
	}
	timers.heartbeatTicker = time.NewTicker(time.Duration(intervalS) * time.Second)
	return timers.heartbeatTicker.C
}
