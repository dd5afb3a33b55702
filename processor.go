package logsink

// processMessages is the flush loop running in a separate goroutine
func (s *Sink) processMessages(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	defer s.state.ProcessorExited.Store(true)

	timers := s.setupProcessingTimers()
	defer s.closeProcessingTimers(timers)

	// Send initial heartbeat immediately instead of waiting for first tick
	if s.getConfig().HeartbeatLevel > HeartbeatOff {
		s.handleHeartbeat()
	}

	for {
		select {
		case <-done:
			// Deliver what is left before exiting
			s.flushPending()
			s.performSync(false)
			return

		case <-timers.flushTicker.C:
			s.handleFlushTick()

		case confirmChan := <-s.state.flushRequestChan:
			s.handleFlushRequest(confirmChan)

		case <-timers.heartbeatChan:
			s.handleHeartbeat()
		}
	}
}

// handleFlushTick handles the periodic flush timer tick
func (s *Sink) handleFlushTick() {
	s.flushPending()

	if s.getConfig().EnablePeriodicSync {
		s.performSync(false)
	}
}

// handleFlushRequest handles an explicit flush request and confirms it
func (s *Sink) handleFlushRequest(confirmChan chan struct{}) {
	s.flushPending()
	s.performSync(true)
	close(confirmChan)
}

// flushPending hands the buffered messages to subscribers as one batch and resets the buffer.
// Does nothing when the buffer is empty.
func (s *Sink) flushPending() {
	s.mu.Lock()
	if len(s.pendingEntries) == 0 {
		s.mu.Unlock()
		return
	}

	batch := Batch{
		Text:    string(s.pendingText),
		Entries: s.pendingEntries,
	}
	s.pendingText = s.pendingText[:0]
	s.pendingEntries = nil
	s.mu.Unlock()

	s.state.TotalBatches.Add(1)
	s.notifyMessages(batch)
}
