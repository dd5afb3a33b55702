package logsink

import (
	"sync"
)

// subscription pairs a subscriber with its registration id
type subscription struct {
	id  uint64
	sub Subscriber
}

// Subscribe registers sub for error count and batch notifications.
// The returned function removes the registration; calling it more than once is harmless.
func (s *Sink) Subscribe(sub Subscriber) (unsubscribe func()) {
	if sub == nil {
		return func() {}
	}

	s.subMu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscription{id: id, sub: sub})
	s.subMu.Unlock()

	return sync.OnceFunc(func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sn := range s.subscribers {
			if sn.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	})
}

// currentSubscribers returns a snapshot so delivery runs without holding subMu
func (s *Sink) currentSubscribers() []Subscriber {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	subs := make([]Subscriber, len(s.subscribers))
	for i, sn := range s.subscribers {
		subs[i] = sn.sub
	}
	return subs
}

// notifyErrorCount raises the error count changed notification
func (s *Sink) notifyErrorCount(count int64) {
	for _, sub := range s.currentSubscribers() {
		sub.ErrorCountChanged(count)
	}
}

// notifyMessages raises the message batch notification
func (s *Sink) notifyMessages(batch Batch) {
	for _, sub := range s.currentSubscribers() {
		sub.MessagesArrived(batch)
	}
}
