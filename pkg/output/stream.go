package output

import "sync"

// Stream fans events out to subscribers synchronously, in subscription
// order. Synchronous delivery keeps event ordering identical to emission
// ordering, which matters for progress rendering.
type Stream struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// Subscribe registers a subscriber. Safe for concurrent use.
func (s *Stream) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// SubscriberCount returns the number of registered subscribers.
func (s *Stream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Emit delivers event to every subscriber whose filter accepts it.
func (s *Stream) Emit(event Event) {
	s.mu.RLock()
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, sub := range subs {
		if sub.ShouldHandle(event) {
			sub.Handle(event)
		}
	}
}
