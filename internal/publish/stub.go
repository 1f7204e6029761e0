package publish

import (
	"context"
	"sync"
)

// Recorded is one captured publish call.
type Recorded struct {
	Channel   string
	EventType string
	Data      EventData
}

// Stub is an in-memory publisher for tests.
type Stub struct {
	Err error

	mu     sync.Mutex
	events []Recorded
}

func (s *Stub) Publish(_ context.Context, channel, eventType string, data EventData) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Recorded{Channel: channel, EventType: eventType, Data: data})
	return nil
}

// Events returns a copy of everything published so far.
func (s *Stub) Events() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.events))
	copy(out, s.events)
	return out
}
