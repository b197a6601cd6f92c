package events

import (
	"context"
	"sync"
)

// Log is an append-only sink for events.
type Log interface {
	Append(ctx context.Context, e QValueUpdatedEvent) error
}

// MemoryLog keeps events in process memory. Safe for concurrent use.
type MemoryLog struct {
	mu     sync.Mutex
	events []QValueUpdatedEvent
}

// NewMemoryLog creates an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(_ context.Context, e QValueUpdatedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

// Events returns a copy of all appended events in append order.
func (l *MemoryLog) Events() []QValueUpdatedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]QValueUpdatedEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of appended events.
func (l *MemoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
