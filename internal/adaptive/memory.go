package adaptive

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/polegion/internal/events"
)

// MemoryRepository keeps state and events in process memory.
type MemoryRepository struct {
	mu        sync.Mutex
	states    map[Key]*State
	log       *events.MemoryLog
	snapshots map[Key][]*State
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		states:    make(map[Key]*State),
		log:       events.NewMemoryLog(),
		snapshots: make(map[Key][]*State),
	}
}

func (m *MemoryRepository) LoadState(_ context.Context, key Key) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[key]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

func (m *MemoryRepository) CommitAttempt(ctx context.Context, st *State, ev events.QValueUpdatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.states[st.Key()]; ok && st.Episode != cur.Episode+1 {
		return fmt.Errorf("%w: stored episode %d, committing %d", ErrStaleState, cur.Episode, st.Episode)
	}
	if err := m.log.Append(ctx, ev); err != nil {
		return err
	}
	m.states[st.Key()] = st.Clone()
	return nil
}

func (m *MemoryRepository) SaveState(_ context.Context, st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.Key()] = st.Clone()
	return nil
}

func (m *MemoryRepository) SaveSnapshot(_ context.Context, st *State, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[st.Key()] = append(m.snapshots[st.Key()], st.Clone())
	return nil
}

// Events returns every committed event in commit order.
func (m *MemoryRepository) Events() []events.QValueUpdatedEvent {
	return m.log.Events()
}

// Snapshots returns the pre-reset snapshots recorded for key.
func (m *MemoryRepository) Snapshots(key Key) []*State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*State, len(m.snapshots[key]))
	copy(out, m.snapshots[key])
	return out
}
