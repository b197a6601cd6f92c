package adaptive

import (
	"context"

	"github.com/abhisek/polegion/internal/events"
)

// Repository persists adaptive state and the Q-value event log.
type Repository interface {
	// LoadState returns the state for key, or nil if none exists.
	LoadState(ctx context.Context, key Key) (*State, error)

	// CommitAttempt saves st and appends ev as a single atomic step. When a
	// state is already stored, st must be its direct successor
	// (st.Episode == stored.Episode+1); otherwise the commit fails with
	// ErrStaleState and nothing is written.
	CommitAttempt(ctx context.Context, st *State, ev events.QValueUpdatedEvent) error

	// SaveState overwrites the state without appending an event.
	SaveState(ctx context.Context, st *State) error
}

// Snapshotter is implemented by repositories that keep state history.
// The controller records a snapshot before every reset.
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, st *State, reason string) error
}
