package reward

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
)

// Standing is a learner's accumulated XP.
type Standing struct {
	LearnerID string `json:"learner_id"`
	TotalXP   int64  `json:"total_xp"`
}

// Ledger accumulates awarded XP per learner.
type Ledger interface {
	// AddXP credits xp to learnerID and returns the new total.
	AddXP(ctx context.Context, learnerID string, xp int) (int64, error)

	// TotalXP returns the accumulated XP for learnerID, zero if unknown.
	TotalXP(ctx context.Context, learnerID string) (int64, error)

	// Top returns up to n standings, highest first. n <= 0 returns all.
	Top(ctx context.Context, n int) ([]Standing, error)
}

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mu     sync.Mutex
	totals map[string]int64
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{totals: make(map[string]int64)}
}

func (l *MemoryLedger) AddXP(_ context.Context, learnerID string, xp int) (int64, error) {
	if learnerID == "" {
		return 0, fmt.Errorf("add xp: learner id is required")
	}
	if xp < 0 {
		return 0, fmt.Errorf("add xp: negative amount %d", xp)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals[learnerID] += int64(xp)
	return l.totals[learnerID], nil
}

func (l *MemoryLedger) TotalXP(_ context.Context, learnerID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals[learnerID], nil
}

func (l *MemoryLedger) Top(_ context.Context, n int) ([]Standing, error) {
	l.mu.Lock()
	out := make([]Standing, 0, len(l.totals))
	for id, xp := range l.totals {
		out = append(out, Standing{LearnerID: id, TotalXP: xp})
	}
	l.mu.Unlock()

	SortStandings(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// SortStandings orders by XP descending, then learner ID.
func SortStandings(s []Standing) {
	slices.SortFunc(s, func(a, b Standing) int {
		if c := cmp.Compare(b.TotalXP, a.TotalXP); c != 0 {
			return c
		}
		return cmp.Compare(a.LearnerID, b.LearnerID)
	})
}
