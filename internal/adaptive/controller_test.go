package adaptive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/polegion/internal/difficulty"
	"github.com/abhisek/polegion/internal/events"
)

func newTestController(t *testing.T, cfg Config) (*Controller, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	c, err := NewController(cfg, repo, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return c, repo
}

// failingRepo wraps MemoryRepository and fails commits on demand.
type failingRepo struct {
	*MemoryRepository
	commitErr error
}

func (f *failingRepo) CommitAttempt(ctx context.Context, st *State, ev events.QValueUpdatedEvent) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	return f.MemoryRepository.CommitAttempt(ctx, st, ev)
}

func TestController_UpdateAutoCreatesAndPersists(t *testing.T) {
	c, repo := newTestController(t, DefaultConfig())
	ctx := context.Background()

	a := attempt(true, difficulty.TierEasy, 10)
	for i := 0; i < 3; i++ {
		res, err := c.Update(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, 125, res.XPAwarded())
	}

	st, err := c.State(ctx, a.Key())
	require.NoError(t, err)
	assert.Equal(t, difficulty.TierIntermediate, st.CurrentTier)
	assert.Equal(t, int64(3), st.Episode)
	assert.Len(t, repo.Events(), 3)
}

func TestController_RequireExistingState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireExistingState = true
	c, _ := newTestController(t, cfg)
	ctx := context.Background()
	a := attempt(true, difficulty.TierEasy, 10)

	_, err := c.Update(ctx, a)
	assert.ErrorIs(t, err, ErrUnknownLearnerTopic)

	_, err = c.Initialize(ctx, a.Key())
	require.NoError(t, err)

	res, err := c.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.State.Episode)
}

func TestController_InvalidAttemptLeavesNoTrace(t *testing.T) {
	c, repo := newTestController(t, DefaultConfig())
	_, err := c.Update(context.Background(), attempt(true, difficulty.TierEasy, -3))
	assert.ErrorIs(t, err, ErrInvalidAttempt)
	assert.Empty(t, repo.Events())
}

func TestController_CommitFailureIsReported(t *testing.T) {
	repo := &failingRepo{MemoryRepository: NewMemoryRepository(), commitErr: errors.New("disk full")}
	c, err := NewController(DefaultConfig(), repo)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Update(ctx, attempt(true, difficulty.TierEasy, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	st, err := repo.LoadState(ctx, Key{"learner-1", "angles"})
	require.NoError(t, err)
	assert.Nil(t, st, "failed commit must not leave state behind")
}

func TestController_CancelledContext(t *testing.T) {
	c, repo := newTestController(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Update(ctx, attempt(true, difficulty.TierEasy, 10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, repo.Events())
}

func TestController_ConcurrentSameKeyIsSerialized(t *testing.T) {
	c, repo := newTestController(t, DefaultConfig())
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Update(ctx, attempt(i%3 != 0, difficulty.TierIntermediate, 12))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := c.State(ctx, Key{"learner-1", "angles"})
	require.NoError(t, err)
	assert.Equal(t, int64(n), st.Episode, "no lost updates")

	evs := repo.Events()
	require.Len(t, evs, n)
	seen := make(map[int64]bool, n)
	for _, e := range evs {
		assert.False(t, seen[e.Episode()], "episode %d emitted twice", e.Episode())
		seen[e.Episode()] = true
	}
	assert.Zero(t, c.locks.size(), "lock entries are released")
}

func TestController_IndependentKeys(t *testing.T) {
	c, _ := newTestController(t, DefaultConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	for l := 0; l < 10; l++ {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(l int) {
				defer wg.Done()
				a := attempt(true, difficulty.TierEasy, 10)
				a.LearnerID = fmt.Sprintf("learner-%d", l)
				_, err := c.Update(ctx, a)
				assert.NoError(t, err)
			}(l)
		}
	}
	wg.Wait()

	for l := 0; l < 10; l++ {
		st, err := c.State(ctx, Key{fmt.Sprintf("learner-%d", l), "angles"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), st.Episode)
		assert.Equal(t, difficulty.TierIntermediate, st.CurrentTier)
	}
}

func TestController_Reset(t *testing.T) {
	c, repo := newTestController(t, DefaultConfig())
	ctx := context.Background()
	key := Key{"learner-1", "angles"}

	_, err := c.Reset(ctx, key, false)
	assert.ErrorIs(t, err, ErrUnknownLearnerTopic)

	a := attempt(true, difficulty.TierEasy, 10)
	for i := 0; i < 4; i++ {
		_, err := c.Update(ctx, a)
		require.NoError(t, err)
	}
	before, err := c.State(ctx, key)
	require.NoError(t, err)

	st, err := c.Reset(ctx, key, false)
	require.NoError(t, err)
	assert.Equal(t, difficulty.TierEasy, st.CurrentTier)
	assert.Zero(t, st.Episode)
	assert.Equal(t, before.QValues, st.QValues)

	snaps := repo.Snapshots(key)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(4), snaps[0].Episode)

	st, err = c.Reset(ctx, key, true)
	require.NoError(t, err)
	assert.Empty(t, st.QValues)
	assert.Len(t, repo.Snapshots(key), 2)
}

func TestNewController_RejectsBadConfig(t *testing.T) {
	_, err := NewController(Config{}, NewMemoryRepository())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewController(DefaultConfig(), nil)
	assert.Error(t, err)
}

// racingRepo lets another writer commit between this controller's load and
// its commit, the way a second process sharing the store would.
type racingRepo struct {
	*MemoryRepository
	interleave func()
}

func (r *racingRepo) LoadState(ctx context.Context, key Key) (*State, error) {
	st, err := r.MemoryRepository.LoadState(ctx, key)
	if r.interleave != nil {
		r.interleave()
	}
	return st, err
}

func TestController_UpdateReappliesAfterConcurrentCommit(t *testing.T) {
	shared := NewMemoryRepository()
	other, err := NewController(DefaultConfig(), shared, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	ctx := context.Background()
	a := attempt(true, difficulty.TierEasy, 10)

	raced := false
	repo := &racingRepo{MemoryRepository: shared}
	repo.interleave = func() {
		if raced {
			return
		}
		raced = true
		_, err := other.Update(ctx, a)
		require.NoError(t, err)
	}
	c, err := NewController(DefaultConfig(), repo, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	res, err := c.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.State.Episode)

	st, err := c.State(ctx, a.Key())
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Episode)
	assert.Equal(t, 2, st.ConsecutiveCorrect)

	evs := shared.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, int64(1), evs[0].Episode())
	assert.Equal(t, int64(2), evs[1].Episode())
}

func TestController_UpdateGivesUpWhenAlwaysStale(t *testing.T) {
	shared := NewMemoryRepository()
	other, err := NewController(DefaultConfig(), shared)
	require.NoError(t, err)

	ctx := context.Background()
	a := attempt(false, difficulty.TierEasy, 10)

	repo := &racingRepo{MemoryRepository: shared}
	repo.interleave = func() {
		_, err := other.Update(ctx, a)
		require.NoError(t, err)
	}
	c, err := NewController(DefaultConfig(), repo)
	require.NoError(t, err)

	_, err = c.Update(ctx, a)
	require.ErrorIs(t, err, ErrStaleState)
	assert.Len(t, shared.Events(), maxCommitAttempts)
}

func TestMemoryRepository_RejectsNonSuccessorCommit(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	key := Key{"learner-1", "angles"}

	st := NewState(key)
	st.Episode = 4
	require.NoError(t, repo.SaveState(ctx, st))

	next := st.Clone()
	next.Episode = 6
	err := repo.CommitAttempt(ctx, next, events.QValueUpdatedEvent{})
	require.ErrorIs(t, err, ErrStaleState)
	assert.Empty(t, repo.Events())
}
