package redisstore

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/difficulty"
	"github.com/abhisek/polegion/internal/reward"
)

// openTestRedis runs against an in-process miniredis, or against the server
// named by POLEGION_TEST_REDIS_ADDR when set. Each test gets its own key
// prefix.
func openTestRedis(t *testing.T) (*Repository, *Ledger) {
	t.Helper()
	addr := os.Getenv("POLEGION_TEST_REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}
	ctx := context.Background()
	rdb, err := NewClient(ctx, Options{Addr: addr})
	require.NoError(t, err)

	prefix := "polegion-test-" + uuid.NewString()
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		rdb.Close()
	})
	return New(rdb, prefix), NewLedger(rdb, prefix)
}

func TestKeys(t *testing.T) {
	r := New(nil, "")
	k := adaptive.Key{LearnerID: "alice", TopicKey: "fractions"}
	assert.Equal(t, "polegion:state:alice:fractions", r.stateKey(k))
	assert.Equal(t, "polegion:events:alice:fractions", r.eventsKey(k))
	assert.Equal(t, "polegion:snapshots:alice:fractions", r.snapshotsKey(k))

	l := NewLedger(nil, "custom")
	assert.Equal(t, "custom:xp", l.key)
}

func TestKeysAreDistinctForColonIDs(t *testing.T) {
	r := New(nil, "")
	a := adaptive.Key{LearnerID: "ana:x", TopicKey: "angles"}
	b := adaptive.Key{LearnerID: "ana", TopicKey: "x:angles"}

	assert.NotEqual(t, r.stateKey(a), r.stateKey(b))
	assert.NotEqual(t, r.eventsKey(a), r.eventsKey(b))
	assert.NotEqual(t, r.snapshotsKey(a), r.snapshotsKey(b))
	assert.Equal(t, "polegion:state:ana%3Ax:angles", r.stateKey(a))
}

func TestRepositoryWithController(t *testing.T) {
	repo, _ := openTestRedis(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ctrl, err := adaptive.NewController(adaptive.DefaultConfig(), repo,
		adaptive.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	a := adaptive.AttemptResult{
		LearnerID:        "alice",
		TopicKey:         "fractions",
		Tier:             difficulty.TierEasy,
		IsCorrect:        true,
		TimeTakenSeconds: 10,
	}
	for range 3 {
		_, err := ctrl.Update(ctx, a)
		require.NoError(t, err)
	}

	st, err := repo.LoadState(ctx, a.Key())
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, difficulty.TierIntermediate, st.CurrentTier)
	assert.Equal(t, int64(3), st.Episode)

	evs, err := repo.Events(ctx, a.Key())
	require.NoError(t, err)
	require.Len(t, evs, 3)
	for i, ev := range evs {
		assert.Equal(t, int64(i+1), ev.Episode())
	}
}

func TestRepositoryRejectsStaleCommit(t *testing.T) {
	repo, _ := openTestRedis(t)
	ctx := context.Background()

	key := adaptive.Key{LearnerID: "alice", TopicKey: "fractions"}
	st := adaptive.NewState(key)
	st.Episode = 2
	require.NoError(t, repo.SaveState(ctx, st))

	res, err := adaptive.Step(adaptive.DefaultConfig(), adaptive.NewState(key), adaptive.AttemptResult{
		LearnerID: "alice", TopicKey: "fractions", Tier: difficulty.TierEasy, IsCorrect: true,
	}, time.Now())
	require.NoError(t, err)

	err = repo.CommitAttempt(ctx, res.State, res.Event)
	assert.ErrorIs(t, err, ErrStaleState)
}

func TestLoadMissingState(t *testing.T) {
	repo, _ := openTestRedis(t)
	st, err := repo.LoadState(context.Background(), adaptive.Key{LearnerID: "x", TopicKey: "y"})
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestLedger(t *testing.T) {
	_, ledger := openTestRedis(t)
	ctx := context.Background()

	_, err := ledger.AddXP(ctx, "alice", 125)
	require.NoError(t, err)
	total, err := ledger.AddXP(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(130), total)
	_, err = ledger.AddXP(ctx, "bob", 325)
	require.NoError(t, err)

	top, err := ledger.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []reward.Standing{
		{LearnerID: "bob", TotalXP: 325},
		{LearnerID: "alice", TotalXP: 130},
	}, top)

	missing, err := ledger.TotalXP(ctx, "carol")
	require.NoError(t, err)
	assert.Zero(t, missing)
}

func TestColonIDsKeepIndependentState(t *testing.T) {
	repo, _ := openTestRedis(t)
	ctx := context.Background()
	ctrl, err := adaptive.NewController(adaptive.DefaultConfig(), repo)
	require.NoError(t, err)

	first := adaptive.AttemptResult{LearnerID: "ana:x", TopicKey: "angles", Tier: difficulty.TierEasy, IsCorrect: true}
	second := adaptive.AttemptResult{LearnerID: "ana", TopicKey: "x:angles", Tier: difficulty.TierEasy, IsCorrect: false}

	_, err = ctrl.Update(ctx, first)
	require.NoError(t, err)
	res, err := ctrl.Update(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.State.Episode)

	for _, a := range []adaptive.AttemptResult{first, second} {
		evs, err := repo.Events(ctx, a.Key())
		require.NoError(t, err)
		require.Len(t, evs, 1)
		assert.Equal(t, a.LearnerID, evs[0].LearnerID())
	}
}

func TestResetInvalidatesInFlightCommit(t *testing.T) {
	repo, _ := openTestRedis(t)
	ctx := context.Background()
	ctrl, err := adaptive.NewController(adaptive.DefaultConfig(), repo)
	require.NoError(t, err)

	a := adaptive.AttemptResult{LearnerID: "alice", TopicKey: "fractions", Tier: difficulty.TierEasy, IsCorrect: true}
	for range 5 {
		_, err := ctrl.Update(ctx, a)
		require.NoError(t, err)
	}

	// Another process loads episode 5 and is about to commit episode 6.
	loaded, err := repo.LoadState(ctx, a.Key())
	require.NoError(t, err)
	res, err := adaptive.Step(adaptive.DefaultConfig(), loaded, a, time.Now())
	require.NoError(t, err)

	_, err = ctrl.Reset(ctx, a.Key(), false)
	require.NoError(t, err)

	err = repo.CommitAttempt(ctx, res.State, res.Event)
	require.ErrorIs(t, err, ErrStaleState)

	st, err := repo.LoadState(ctx, a.Key())
	require.NoError(t, err)
	assert.Zero(t, st.Episode)
	assert.Equal(t, difficulty.TierEasy, st.CurrentTier)
}

func TestSnapshotsAreTrimmed(t *testing.T) {
	repo, _ := openTestRedis(t)
	ctx := context.Background()
	key := adaptive.Key{LearnerID: "alice", TopicKey: "fractions"}

	for i := range snapshotHistory + 5 {
		st := adaptive.NewState(key)
		st.Episode = int64(i)
		require.NoError(t, repo.SaveSnapshot(ctx, st, "reset"))
	}

	raws, err := repo.rdb.LRange(ctx, repo.snapshotsKey(key), 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, raws, snapshotHistory)

	var oldest snapshotEntry
	require.NoError(t, json.Unmarshal([]byte(raws[0]), &oldest))
	assert.Equal(t, int64(5), oldest.State.Episode)
	assert.Equal(t, "reset", oldest.Reason)
}
