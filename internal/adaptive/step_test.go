package adaptive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/polegion/internal/difficulty"
)

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func attempt(correct bool, tier difficulty.Tier, secs float64) AttemptResult {
	return AttemptResult{
		LearnerID:        "learner-1",
		TopicKey:         "angles",
		Tier:             tier,
		IsCorrect:        correct,
		TimeTakenSeconds: secs,
	}
}

func run(t *testing.T, cfg Config, st *State, attempts ...AttemptResult) (*State, []Result) {
	t.Helper()
	var results []Result
	for _, a := range attempts {
		res, err := Step(cfg, st, a, fixedNow)
		require.NoError(t, err)
		results = append(results, res)
		st = res.State
	}
	return st, results
}

func TestStep_PromotesAfterThreeCorrect(t *testing.T) {
	cfg := DefaultConfig()
	a := attempt(true, difficulty.TierEasy, 10)

	st, results := run(t, cfg, nil, a, a, a)

	assert.Equal(t, difficulty.TierIntermediate, st.CurrentTier)
	assert.Equal(t, 0, st.ConsecutiveCorrect)
	assert.Equal(t, int64(3), st.Episode)
	for _, r := range results {
		assert.Equal(t, 125, r.XPAwarded(), "10*10 + 5 + 20")
	}
	assert.Equal(t, ActionHold, results[0].Action)
	assert.Equal(t, ActionHold, results[1].Action)
	assert.Equal(t, ActionPromote, results[2].Action)
	assert.True(t, results[2].Transitioned())
}

func TestStep_DemotesAfterTwoIncorrect(t *testing.T) {
	cfg := DefaultConfig()
	start := NewState(Key{"learner-1", "angles"})
	start.CurrentTier = difficulty.TierIntermediate

	st, results := run(t, cfg, start,
		attempt(false, difficulty.TierIntermediate, 40),
		attempt(false, difficulty.TierIntermediate, 40),
	)

	assert.Equal(t, difficulty.TierEasy, st.CurrentTier)
	assert.Equal(t, 0, st.ConsecutiveIncorrect)
	assert.Equal(t, ActionDemote, results[1].Action)
}

func TestStep_ClampsAtLadderEnds(t *testing.T) {
	cfg := DefaultConfig()

	top := NewState(Key{"learner-1", "angles"})
	top.CurrentTier = difficulty.TierHard
	correct := attempt(true, difficulty.TierHard, 5)
	st, results := run(t, cfg, top, correct, correct, correct, correct, correct, correct)
	assert.Equal(t, difficulty.TierHard, st.CurrentTier)
	for _, r := range results {
		assert.NotEqual(t, ActionPromote, r.Action)
	}

	wrong := attempt(false, difficulty.TierEasy, 50)
	st, results = run(t, cfg, nil, wrong, wrong, wrong, wrong)
	assert.Equal(t, difficulty.TierEasy, st.CurrentTier)
	for _, r := range results {
		assert.NotEqual(t, ActionDemote, r.Action)
	}
}

func TestStep_CounterExclusivityAndEpisodes(t *testing.T) {
	cfg := DefaultConfig()
	pattern := []bool{true, false, true, true, false, false, true, true, true, true, false, true}

	var st *State
	for i, correct := range pattern {
		res, err := Step(cfg, st, attempt(correct, difficulty.TierIntermediate, 20), fixedNow)
		require.NoError(t, err)

		assert.True(t, res.State.ConsecutiveCorrect == 0 || res.State.ConsecutiveIncorrect == 0,
			"step %d: both counters positive (%d, %d)", i, res.State.ConsecutiveCorrect, res.State.ConsecutiveIncorrect)
		assert.Equal(t, int64(i+1), res.State.Episode)
		assert.Equal(t, res.State.Episode, res.Event.Episode())
		st = res.State
	}
}

func TestStep_DoesNotMutateInput(t *testing.T) {
	cfg := DefaultConfig()
	prev := NewState(Key{"learner-1", "angles"})
	prev.QValues["x|hold"] = 0.5

	res, err := Step(cfg, prev, attempt(true, difficulty.TierEasy, 10), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, int64(0), prev.Episode)
	assert.Equal(t, 0, prev.ConsecutiveCorrect)
	assert.Len(t, prev.QValues, 1)
	assert.Len(t, res.State.QValues, 2)
}

func TestStep_QValueUpdate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningRate = 0.5

	res, err := Step(cfg, nil, attempt(true, difficulty.TierHard, 10), fixedNow)
	require.NoError(t, err)

	ev := res.Event
	assert.Equal(t, "easy:c0:i0", ev.StateKey())
	assert.Equal(t, "hold", ev.Action())
	assert.Equal(t, 0.0, ev.OldQValue())
	assert.InDelta(t, 1.0, ev.Reward(), 1e-9, "325/325")
	assert.InDelta(t, 0.5, ev.NewQValue(), 1e-9)
	assert.InDelta(t, 0.5, ev.QValueImprovement(), 1e-9)
	assert.InDelta(t, 0.5, res.State.QValue("easy:c0:i0", ActionHold), 1e-9)
	assert.Equal(t, fixedNow, ev.Timestamp())

	// Same descriptor and action again moves halfway to the reward.
	res2, err := Step(cfg, ResetState(res.State, false, fixedNow), attempt(true, difficulty.TierHard, 10), fixedNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res2.Event.OldQValue(), 1e-9)
	assert.InDelta(t, 0.75, res2.Event.NewQValue(), 1e-9)
}

func TestStep_QValueMonotonicInReward(t *testing.T) {
	cfg := DefaultConfig()
	low, err := Step(cfg, nil, attempt(false, difficulty.TierEasy, 60), fixedNow)
	require.NoError(t, err)
	high, err := Step(cfg, nil, attempt(false, difficulty.TierHard, 60), fixedNow)
	require.NoError(t, err)

	assert.Less(t, low.Event.NewQValue(), high.Event.NewQValue())
	assert.LessOrEqual(t, high.Event.NewQValue(), 1.0)
}

func TestStep_UnnormalizedReward(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NormalizeReward = false
	cfg.LearningRate = 1

	res, err := Step(cfg, nil, attempt(false, difficulty.TierEasy, 45), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Event.Reward())
	assert.Equal(t, 100.0, res.Event.NewQValue())
}

func TestStep_InvalidAttempts(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		a    AttemptResult
	}{
		{"unknown tier", attempt(true, difficulty.Tier("expert"), 10)},
		{"empty tier", attempt(true, "", 10)},
		{"negative time", attempt(true, difficulty.TierEasy, -1)},
		{"missing learner", AttemptResult{TopicKey: "angles", Tier: difficulty.TierEasy}},
		{"missing topic", AttemptResult{LearnerID: "l", Tier: difficulty.TierEasy}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Step(cfg, nil, tt.a, fixedNow)
			assert.ErrorIs(t, err, ErrInvalidAttempt)
		})
	}
}

func TestStep_RejectsForeignState(t *testing.T) {
	other := NewState(Key{"someone-else", "angles"})
	_, err := Step(DefaultConfig(), other, attempt(true, difficulty.TierEasy, 10), fixedNow)
	assert.ErrorIs(t, err, ErrInvalidAttempt)
}

func TestResetState(t *testing.T) {
	cfg := DefaultConfig()
	a := attempt(true, difficulty.TierEasy, 10)
	st, _ := run(t, cfg, nil, a, a, a, a)
	require.NotEmpty(t, st.QValues)

	soft := ResetState(st, false, fixedNow)
	assert.Equal(t, difficulty.TierEasy, soft.CurrentTier)
	assert.Zero(t, soft.ConsecutiveCorrect)
	assert.Zero(t, soft.Episode)
	assert.Equal(t, st.QValues, soft.QValues)

	full := ResetState(st, true, fixedNow)
	assert.Empty(t, full.QValues)
}

func TestDescriptorCapsCounts(t *testing.T) {
	cfg := DefaultConfig()
	st := NewState(Key{"l", "t"})
	st.CurrentTier = difficulty.TierHard
	st.ConsecutiveCorrect = 17
	assert.Equal(t, "hard:c3:i0", Descriptor(cfg, st))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{PromotionThreshold: 0, DemotionThreshold: 2, LearningRate: 0.1},
		{PromotionThreshold: 3, DemotionThreshold: 0, LearningRate: 0.1},
		{PromotionThreshold: 3, DemotionThreshold: 2, LearningRate: 0},
		{PromotionThreshold: 3, DemotionThreshold: 2, LearningRate: 1.5},
	}
	for _, c := range bad {
		assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
	}
}
