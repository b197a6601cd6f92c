package adaptive

import (
	"fmt"
	"time"

	"github.com/abhisek/polegion/internal/difficulty"
	"github.com/abhisek/polegion/internal/events"
	"github.com/abhisek/polegion/internal/reward"
)

// Result is the outcome of applying one attempt to a state.
type Result struct {
	State    *State
	Previous difficulty.Tier
	NextTier difficulty.Tier
	Action   Action
	Outcome  reward.Outcome
	Event    events.QValueUpdatedEvent
}

// XPAwarded is the XP the attempt earned.
func (r Result) XPAwarded() int {
	return r.Outcome.TotalXP
}

// Transitioned reports whether the attempt changed the learner's tier.
func (r Result) Transitioned() bool {
	return r.Previous != r.NextTier
}

// Descriptor summarizes recent performance as the Q-table state. Streak
// counts are capped at their thresholds so the table stays finite.
func Descriptor(cfg Config, s *State) string {
	return fmt.Sprintf("%s:c%d:i%d",
		s.CurrentTier,
		min(s.ConsecutiveCorrect, cfg.PromotionThreshold),
		min(s.ConsecutiveIncorrect, cfg.DemotionThreshold),
	)
}

// Step applies one attempt to prev and returns the new state together with
// the reward and the Q-value event. prev is never modified.
func Step(cfg Config, prev *State, a AttemptResult, now time.Time) (Result, error) {
	if err := ValidateAttempt(a); err != nil {
		return Result{}, err
	}
	if prev == nil {
		prev = NewState(a.Key())
	}
	if prev.Key() != a.Key() {
		return Result{}, fmt.Errorf("%w: attempt for %s applied to state of %s", ErrInvalidAttempt, a.Key(), prev.Key())
	}

	next := prev.Clone()
	if next.QValues == nil {
		next.QValues = make(map[string]float64)
	}
	if !next.CurrentTier.Valid() {
		next.CurrentTier = difficulty.Lowest()
	}
	stateKey := Descriptor(cfg, next)
	action := ActionHold

	if a.IsCorrect {
		next.ConsecutiveCorrect++
		next.ConsecutiveIncorrect = 0
		if next.ConsecutiveCorrect >= cfg.PromotionThreshold && next.CurrentTier != difficulty.Highest() {
			next.CurrentTier = next.CurrentTier.Promote()
			next.ConsecutiveCorrect = 0
			action = ActionPromote
		}
	} else {
		next.ConsecutiveIncorrect++
		next.ConsecutiveCorrect = 0
		if next.ConsecutiveIncorrect >= cfg.DemotionThreshold && next.CurrentTier != difficulty.Lowest() {
			next.CurrentTier = next.CurrentTier.Demote()
			next.ConsecutiveIncorrect = 0
			action = ActionDemote
		}
	}
	next.Episode++
	next.UpdatedAt = now.UTC()

	outcome := reward.ComputeReward(a.IsCorrect, a.TimeTakenSeconds, a.Tier)
	signal := cfg.rewardSignal(outcome.TotalXP)

	qk := QKey(stateKey, action)
	oldQ := next.QValues[qk]
	newQ := oldQ + cfg.LearningRate*(signal-oldQ)
	next.QValues[qk] = newQ

	ev := events.NewQValueUpdated(events.QValueUpdate{
		LearnerID: a.LearnerID,
		TopicKey:  a.TopicKey,
		StateKey:  stateKey,
		Action:    string(action),
		OldQValue: oldQ,
		NewQValue: newQ,
		Reward:    signal,
		Episode:   next.Episode,
		Timestamp: now,
	})

	return Result{
		State:    next,
		Previous: prev.CurrentTier,
		NextTier: next.CurrentTier,
		Action:   action,
		Outcome:  outcome,
		Event:    ev,
	}, nil
}

// ResetState returns prev restored to the initial tier with zero counters and
// episode. Q-values survive unless full is set.
func ResetState(prev *State, full bool, now time.Time) *State {
	next := NewState(prev.Key())
	if !full {
		next.QValues = prev.Clone().QValues
	}
	next.UpdatedAt = now.UTC()
	return next
}
