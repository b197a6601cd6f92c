package adaptive

import (
	"fmt"
	"maps"
	"time"

	"github.com/abhisek/polegion/internal/difficulty"
)

// Key identifies the adaptive state of one learner on one topic.
type Key struct {
	LearnerID string
	TopicKey  string
}

func (k Key) String() string {
	return k.LearnerID + "/" + k.TopicKey
}

// Action is the policy decision taken for an attempt.
type Action string

const (
	ActionPromote Action = "promote"
	ActionHold    Action = "hold"
	ActionDemote  Action = "demote"
)

// AllActions returns the actions in ladder order.
func AllActions() []Action {
	return []Action{ActionDemote, ActionHold, ActionPromote}
}

// AttemptResult is a graded attempt supplied by the grading adapter.
type AttemptResult struct {
	LearnerID        string          `json:"learner_id" validate:"required"`
	TopicKey         string          `json:"topic_key" validate:"required"`
	Tier             difficulty.Tier `json:"difficulty_tier" validate:"tier"`
	IsCorrect        bool            `json:"is_correct"`
	TimeTakenSeconds float64         `json:"time_taken_seconds" validate:"gte=0"`
}

// Key returns the learner/topic pair the attempt belongs to.
func (a AttemptResult) Key() Key {
	return Key{LearnerID: a.LearnerID, TopicKey: a.TopicKey}
}

// State is the mutable adaptive state for one learner/topic pair.
// ConsecutiveCorrect and ConsecutiveIncorrect are never both positive.
type State struct {
	LearnerID            string             `json:"learner_id"`
	TopicKey             string             `json:"topic_key"`
	CurrentTier          difficulty.Tier    `json:"current_tier"`
	ConsecutiveCorrect   int                `json:"consecutive_correct"`
	ConsecutiveIncorrect int                `json:"consecutive_incorrect"`
	Episode              int64              `json:"episode"`
	QValues              map[string]float64 `json:"q_values"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// NewState returns the initial state for key: lowest tier, zero counters.
func NewState(key Key) *State {
	return &State{
		LearnerID:   key.LearnerID,
		TopicKey:    key.TopicKey,
		CurrentTier: difficulty.Lowest(),
		QValues:     make(map[string]float64),
	}
}

// Key returns the learner/topic pair this state belongs to.
func (s *State) Key() Key {
	return Key{LearnerID: s.LearnerID, TopicKey: s.TopicKey}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.QValues = make(map[string]float64, len(s.QValues))
	maps.Copy(c.QValues, s.QValues)
	return &c
}

// QValue returns the estimate for taking action in the given state descriptor.
func (s *State) QValue(stateKey string, action Action) float64 {
	return s.QValues[QKey(stateKey, action)]
}

// QKey builds the Q-table key for a (state descriptor, action) pair.
func QKey(stateKey string, action Action) string {
	return fmt.Sprintf("%s|%s", stateKey, action)
}
