package events

import (
	"time"

	"github.com/google/uuid"
)

// QValueUpdatedEvent records one value-update step of the difficulty
// controller. It is immutable: fields are only readable through accessors.
type QValueUpdatedEvent struct {
	id        string
	learnerID string
	topicKey  string
	stateKey  string
	action    string
	oldQ      float64
	newQ      float64
	reward    float64
	episode   int64
	timestamp time.Time
}

// QValueUpdate holds the inputs for NewQValueUpdated.
type QValueUpdate struct {
	LearnerID string
	TopicKey  string
	StateKey  string
	Action    string
	OldQValue float64
	NewQValue float64
	Reward    float64
	Episode   int64
	Timestamp time.Time
}

// NewQValueUpdated creates an event with a fresh ID. A zero timestamp is
// replaced with the current time; timestamps are always stored in UTC.
func NewQValueUpdated(u QValueUpdate) QValueUpdatedEvent {
	ts := u.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return QValueUpdatedEvent{
		id:        uuid.NewString(),
		learnerID: u.LearnerID,
		topicKey:  u.TopicKey,
		stateKey:  u.StateKey,
		action:    u.Action,
		oldQ:      u.OldQValue,
		newQ:      u.NewQValue,
		reward:    u.Reward,
		episode:   u.Episode,
		timestamp: ts.UTC(),
	}
}

func (e QValueUpdatedEvent) ID() string { return e.id }
func (e QValueUpdatedEvent) LearnerID() string { return e.learnerID }
func (e QValueUpdatedEvent) TopicKey() string { return e.topicKey }
func (e QValueUpdatedEvent) StateKey() string { return e.stateKey }
func (e QValueUpdatedEvent) Action() string { return e.action }
func (e QValueUpdatedEvent) OldQValue() float64 { return e.oldQ }
func (e QValueUpdatedEvent) NewQValue() float64 { return e.newQ }
func (e QValueUpdatedEvent) Reward() float64 { return e.reward }
func (e QValueUpdatedEvent) Episode() int64 { return e.episode }
func (e QValueUpdatedEvent) Timestamp() time.Time { return e.timestamp }

// QValueImprovement is NewQValue - OldQValue.
func (e QValueUpdatedEvent) QValueImprovement() float64 {
	return e.newQ - e.oldQ
}

// IsZero reports whether e is the zero event (never constructed).
func (e QValueUpdatedEvent) IsZero() bool {
	return e.id == ""
}
