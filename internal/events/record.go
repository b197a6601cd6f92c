package events

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// EventTypeQValueUpdated discriminates Q-value update records.
	EventTypeQValueUpdated = "q_value_updated"

	// RecordVersion is the semantic version of the persisted record shape.
	// Readers accept any record with the same major version.
	RecordVersion = "v1.0.0"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported event record version")
	ErrWrongEventType     = errors.New("unexpected event type")
	ErrMalformedRecord    = errors.New("malformed event record")
)

// Record is the flat, persistence-ready shape of an event. Storage and
// analytics integrations depend on this shape, not on the event type.
type Record struct {
	EventType string         `json:"event_type"`
	Version   string         `json:"version"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// ToPersistent flattens e into a Record. Calling it twice on the same event
// yields equal records.
func ToPersistent(e QValueUpdatedEvent) Record {
	return Record{
		EventType: EventTypeQValueUpdated,
		Version:   RecordVersion,
		Data: map[string]any{
			"id":                  e.id,
			"learner_id":          e.learnerID,
			"topic_key":           e.topicKey,
			"state_key":           e.stateKey,
			"action":              e.action,
			"old_q_value":         e.oldQ,
			"new_q_value":         e.newQ,
			"q_value_improvement": e.QValueImprovement(),
			"reward":              e.reward,
			"episode":             e.episode,
		},
		Timestamp: e.timestamp,
	}
}

// FromPersistent rebuilds an event from a Record. Records written by a newer
// minor or patch version are accepted; a different major version is not.
func FromPersistent(r Record) (QValueUpdatedEvent, error) {
	if r.EventType != EventTypeQValueUpdated {
		return QValueUpdatedEvent{}, fmt.Errorf("%w: %q", ErrWrongEventType, r.EventType)
	}
	if !Compatible(r.Version) {
		return QValueUpdatedEvent{}, fmt.Errorf("%w: %q (reader %s)", ErrUnsupportedVersion, r.Version, RecordVersion)
	}

	var (
		e   QValueUpdatedEvent
		err error
	)
	e.timestamp = r.Timestamp.UTC()
	if e.id, err = stringField(r.Data, "id"); err != nil {
		return QValueUpdatedEvent{}, err
	}
	if e.learnerID, err = stringField(r.Data, "learner_id"); err != nil {
		return QValueUpdatedEvent{}, err
	}
	if e.topicKey, err = stringField(r.Data, "topic_key"); err != nil {
		return QValueUpdatedEvent{}, err
	}
	if e.stateKey, err = stringField(r.Data, "state_key"); err != nil {
		return QValueUpdatedEvent{}, err
	}
	if e.action, err = stringField(r.Data, "action"); err != nil {
		return QValueUpdatedEvent{}, err
	}
	if e.oldQ, err = floatField(r.Data, "old_q_value"); err != nil {
		return QValueUpdatedEvent{}, err
	}
	if e.newQ, err = floatField(r.Data, "new_q_value"); err != nil {
		return QValueUpdatedEvent{}, err
	}
	if e.reward, err = floatField(r.Data, "reward"); err != nil {
		return QValueUpdatedEvent{}, err
	}
	ep, err := floatField(r.Data, "episode")
	if err != nil {
		return QValueUpdatedEvent{}, err
	}
	e.episode = int64(ep)
	return e, nil
}

// Compatible reports whether a record version can be read by this build.
func Compatible(version string) bool {
	if !semver.IsValid(version) {
		return false
	}
	return semver.Major(version) == semver.Major(RecordVersion)
}

func stringField(data map[string]any, key string) (string, error) {
	v, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedRecord, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, want string", ErrMalformedRecord, key, v)
	}
	return s, nil
}

// floatField accepts the numeric types a record holds before and after a
// JSON round-trip.
func floatField(data map[string]any, key string) (float64, error) {
	v, ok := data[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformedRecord, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %q is %T, want number", ErrMalformedRecord, key, v)
	}
}
