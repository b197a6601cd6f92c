package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() QValueUpdatedEvent {
	return NewQValueUpdated(QValueUpdate{
		LearnerID: "learner-1",
		TopicKey:  "triangles",
		StateKey:  "easy:c2:i0",
		Action:    "promote",
		OldQValue: 0.25,
		NewQValue: 0.3,
		Reward:    0.75,
		Episode:   3,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
}

func TestNewQValueUpdated(t *testing.T) {
	e := sampleEvent()
	assert.NotEmpty(t, e.ID())
	assert.False(t, e.IsZero())
	assert.InDelta(t, 0.05, e.QValueImprovement(), 1e-9)
	assert.Equal(t, int64(3), e.Episode())
	assert.Equal(t, time.UTC, e.Timestamp().Location())

	other := sampleEvent()
	assert.NotEqual(t, e.ID(), other.ID(), "each event gets a unique id")
}

func TestNewQValueUpdatedDefaultsTimestamp(t *testing.T) {
	before := time.Now()
	e := NewQValueUpdated(QValueUpdate{LearnerID: "l", TopicKey: "t"})
	assert.False(t, e.Timestamp().Before(before.UTC().Add(-time.Second)))
}

func TestToPersistentShape(t *testing.T) {
	e := sampleEvent()
	r := ToPersistent(e)

	assert.Equal(t, "q_value_updated", r.EventType)
	assert.Equal(t, RecordVersion, r.Version)
	assert.Equal(t, e.Timestamp(), r.Timestamp)
	assert.Equal(t, "easy:c2:i0", r.Data["state_key"])
	assert.Equal(t, "promote", r.Data["action"])
	assert.Equal(t, int64(3), r.Data["episode"])
	assert.InDelta(t, 0.05, r.Data["q_value_improvement"], 1e-9)
}

func TestToPersistentIdempotent(t *testing.T) {
	e := sampleEvent()
	first := ToPersistent(e)
	second := ToPersistent(e)
	assert.Equal(t, first, second)

	// Mutating one record must not leak into the next.
	first.Data["action"] = "tampered"
	assert.Equal(t, "promote", ToPersistent(e).Data["action"])
}

func TestFromPersistentRoundTripThroughJSON(t *testing.T) {
	e := sampleEvent()
	raw, err := json.Marshal(ToPersistent(e))
	require.NoError(t, err)

	var r Record
	require.NoError(t, json.Unmarshal(raw, &r))

	got, err := FromPersistent(r)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestFromPersistentVersions(t *testing.T) {
	tests := []struct {
		version string
		wantErr error
	}{
		{"v1.0.0", nil},
		{"v1.3.2", nil},
		{"v2.0.0", ErrUnsupportedVersion},
		{"1.0.0", ErrUnsupportedVersion},
		{"", ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			r := ToPersistent(sampleEvent())
			r.Version = tt.version
			_, err := FromPersistent(r)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFromPersistentRejectsBadRecords(t *testing.T) {
	r := ToPersistent(sampleEvent())
	r.EventType = "difficulty_changed"
	_, err := FromPersistent(r)
	assert.ErrorIs(t, err, ErrWrongEventType)

	r = ToPersistent(sampleEvent())
	delete(r.Data, "reward")
	_, err = FromPersistent(r)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	r = ToPersistent(sampleEvent())
	r.Data["episode"] = "three"
	_, err = FromPersistent(r)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestMemoryLogConcurrentAppend(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = log.Append(ctx, sampleEvent())
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, log.Len())
	evs := log.Events()
	evs[0] = QValueUpdatedEvent{}
	assert.False(t, log.Events()[0].IsZero(), "Events returns a copy")
}
