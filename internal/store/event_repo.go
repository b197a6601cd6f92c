package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/polegion/internal/events"
)

// EventRepo reads the Q-value event log.
type EventRepo struct {
	db *sql.DB
}

// StoredEvent pairs an event with its global sequence number.
type StoredEvent struct {
	Sequence int64
	Event    events.QValueUpdatedEvent
}

var eventColumns = []string{
	"sequence",
	"event_id",
	"version",
	"learner_id",
	"topic_key",
	"state_key",
	"action",
	"old_q_value",
	"new_q_value",
	"reward",
	"episode",
	"timestamp",
}

func insertEvent(ctx context.Context, tx *sql.Tx, seq int64, ev events.QValueUpdatedEvent) error {
	rec := events.ToPersistent(ev)
	query, args := sqlBuilder().
		Insert(qValueEventsTable).
		Columns(eventColumns...).
		Values(
			seq,
			ev.ID(),
			rec.Version,
			ev.LearnerID(),
			ev.TopicKey(),
			ev.StateKey(),
			ev.Action(),
			ev.OldQValue(),
			ev.NewQValue(),
			ev.Reward(),
			ev.Episode(),
			ev.Timestamp().UTC(),
		).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert q-value event: %w", err)
	}
	return nil
}

// QueryQValueEvents returns events matching opts in sequence order.
func (r *EventRepo) QueryQValueEvents(ctx context.Context, opts QueryOpts) ([]StoredEvent, error) {
	sel := sqlBuilder().
		Select(eventColumns...).
		From(entsql.Table(qValueEventsTable)).
		OrderBy(entsql.Asc("sequence"))
	if p := opts.predicates(); p != nil {
		sel = sel.Where(p)
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query q-value events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var (
			seq                           int64
			id, version                   string
			learnerID, topicKey, stateKey string
			action                        string
			oldQ, newQ, reward            float64
			episode                       int64
			ts                            time.Time
		)
		if err := rows.Scan(&seq, &id, &version, &learnerID, &topicKey, &stateKey,
			&action, &oldQ, &newQ, &reward, &episode, &ts); err != nil {
			return nil, fmt.Errorf("scan q-value event: %w", err)
		}
		ev, err := events.FromPersistent(events.Record{
			EventType: events.EventTypeQValueUpdated,
			Version:   version,
			Timestamp: ts,
			Data: map[string]any{
				"id":          id,
				"learner_id":  learnerID,
				"topic_key":   topicKey,
				"state_key":   stateKey,
				"action":      action,
				"old_q_value": oldQ,
				"new_q_value": newQ,
				"reward":      reward,
				"episode":     episode,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", seq, err)
		}
		out = append(out, StoredEvent{Sequence: seq, Event: ev})
	}
	return out, rows.Err()
}

// CountQValueEvents returns the number of events matching opts, ignoring
// Limit.
func (r *EventRepo) CountQValueEvents(ctx context.Context, opts QueryOpts) (int, error) {
	sel := sqlBuilder().
		Select(entsql.Count("*")).
		From(entsql.Table(qValueEventsTable))
	if p := opts.predicates(); p != nil {
		sel = sel.Where(p)
	}
	query, args := sel.Query()

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count q-value events: %w", err)
	}
	return n, nil
}

// Record returns the persistence shape of the stored event.
func (s StoredEvent) Record() events.Record {
	return events.ToPersistent(s.Event)
}
