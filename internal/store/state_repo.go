package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/difficulty"
	"github.com/abhisek/polegion/internal/events"
)

// StateRepo persists adaptive state and appends Q-value events. It
// implements adaptive.Repository and adaptive.Snapshotter.
type StateRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var (
	_ adaptive.Repository  = (*StateRepo)(nil)
	_ adaptive.Snapshotter = (*StateRepo)(nil)
)

var stateColumns = []string{
	"learner_id",
	"topic_key",
	"current_tier",
	"consecutive_correct",
	"consecutive_incorrect",
	"episode",
	"q_values",
	"updated_at",
}

func (r *StateRepo) LoadState(ctx context.Context, key adaptive.Key) (*adaptive.State, error) {
	query, args := sqlBuilder().
		Select(stateColumns...).
		From(entsql.Table(adaptiveStatesTable)).
		Where(entsql.And(
			entsql.EQ("learner_id", key.LearnerID),
			entsql.EQ("topic_key", key.TopicKey),
		)).
		Query()

	var (
		st      adaptive.State
		tier    string
		qValues string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&st.LearnerID,
		&st.TopicKey,
		&tier,
		&st.ConsecutiveCorrect,
		&st.ConsecutiveIncorrect,
		&st.Episode,
		&qValues,
		&st.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}

	st.CurrentTier = difficulty.Tier(tier)
	st.UpdatedAt = st.UpdatedAt.UTC()
	st.QValues = make(map[string]float64)
	if qValues != "" {
		if err := json.Unmarshal([]byte(qValues), &st.QValues); err != nil {
			return nil, fmt.Errorf("decode q-values: %w", err)
		}
	}
	return &st, nil
}

func (r *StateRepo) SaveState(ctx context.Context, st *adaptive.State) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := upsertState(ctx, tx, st, false)
		return err
	})
}

// CommitAttempt upserts the state and appends its event in one transaction.
// An existing row is only replaced by its direct successor episode; any
// other stored episode means a concurrent writer got there first and the
// commit fails with adaptive.ErrStaleState.
func (r *StateRepo) CommitAttempt(ctx context.Context, st *adaptive.State, ev events.QValueUpdatedEvent) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		n, err := upsertState(ctx, tx, st, true)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s is no longer at episode %d", adaptive.ErrStaleState, st.Key(), st.Episode-1)
		}
		seq, err := r.seq.Next(ctx, tx)
		if err != nil {
			return err
		}
		return insertEvent(ctx, tx, seq, ev)
	})
}

// SaveSnapshot records a copy of st under the next global sequence.
func (r *StateRepo) SaveSnapshot(ctx context.Context, st *adaptive.State, reason string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		seq, err := r.seq.Next(ctx, tx)
		if err != nil {
			return err
		}
		return insertSnapshot(ctx, tx, &Snapshot{
			Sequence:  seq,
			LearnerID: st.LearnerID,
			TopicKey:  st.TopicKey,
			Reason:    reason,
			Timestamp: time.Now().UTC(),
			State:     st.Clone(),
		})
	})
}

// ListStates returns every stored state for a learner, ordered by topic.
func (r *StateRepo) ListStates(ctx context.Context, learnerID string) ([]*adaptive.State, error) {
	query, args := sqlBuilder().
		Select(stateColumns...).
		From(entsql.Table(adaptiveStatesTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Asc("topic_key")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	var out []*adaptive.State
	for rows.Next() {
		var (
			st      adaptive.State
			tier    string
			qValues string
		)
		if err := rows.Scan(
			&st.LearnerID,
			&st.TopicKey,
			&tier,
			&st.ConsecutiveCorrect,
			&st.ConsecutiveIncorrect,
			&st.Episode,
			&qValues,
			&st.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		st.CurrentTier = difficulty.Tier(tier)
		st.UpdatedAt = st.UpdatedAt.UTC()
		st.QValues = make(map[string]float64)
		if qValues != "" {
			if err := json.Unmarshal([]byte(qValues), &st.QValues); err != nil {
				return nil, fmt.Errorf("decode q-values: %w", err)
			}
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// successorOnly restricts the conflict update to rows whose stored episode
// immediately precedes the incoming one.
var successorOnly = entsql.UpdateWhere(entsql.ExprP(
	"`" + adaptiveStatesTable + "`.`episode` = `excluded`.`episode` - 1",
))

// upsertState writes st and reports the number of rows changed. With
// conditional set, a conflicting row that is not st's predecessor is left
// alone and 0 is returned.
func upsertState(ctx context.Context, tx *sql.Tx, st *adaptive.State, conditional bool) (int64, error) {
	qValues := st.QValues
	if qValues == nil {
		qValues = map[string]float64{}
	}
	data, err := json.Marshal(qValues)
	if err != nil {
		return 0, fmt.Errorf("encode q-values: %w", err)
	}

	onConflict := []entsql.ConflictOption{
		entsql.ConflictColumns("learner_id", "topic_key"),
		entsql.ResolveWithNewValues(),
	}
	if conditional {
		onConflict = append(onConflict, successorOnly)
	}
	query, args := sqlBuilder().
		Insert(adaptiveStatesTable).
		Columns(stateColumns...).
		Values(
			st.LearnerID,
			st.TopicKey,
			string(st.CurrentTier),
			st.ConsecutiveCorrect,
			st.ConsecutiveIncorrect,
			st.Episode,
			string(data),
			st.UpdatedAt.UTC(),
		).
		OnConflict(onConflict...).
		Query()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("upsert state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("upsert state: %w", err)
	}
	return n, nil
}
