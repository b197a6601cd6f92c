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
)

// Snapshot represents a point-in-time capture of one learner/topic state.
type Snapshot struct {
	ID        int
	Sequence  int64
	LearnerID string
	TopicKey  string
	Reason    string
	Timestamp time.Time
	State     *adaptive.State
}

// SnapshotRepo manages state snapshots.
type SnapshotRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var snapshotColumns = []string{"id", "sequence", "learner_id", "topic_key", "reason", "data", "timestamp"}

// Save stores a new snapshot. A zero Sequence takes the next global sequence.
func (r *SnapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if snap.Sequence == 0 {
			seq, err := r.seq.Next(ctx, tx)
			if err != nil {
				return err
			}
			snap.Sequence = seq
		}
		return insertSnapshot(ctx, tx, snap)
	})
}

// Latest returns the most recent snapshot for key, or nil if none exist.
func (r *SnapshotRepo) Latest(ctx context.Context, key adaptive.Key) (*Snapshot, error) {
	query, args := sqlBuilder().
		Select(snapshotColumns...).
		From(entsql.Table(stateSnapshotsTable)).
		Where(keyPredicate(key)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Query()

	snap, err := scanSnapshot(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	return snap, nil
}

// Prune deletes all but the N most recent snapshots for key.
func (r *SnapshotRepo) Prune(ctx context.Context, key adaptive.Key, keep int) error {
	// Find the sequence threshold: the Nth most recent snapshot.
	query, args := sqlBuilder().
		Select("sequence").
		From(entsql.Table(stateSnapshotsTable)).
		Where(keyPredicate(key)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	var threshold int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // fewer than keep snapshots exist
	}
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}

	del, dargs := sqlBuilder().
		Delete(stateSnapshotsTable).
		Where(entsql.And(keyPredicate(key), entsql.LTE("sequence", threshold))).
		Query()
	if _, err := r.db.ExecContext(ctx, del, dargs...); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

func keyPredicate(key adaptive.Key) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("learner_id", key.LearnerID),
		entsql.EQ("topic_key", key.TopicKey),
	)
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	if snap.State == nil {
		return fmt.Errorf("save snapshot: state is required")
	}
	data, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := sqlBuilder().
		Insert(stateSnapshotsTable).
		Columns("sequence", "learner_id", "topic_key", "reason", "data", "timestamp").
		Values(snap.Sequence, snap.State.LearnerID, snap.State.TopicKey, snap.Reason, string(data), ts.UTC()).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var (
		snap Snapshot
		data string
	)
	if err := row.Scan(&snap.ID, &snap.Sequence, &snap.LearnerID, &snap.TopicKey,
		&snap.Reason, &data, &snap.Timestamp); err != nil {
		return nil, err
	}
	snap.Timestamp = snap.Timestamp.UTC()
	var st adaptive.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	if st.QValues == nil {
		st.QValues = make(map[string]float64)
	}
	snap.State = &st
	return &snap, nil
}
