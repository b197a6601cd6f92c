package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/polegion/internal/reward"
)

// XPLedger accumulates awarded XP per learner.
type XPLedger struct {
	db *sql.DB
}

var _ reward.Ledger = (*XPLedger)(nil)

// AddXP credits xp to learnerID and returns the new total.
func (l *XPLedger) AddXP(ctx context.Context, learnerID string, xp int) (int64, error) {
	if learnerID == "" {
		return 0, fmt.Errorf("add xp: learner id is required")
	}
	if xp < 0 {
		return 0, fmt.Errorf("add xp: negative amount %d", xp)
	}

	var total int64
	err := withTx(ctx, l.db, func(tx *sql.Tx) error {
		query, args := sqlBuilder().
			Insert(learnerXPTable).
			Columns("learner_id", "total_xp", "updated_at").
			Values(learnerID, xp, time.Now().UTC()).
			OnConflict(
				entsql.ConflictColumns("learner_id"),
				entsql.ResolveWith(func(u *entsql.UpdateSet) {
					u.Add("total_xp", xp)
					u.SetExcluded("updated_at")
				}),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert xp: %w", err)
		}
		return scanTotal(ctx, tx, learnerID, &total)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TotalXP returns the accumulated XP for learnerID, zero if unknown.
func (l *XPLedger) TotalXP(ctx context.Context, learnerID string) (int64, error) {
	var total int64
	err := scanTotal(ctx, l.db, learnerID, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Top returns up to n learners ordered by total XP, highest first.
func (l *XPLedger) Top(ctx context.Context, n int) ([]reward.Standing, error) {
	sel := sqlBuilder().
		Select("learner_id", "total_xp").
		From(entsql.Table(learnerXPTable)).
		OrderBy(entsql.Desc("total_xp"), entsql.Asc("learner_id"))
	if n > 0 {
		sel = sel.Limit(n)
	}
	query, args := sel.Query()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []reward.Standing
	for rows.Next() {
		var e reward.Standing
		if err := rows.Scan(&e.LearnerID, &e.TotalXP); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanTotal(ctx context.Context, q rowQuerier, learnerID string, total *int64) error {
	query, args := sqlBuilder().
		Select("total_xp").
		From(entsql.Table(learnerXPTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	err := q.QueryRowContext(ctx, query, args...).Scan(total)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query xp: %w", err)
	}
	return err
}
