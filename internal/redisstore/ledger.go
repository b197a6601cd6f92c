package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/polegion/internal/reward"
)

// Ledger is a reward.Ledger on a Redis sorted set, so the leaderboard is a
// single ZREVRANGE.
type Ledger struct {
	rdb redis.UniversalClient
	key string
}

var _ reward.Ledger = (*Ledger)(nil)

// NewLedger wraps rdb. An empty prefix uses "polegion".
func NewLedger(rdb redis.UniversalClient, prefix string) *Ledger {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Ledger{rdb: rdb, key: prefix + ":xp"}
}

func (l *Ledger) AddXP(ctx context.Context, learnerID string, xp int) (int64, error) {
	if learnerID == "" {
		return 0, fmt.Errorf("add xp: learner id is required")
	}
	if xp < 0 {
		return 0, fmt.Errorf("add xp: negative amount %d", xp)
	}
	total, err := l.rdb.ZIncrBy(ctx, l.key, float64(xp), learnerID).Result()
	if err != nil {
		return 0, fmt.Errorf("add xp: %w", err)
	}
	return int64(total), nil
}

func (l *Ledger) TotalXP(ctx context.Context, learnerID string) (int64, error) {
	score, err := l.rdb.ZScore(ctx, l.key, learnerID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("total xp: %w", err)
	}
	return int64(score), nil
}

func (l *Ledger) Top(ctx context.Context, n int) ([]reward.Standing, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	zs, err := l.rdb.ZRevRangeWithScores(ctx, l.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	out := make([]reward.Standing, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, reward.Standing{LearnerID: member, TotalXP: int64(z.Score)})
	}
	// Redis breaks score ties by member in reverse; keep the ledger order.
	reward.SortStandings(out)
	return out, nil
}
