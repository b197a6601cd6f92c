// Package redisstore keeps adaptive state and the XP leaderboard in Redis,
// for deployments where several engine processes share learners.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/events"
)

const (
	defaultPrefix   = "polegion"
	maxTxRetries    = 5
	snapshotHistory = 20
)

// ErrStaleState is returned when another process committed or reset the
// same learner/topic between load and commit.
var ErrStaleState = adaptive.ErrStaleState

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, o Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", o.Addr, err)
	}
	return rdb, nil
}

// Repository implements adaptive.Repository and adaptive.Snapshotter on
// Redis. State lives in a string key as JSON; events are appended as
// persistent records to a list next to it.
type Repository struct {
	rdb    redis.UniversalClient
	prefix string
}

var (
	_ adaptive.Repository  = (*Repository)(nil)
	_ adaptive.Snapshotter = (*Repository)(nil)
)

// New wraps rdb. An empty prefix uses "polegion".
func New(rdb redis.UniversalClient, prefix string) *Repository {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Repository{rdb: rdb, prefix: prefix}
}

// key builds prefix:kind:learner:topic. Both parts are query-escaped so a
// ':' inside an ID cannot make two learner/topic pairs share a key.
func (r *Repository) key(kind string, k adaptive.Key) string {
	return r.prefix + ":" + kind + ":" + url.QueryEscape(k.LearnerID) + ":" + url.QueryEscape(k.TopicKey)
}

func (r *Repository) stateKey(k adaptive.Key) string     { return r.key("state", k) }
func (r *Repository) eventsKey(k adaptive.Key) string    { return r.key("events", k) }
func (r *Repository) snapshotsKey(k adaptive.Key) string { return r.key("snapshots", k) }

func (r *Repository) LoadState(ctx context.Context, key adaptive.Key) (*adaptive.State, error) {
	return loadState(ctx, r.rdb, r.stateKey(key))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadState(ctx context.Context, c getter, key string) (*adaptive.State, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	var st adaptive.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if st.QValues == nil {
		st.QValues = make(map[string]float64)
	}
	return &st, nil
}

// CommitAttempt writes st and appends ev in one MULTI/EXEC. The state key is
// watched; unless the stored state is st's direct predecessor the commit
// fails with ErrStaleState.
func (r *Repository) CommitAttempt(ctx context.Context, st *adaptive.State, ev events.QValueUpdatedEvent) error {
	stateData, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	recData, err := json.Marshal(events.ToPersistent(ev))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	sk := r.stateKey(st.Key())
	ek := r.eventsKey(st.Key())
	txf := func(tx *redis.Tx) error {
		cur, err := loadState(ctx, tx, sk)
		if err != nil {
			return err
		}
		if cur != nil && st.Episode != cur.Episode+1 {
			return fmt.Errorf("%w: stored episode %d, committing %d", ErrStaleState, cur.Episode, st.Episode)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sk, stateData, 0)
			pipe.RPush(ctx, ek, recData)
			return nil
		})
		return err
	}

	if err := r.watch(ctx, txf, sk); err != nil {
		return fmt.Errorf("commit attempt: %w", err)
	}
	return nil
}

// watch runs txf under WATCH keys, retrying when the transaction is aborted
// by a concurrent write.
func (r *Repository) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	var err error
	for range maxTxRetries {
		err = r.rdb.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// SaveState overwrites the state inside a watched transaction, so a commit
// racing with it either lands first or is rejected as stale afterwards.
func (r *Repository) SaveState(ctx context.Context, st *adaptive.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	sk := r.stateKey(st.Key())
	txf := func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sk, data, 0)
			return nil
		})
		return err
	}
	if err := r.watch(ctx, txf, sk); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

type snapshotEntry struct {
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
	State     *adaptive.State `json:"state"`
}

// SaveSnapshot appends st to the key's snapshot list, keeping the most
// recent entries only.
func (r *Repository) SaveSnapshot(ctx context.Context, st *adaptive.State, reason string) error {
	data, err := json.Marshal(snapshotEntry{Reason: reason, Timestamp: time.Now().UTC(), State: st})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	key := r.snapshotsKey(st.Key())
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, -snapshotHistory, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Events returns the key's Q-value events in commit order.
func (r *Repository) Events(ctx context.Context, key adaptive.Key) ([]events.QValueUpdatedEvent, error) {
	raws, err := r.rdb.LRange(ctx, r.eventsKey(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	out := make([]events.QValueUpdatedEvent, 0, len(raws))
	for i, raw := range raws {
		var rec events.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", i, err)
		}
		ev, err := events.FromPersistent(rec)
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
