package adaptive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/polegion/internal/logging"
)

// maxCommitAttempts bounds how often Update reloads and reapplies an
// attempt after the repository reports ErrStaleState.
const maxCommitAttempts = 3

// Controller is the difficulty policy engine. It owns all mutation of
// adaptive state: every attempt for a learner/topic is applied under that
// key's lock, so concurrent attempts for the same key never race.
type Controller struct {
	cfg   Config
	repo  Repository
	locks *keyedMutex
	now   func() time.Time
	log   *logging.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController creates a Controller backed by repo.
func NewController(cfg Config, repo Repository, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, fmt.Errorf("adaptive: repository is required")
	}
	c := &Controller{
		cfg:   cfg,
		repo:  repo,
		locks: newKeyedMutex(),
		now:   time.Now,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the policy parameters in use.
func (c *Controller) Config() Config {
	return c.cfg
}

// Update applies a graded attempt: it computes the reward, advances the
// learner's state and commits the state together with its Q-value event.
// Nothing is persisted when an error is returned. The per-key lock only
// covers this process; when the repository detects a concurrent writer the
// attempt is reapplied to the fresh state.
func (c *Controller) Update(ctx context.Context, a AttemptResult) (Result, error) {
	if err := ValidateAttempt(a); err != nil {
		return Result{}, err
	}
	key := a.Key()

	unlock := c.locks.Lock(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		res Result
		err error
	)
	for try := 1; ; try++ {
		res, err = c.apply(ctx, a)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrStaleState) || try == maxCommitAttempts {
			return Result{}, err
		}
		c.log.Debug("stale state, retrying",
			"learner_id", key.LearnerID,
			"topic_key", key.TopicKey,
			"try", try,
		)
	}

	if res.Transitioned() {
		c.log.Info("tier changed",
			"learner_id", key.LearnerID,
			"topic_key", key.TopicKey,
			"from", string(res.Previous),
			"to", string(res.NextTier),
			"episode", res.State.Episode,
		)
	} else {
		c.log.Debug("attempt applied",
			"learner_id", key.LearnerID,
			"topic_key", key.TopicKey,
			"action", string(res.Action),
			"xp", res.XPAwarded(),
		)
	}
	return res, nil
}

// apply loads the current state, steps it and commits the result.
func (c *Controller) apply(ctx context.Context, a AttemptResult) (Result, error) {
	key := a.Key()
	st, err := c.repo.LoadState(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("load state %s: %w", key, err)
	}
	if st == nil {
		if c.cfg.RequireExistingState {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownLearnerTopic, key)
		}
		st = NewState(key)
	}

	res, err := Step(c.cfg, st, a, c.now())
	if err != nil {
		return Result{}, err
	}
	if err := c.repo.CommitAttempt(ctx, res.State, res.Event); err != nil {
		return Result{}, fmt.Errorf("commit attempt %s: %w", key, err)
	}
	return res, nil
}

// Initialize creates initial state for key if none exists and returns the
// stored state. It is how callers register a learner/topic when
// RequireExistingState is enabled.
func (c *Controller) Initialize(ctx context.Context, key Key) (*State, error) {
	unlock := c.locks.Lock(key)
	defer unlock()

	st, err := c.repo.LoadState(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", key, err)
	}
	if st != nil {
		return st, nil
	}
	st = NewState(key)
	st.UpdatedAt = c.now().UTC()
	if err := c.repo.SaveState(ctx, st); err != nil {
		return nil, fmt.Errorf("save state %s: %w", key, err)
	}
	return st, nil
}

// Reset returns key's state to the initial tier with zero counters and
// episode. Q-values are kept unless full is set. When the repository keeps
// history, the pre-reset state is snapshotted first.
func (c *Controller) Reset(ctx context.Context, key Key, full bool) (*State, error) {
	unlock := c.locks.Lock(key)
	defer unlock()

	st, err := c.repo.LoadState(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", key, err)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLearnerTopic, key)
	}

	if snap, ok := c.repo.(Snapshotter); ok {
		reason := "reset"
		if full {
			reason = "full-reset"
		}
		if err := snap.SaveSnapshot(ctx, st, reason); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", key, err)
		}
	}

	next := ResetState(st, full, c.now())
	if err := c.repo.SaveState(ctx, next); err != nil {
		return nil, fmt.Errorf("save state %s: %w", key, err)
	}
	c.log.Info("state reset", "learner_id", key.LearnerID, "topic_key", key.TopicKey, "full", full)
	return next, nil
}

// State returns the stored state for key.
func (c *Controller) State(ctx context.Context, key Key) (*State, error) {
	st, err := c.repo.LoadState(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", key, err)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLearnerTopic, key)
	}
	return st, nil
}
