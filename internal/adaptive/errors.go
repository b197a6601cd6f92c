package adaptive

import "errors"

var (
	// ErrInvalidAttempt marks malformed input: unknown tier, negative time,
	// missing learner or topic.
	ErrInvalidAttempt = errors.New("invalid attempt")

	// ErrUnknownLearnerTopic is returned when state is required but none exists.
	ErrUnknownLearnerTopic = errors.New("unknown learner/topic")

	// ErrStaleState is returned by a repository when the stored state is no
	// longer the one the commit was computed from, e.g. another process
	// committed or reset the same learner/topic in between.
	ErrStaleState = errors.New("stale adaptive state")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid adaptive config")
)
