package adaptive

import (
	"fmt"

	"github.com/abhisek/polegion/internal/reward"
)

// Config holds the tunable parameters of the difficulty policy.
type Config struct {
	// PromotionThreshold is the number of consecutive correct attempts that
	// promotes a learner one tier. Default: 3.
	PromotionThreshold int `mapstructure:"promotion_threshold"`

	// DemotionThreshold is the number of consecutive incorrect attempts that
	// demotes a learner one tier. Default: 2.
	DemotionThreshold int `mapstructure:"demotion_threshold"`

	// LearningRate is alpha in newQ = oldQ + alpha*(reward - oldQ). Range (0, 1].
	LearningRate float64 `mapstructure:"learning_rate"`

	// NormalizeReward scales the XP reward into [0, 1] by dividing by
	// reward.MaxXP() before the value update.
	NormalizeReward bool `mapstructure:"normalize_reward"`

	// RequireExistingState makes Update fail with ErrUnknownLearnerTopic
	// instead of creating initial state for an unseen learner/topic.
	RequireExistingState bool `mapstructure:"require_existing_state"`
}

// DefaultConfig returns the default policy parameters.
func DefaultConfig() Config {
	return Config{
		PromotionThreshold: 3,
		DemotionThreshold:  2,
		LearningRate:       0.1,
		NormalizeReward:    true,
	}
}

// Validate checks that thresholds and learning rate are in range.
func (c Config) Validate() error {
	if c.PromotionThreshold < 1 {
		return fmt.Errorf("%w: promotion threshold %d must be >= 1", ErrInvalidConfig, c.PromotionThreshold)
	}
	if c.DemotionThreshold < 1 {
		return fmt.Errorf("%w: demotion threshold %d must be >= 1", ErrInvalidConfig, c.DemotionThreshold)
	}
	if !(c.LearningRate > 0 && c.LearningRate <= 1) {
		return fmt.Errorf("%w: learning rate %v must be in (0, 1]", ErrInvalidConfig, c.LearningRate)
	}
	return nil
}

// rewardSignal converts an XP total into the value-update reward.
func (c Config) rewardSignal(totalXP int) float64 {
	if !c.NormalizeReward {
		return float64(totalXP)
	}
	ceiling := reward.MaxXP()
	if ceiling <= 0 {
		return 0
	}
	r := float64(totalXP) / float64(ceiling)
	if r > 1 {
		r = 1
	}
	return r
}
