package reward

import (
	"math"

	"github.com/abhisek/polegion/internal/difficulty"
)

const (
	// BaseXP is the fixed participation reward every attempt earns.
	BaseXP = 10

	// FastThresholdSecs is the cutoff under which an attempt earns TimeBonusXP.
	FastThresholdSecs = 30

	TimeBonusXP    = 5
	CorrectBonusXP = 20

	// unknownTierMultiplier keeps unseen tiers rewarding instead of failing.
	unknownTierMultiplier = 1.0
)

var tierMultipliers = map[difficulty.Tier]float64{
	difficulty.TierEasy:         10,
	difficulty.TierIntermediate: 20,
	difficulty.TierHard:         30,
}

// Outcome is the XP breakdown for a single attempt.
type Outcome struct {
	BaseXP               int     `json:"base_xp"`
	DifficultyMultiplier float64 `json:"difficulty_multiplier"`
	TimeBonus            int     `json:"time_bonus"`
	CorrectBonus         int     `json:"correct_bonus"`
	TotalXP              int     `json:"total_xp"`
}

// Multiplier returns the XP multiplier for a tier.
// Unrecognized tiers fall back to 1.0.
func Multiplier(tier difficulty.Tier) float64 {
	if m, ok := tierMultipliers[tier]; ok {
		return m
	}
	return unknownTierMultiplier
}

// ComputeReward computes the XP earned by an attempt. It is a pure function.
func ComputeReward(isCorrect bool, timeTakenSeconds float64, tier difficulty.Tier) Outcome {
	out := Outcome{
		BaseXP:               BaseXP,
		DifficultyMultiplier: Multiplier(tier),
	}
	if timeTakenSeconds < FastThresholdSecs {
		out.TimeBonus = TimeBonusXP
	}
	if isCorrect {
		out.CorrectBonus = CorrectBonusXP
	}

	total := math.Floor(float64(out.BaseXP)*out.DifficultyMultiplier + float64(out.TimeBonus) + float64(out.CorrectBonus))
	if total < 0 || math.IsNaN(total) {
		total = 0
	}
	out.TotalXP = int(total)
	return out
}

// MaxXP is the largest TotalXP any attempt can earn.
func MaxXP() int {
	best := 0
	for _, t := range difficulty.AllTiers() {
		if xp := ComputeReward(true, 0, t).TotalXP; xp > best {
			best = xp
		}
	}
	return best
}
