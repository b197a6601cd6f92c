package difficulty

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTier is returned when a tier name is not one of the recognized tiers.
var ErrUnknownTier = errors.New("unknown difficulty tier")

// Tier is an ordered difficulty level: Easy < Intermediate < Hard.
type Tier string

const (
	TierEasy         Tier = "easy"
	TierIntermediate Tier = "intermediate"
	TierHard         Tier = "hard"
)

// AllTiers returns the recognized tiers in ascending order.
func AllTiers() []Tier {
	return []Tier{TierEasy, TierIntermediate, TierHard}
}

// Lowest returns the tier every learner starts at.
func Lowest() Tier { return TierEasy }

// Highest returns the top of the ladder.
func Highest() Tier { return TierHard }

// ParseTier converts a user-supplied name into a Tier.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Valid reports whether t is a recognized tier.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// Rank returns the zero-based position of t on the ladder, or -1 if t is unknown.
func (t Tier) Rank() int {
	switch t {
	case TierEasy:
		return 0
	case TierIntermediate:
		return 1
	case TierHard:
		return 2
	default:
		return -1
	}
}

// Promote returns the next harder tier. Hard stays Hard.
func (t Tier) Promote() Tier {
	switch t {
	case TierEasy:
		return TierIntermediate
	case TierIntermediate, TierHard:
		return TierHard
	default:
		return t
	}
}

// Demote returns the next easier tier. Easy stays Easy.
func (t Tier) Demote() Tier {
	switch t {
	case TierHard:
		return TierIntermediate
	case TierIntermediate, TierEasy:
		return TierEasy
	default:
		return t
	}
}

// DisplayName returns a human-readable label for the tier.
func (t Tier) DisplayName() string {
	switch t {
	case TierEasy:
		return "Easy"
	case TierIntermediate:
		return "Intermediate"
	case TierHard:
		return "Hard"
	default:
		return string(t)
	}
}

func (t Tier) String() string { return string(t) }

// UnmarshalText accepts any casing of a tier name, so "Hard" in a JSON
// payload decodes to TierHard. Unknown names are kept as given and left for
// validation to reject.
func (t *Tier) UnmarshalText(text []byte) error {
	if parsed, err := ParseTier(string(text)); err == nil {
		*t = parsed
		return nil
	}
	*t = Tier(text)
	return nil
}
