package grading

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// AnswerKeyGrader compares answers against the problem's reference answer.
//
// Normalization rules:
//   - whitespace is trimmed and comparison is case-insensitive
//   - integers ignore leading zeros ("007" matches "7")
//   - decimals ignore trailing zeros ("3.50" matches "3.5")
//   - fractions accept equivalent forms ("2/4" matches "1/2")
//   - choices match the choice text or its 1-based index
//
// An answer that does not parse as the expected type is wrong, not ungradable.
type AnswerKeyGrader struct{}

func (AnswerKeyGrader) Grade(_ context.Context, p Problem, answer string) (bool, error) {
	if strings.TrimSpace(p.Answer) == "" {
		return false, unavailable(p, ErrNoAnswerKey)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false, nil
	}

	if p.AnswerType == AnswerChoice {
		return matchChoice(answer, p), nil
	}

	want, err := normalize(p.Answer, p.AnswerType)
	if err != nil {
		return false, unavailable(p, fmt.Errorf("answer key: %w", err))
	}
	got, err := normalize(answer, p.AnswerType)
	if err != nil {
		return false, nil
	}
	return got == want, nil
}

func matchChoice(answer string, p Problem) bool {
	want := strings.TrimSpace(p.Answer)
	if idx, err := strconv.Atoi(answer); err == nil && idx >= 1 && idx <= len(p.Choices) {
		return strings.EqualFold(strings.TrimSpace(p.Choices[idx-1]), want)
	}
	return strings.EqualFold(answer, want)
}

func normalize(answer string, t AnswerType) (string, error) {
	answer = strings.TrimSpace(answer)
	switch t {
	case AnswerInteger:
		n, err := strconv.ParseInt(answer, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer: %w", err)
		}
		return strconv.FormatInt(n, 10), nil

	case AnswerDecimal:
		f, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return "", fmt.Errorf("invalid decimal: %w", err)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	case AnswerFraction:
		return normalizeFraction(answer)

	default:
		return strings.ToLower(strings.Join(strings.Fields(answer), " ")), nil
	}
}

// normalizeFraction reduces "a/b" to lowest terms with the sign on the
// numerator. A bare integer n is read as n/1.
func normalizeFraction(s string) (string, error) {
	numStr, denStr, found := strings.Cut(s, "/")
	if !found {
		denStr = "1"
	}
	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid numerator: %w", err)
	}
	den, err := strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid denominator: %w", err)
	}
	if den == 0 {
		return "", fmt.Errorf("zero denominator")
	}
	// big.Rat moves the sign to the numerator, math.MinInt64 included.
	r := big.NewRat(num, den)
	return r.Num().String() + "/" + r.Denom().String(), nil
}
