// Package theme holds the lipgloss styles used by the polegion CLI.
package theme

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/polegion/internal/difficulty"
)

var (
	Primary   = lipgloss.Color("#8B5CF6")
	Secondary = lipgloss.Color("#14B8A6")
	Accent    = lipgloss.Color("#F97316")
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#F43F5E")
	TextDim   = lipgloss.Color("#94A3B8")
	Border    = lipgloss.Color("#334155")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(16)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	XP = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent)

	Correct = lipgloss.NewStyle().
		Bold(true).
		Foreground(Success)

	Incorrect = lipgloss.NewStyle().
			Bold(true).
			Foreground(Error)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Tier renders a tier name in its ladder colour.
func Tier(t difficulty.Tier) string {
	var c = Success
	switch t {
	case difficulty.TierIntermediate:
		c = Secondary
	case difficulty.TierHard:
		c = Primary
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c).Render(t.DisplayName())
}

// Verdict renders a correct/incorrect marker.
func Verdict(correct bool) string {
	if correct {
		return Correct.Render("✓ correct")
	}
	return Incorrect.Render("✗ incorrect")
}

// Field renders one "label  value" line.
func Field(label, value string) string {
	return Label.Render(label) + value
}

// Rule returns a horizontal divider of width n.
func Rule(n int) string {
	return lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", n))
}
