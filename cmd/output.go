package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/engine"
	"github.com/abhisek/polegion/internal/ui/theme"
)

func printSubmitResult(res *engine.SubmitResult) {
	var b strings.Builder
	fmt.Fprintln(&b, theme.Verdict(res.IsCorrect)+"  "+theme.Hint.Render(res.Feedback))
	fmt.Fprintln(&b, theme.Field("XP awarded", theme.XP.Render(fmt.Sprintf("+%d", res.XPAwarded))))
	fmt.Fprintln(&b, theme.Field("XP total", fmt.Sprintf("%d", res.XPTotal)))

	if res.Degraded {
		fmt.Fprint(&b, theme.Field("Graded", theme.Incorrect.Render("no")+" "+theme.Hint.Render(res.Reason)))
		fmt.Println(theme.Card.Render(b.String()))
		return
	}

	r := res.Result
	o := r.Outcome
	fmt.Fprintln(&b, theme.Field("Breakdown", theme.Hint.Render(fmt.Sprintf(
		"base %d × %.2f + time %d + correct %d", o.BaseXP, o.DifficultyMultiplier, o.TimeBonus, o.CorrectBonus))))
	fmt.Fprintln(&b, theme.Field("Action", string(r.Action)))
	tier := theme.Tier(r.NextTier)
	if r.Transitioned() {
		tier = theme.Tier(r.Previous) + " → " + tier
	}
	fmt.Fprintln(&b, theme.Field("Tier", tier))
	fmt.Fprint(&b, theme.Field("Q update", fmt.Sprintf("%.4f → %.4f (reward %.3f)",
		r.Event.OldQValue(), r.Event.NewQValue(), r.Event.Reward())))
	fmt.Println(theme.Card.Render(b.String()))
}

func printState(st *adaptive.State) {
	var b strings.Builder
	fmt.Fprintln(&b, theme.Title.Render(st.LearnerID+" / "+st.TopicKey))
	fmt.Fprintln(&b, theme.Field("Tier", theme.Tier(st.CurrentTier)))
	fmt.Fprintln(&b, theme.Field("Correct streak", fmt.Sprintf("%d", st.ConsecutiveCorrect)))
	fmt.Fprintln(&b, theme.Field("Miss streak", fmt.Sprintf("%d", st.ConsecutiveIncorrect)))
	fmt.Fprintln(&b, theme.Field("Episode", fmt.Sprintf("%d", st.Episode)))
	if !st.UpdatedAt.IsZero() {
		fmt.Fprintln(&b, theme.Field("Updated", st.UpdatedAt.Local().Format("2006-01-02 15:04:05")))
	}

	if len(st.QValues) == 0 {
		fmt.Fprint(&b, theme.Hint.Render("No Q-values learned yet."))
	} else {
		fmt.Fprintln(&b, theme.Rule(40))
		keys := make([]string, 0, len(st.QValues))
		for k := range st.QValues {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for i, k := range keys {
			line := fmt.Sprintf("%-32s %8.4f", k, st.QValues[k])
			if i < len(keys)-1 {
				line += "\n"
			}
			b.WriteString(line)
		}
	}
	fmt.Println(theme.Card.Render(b.String()))
}
