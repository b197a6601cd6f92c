package grading

import (
	"context"
	"fmt"

	"github.com/abhisek/polegion/internal/reward"
)

// GradeCompetitionSolution grades a submission and returns the participation
// grade. The returned grade is always usable: a submission that was not
// answered earns the fallback grade with a nil error, and a grader failure
// earns the fallback grade together with an error matching
// ErrGradingUnavailable.
func GradeCompetitionSolution(ctx context.Context, g Grader, p Problem, sub reward.Submission) (reward.Grade, error) {
	if !sub.IsAnswered() {
		return reward.Fallback(), nil
	}
	if g == nil {
		return reward.Fallback(), unavailable(p, fmt.Errorf("no grader configured"))
	}
	correct, err := g.Grade(ctx, p, sub.Answer)
	if err != nil {
		return reward.Fallback(), unavailable(p, err)
	}
	return reward.Participation(correct), nil
}
