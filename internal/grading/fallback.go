package grading

import (
	"context"
	"errors"
)

// FallbackGrader tries each grader in order and returns the first verdict.
// It fails only when every grader fails.
type FallbackGrader struct {
	graders []Grader
}

// NewFallbackGrader chains graders, skipping nil entries.
func NewFallbackGrader(graders ...Grader) *FallbackGrader {
	f := &FallbackGrader{}
	for _, g := range graders {
		if g != nil {
			f.graders = append(f.graders, g)
		}
	}
	return f
}

func (f *FallbackGrader) Grade(ctx context.Context, p Problem, answer string) (bool, error) {
	var errs []error
	for _, g := range f.graders {
		if err := ctx.Err(); err != nil {
			return false, unavailable(p, err)
		}
		ok, err := g.Grade(ctx, p, answer)
		if err == nil {
			return ok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return false, unavailable(p, errors.New("no graders configured"))
	}
	return false, &GradingError{ProblemID: p.ID, Err: errors.Join(errs...)}
}
