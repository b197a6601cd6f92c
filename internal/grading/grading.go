// Package grading decides whether a submitted solution is correct and turns
// the outcome into a participation grade. It is the boundary between raw
// learner input and the adaptive engine.
package grading

import (
	"context"
	"errors"
	"fmt"
)

// AnswerType tells graders how to compare answers.
type AnswerType string

const (
	AnswerText     AnswerType = "text"
	AnswerInteger  AnswerType = "integer"
	AnswerDecimal  AnswerType = "decimal"
	AnswerFraction AnswerType = "fraction"
	AnswerChoice   AnswerType = "choice"
)

// Problem is the task a solution answers. Answer is the reference answer and
// may be empty for open-ended problems.
type Problem struct {
	ID         string     `json:"id"`
	Prompt     string     `json:"prompt"`
	Answer     string     `json:"answer,omitempty"`
	AnswerType AnswerType `json:"answer_type,omitempty"`
	Choices    []string   `json:"choices,omitempty"`
}

// Grader judges one answer to one problem.
type Grader interface {
	Grade(ctx context.Context, p Problem, answer string) (bool, error)
}

// GraderFunc adapts a function to the Grader interface.
type GraderFunc func(ctx context.Context, p Problem, answer string) (bool, error)

func (f GraderFunc) Grade(ctx context.Context, p Problem, answer string) (bool, error) {
	return f(ctx, p, answer)
}

var (
	// ErrGradingUnavailable matches every failure to reach a verdict.
	ErrGradingUnavailable = errors.New("grading unavailable")

	// ErrNoAnswerKey means the problem carries no reference answer.
	ErrNoAnswerKey = errors.New("problem has no answer key")
)

// GradingError reports why a problem could not be graded. It always matches
// ErrGradingUnavailable.
type GradingError struct {
	ProblemID string
	Err       error
}

func (e *GradingError) Error() string {
	if e.ProblemID == "" {
		return fmt.Sprintf("%v: %v", ErrGradingUnavailable, e.Err)
	}
	return fmt.Sprintf("%v for problem %s: %v", ErrGradingUnavailable, e.ProblemID, e.Err)
}

func (e *GradingError) Unwrap() error { return e.Err }

func (e *GradingError) Is(target error) bool { return target == ErrGradingUnavailable }

func unavailable(p Problem, err error) error {
	var ge *GradingError
	if errors.As(err, &ge) {
		return err
	}
	return &GradingError{ProblemID: p.ID, Err: err}
}
