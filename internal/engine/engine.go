// Package engine runs the grade → reward → adapt loop for one submission.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/difficulty"
	"github.com/abhisek/polegion/internal/grading"
	"github.com/abhisek/polegion/internal/logging"
	"github.com/abhisek/polegion/internal/reward"
)

// SubmitRequest is one learner submission for one problem.
type SubmitRequest struct {
	LearnerID        string
	TopicKey         string
	Tier             difficulty.Tier
	Problem          grading.Problem
	Submission       reward.Submission
	TimeTakenSeconds float64
}

func (r SubmitRequest) attempt(correct bool) adaptive.AttemptResult {
	return adaptive.AttemptResult{
		LearnerID:        r.LearnerID,
		TopicKey:         r.TopicKey,
		Tier:             r.Tier,
		IsCorrect:        correct,
		TimeTakenSeconds: r.TimeTakenSeconds,
	}
}

// SubmitResult reports what a submission earned.
type SubmitResult struct {
	// Degraded is set when the submission could not be graded. The learner
	// got participation XP and the adaptive state was not touched.
	Degraded bool
	Reason   string

	IsCorrect bool
	XPAwarded int
	Feedback  string

	// Result is nil when Degraded.
	Result *adaptive.Result

	// XPTotal is the learner's ledger total after crediting XPAwarded.
	XPTotal int64
}

// Service wires a grader, the difficulty controller and the XP ledger.
type Service struct {
	ctrl   *adaptive.Controller
	grader grading.Grader
	ledger reward.Ledger
	log    *logging.Logger
}

// New creates a Service. A nil ledger uses an in-memory one; a nil logger
// discards output.
func New(ctrl *adaptive.Controller, grader grading.Grader, ledger reward.Ledger, log *logging.Logger) (*Service, error) {
	if ctrl == nil {
		return nil, errors.New("engine: controller is required")
	}
	if grader == nil {
		return nil, errors.New("engine: grader is required")
	}
	if ledger == nil {
		ledger = reward.NewMemoryLedger()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Service{ctrl: ctrl, grader: grader, ledger: ledger, log: log}, nil
}

// Controller exposes the difficulty controller for state queries and resets.
func (s *Service) Controller() *adaptive.Controller {
	return s.ctrl
}

// Submit grades the submission and, when a verdict is reached, feeds it to
// the controller. Invalid requests fail with adaptive.ErrInvalidAttempt
// before anything is graded.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := adaptive.ValidateAttempt(req.attempt(false)); err != nil {
		return nil, err
	}

	grade, err := grading.GradeCompetitionSolution(ctx, s.grader, req.Problem, req.Submission)
	switch {
	case !req.Submission.IsAnswered():
		return s.degrade(ctx, req, grade, req.Submission.Reason)
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Warn("grading degraded",
			"learner_id", req.LearnerID,
			"topic_key", req.TopicKey,
			"problem_id", req.Problem.ID,
			"error", err,
		)
		return s.degrade(ctx, req, grade, err.Error())
	}

	return s.Record(ctx, req.attempt(grade.IsCorrect))
}

// Record applies an attempt whose correctness is already known.
func (s *Service) Record(ctx context.Context, a adaptive.AttemptResult) (*SubmitResult, error) {
	res, err := s.ctrl.Update(ctx, a)
	if err != nil {
		return nil, err
	}
	out := &SubmitResult{
		IsCorrect: a.IsCorrect,
		XPAwarded: res.XPAwarded(),
		Feedback:  reward.Participation(a.IsCorrect).Feedback,
		Result:    &res,
	}
	// The attempt is committed at this point; a ledger failure is reported
	// alongside the result.
	total, err := s.ledger.AddXP(ctx, a.LearnerID, out.XPAwarded)
	if err != nil {
		return out, fmt.Errorf("credit xp for %s: %w", a.LearnerID, err)
	}
	out.XPTotal = total
	return out, nil
}

func (s *Service) degrade(ctx context.Context, req SubmitRequest, g reward.Grade, reason string) (*SubmitResult, error) {
	out := &SubmitResult{
		Degraded:  true,
		Reason:    reason,
		IsCorrect: g.IsCorrect,
		XPAwarded: g.XPGained,
		Feedback:  g.Feedback,
	}
	total, err := s.ledger.AddXP(ctx, req.LearnerID, g.XPGained)
	if err != nil {
		return out, fmt.Errorf("credit xp for %s: %w", req.LearnerID, err)
	}
	out.XPTotal = total
	return out, nil
}

// Leaderboard returns the top n learners by XP.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]reward.Standing, error) {
	return s.ledger.Top(ctx, n)
}
