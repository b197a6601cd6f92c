package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/polegion/internal/llm"
)

// Verdict is the structured judgement returned by the model.
type Verdict struct {
	Correct bool   `json:"correct"`
	Reason  string `json:"reason"`
}

// VerdictSchema constrains model output to a Verdict.
var VerdictSchema = &llm.Schema{
	Name:        "solution-verdict",
	Description: "Whether a learner's solution correctly answers the problem",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct": map[string]any{
				"type":        "boolean",
				"description": "True when the solution answers the problem correctly",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "One sentence explaining the verdict",
			},
		},
		"required":             []any{"correct", "reason"},
		"additionalProperties": false,
	},
}

const graderSystemPrompt = `You grade solutions to practice problems.
Decide whether the learner's solution correctly answers the problem.
Accept equivalent forms of the same answer. Ignore spelling and formatting
unless they change the meaning. Respond only with the requested JSON.`

// LLMGrader asks a language model for a verdict. Every provider failure,
// including a response that does not match VerdictSchema, is reported as
// ErrGradingUnavailable.
type LLMGrader struct {
	provider  llm.Provider
	timeout   time.Duration
	maxTokens int
}

// NewLLMGrader creates a grader. A zero timeout leaves the caller's deadline
// in charge.
func NewLLMGrader(p llm.Provider, timeout time.Duration) *LLMGrader {
	return &LLMGrader{provider: p, timeout: timeout, maxTokens: 256}
}

func (g *LLMGrader) Grade(ctx context.Context, p Problem, answer string) (bool, error) {
	v, err := g.Judge(ctx, p, answer)
	if err != nil {
		return false, err
	}
	return v.Correct, nil
}

// Judge returns the full verdict including the model's reason.
func (g *LLMGrader) Judge(ctx context.Context, p Problem, answer string) (Verdict, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, "grade-solution")

	req := llm.SingleTurn(graderSystemPrompt, buildGradePrompt(p, answer), VerdictSchema, g.maxTokens)
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return Verdict{}, unavailable(p, err)
	}

	var v Verdict
	if err := json.Unmarshal(resp.Content, &v); err != nil {
		return Verdict{}, unavailable(p, fmt.Errorf("decode verdict: %w", err))
	}
	return v, nil
}

func buildGradePrompt(p Problem, answer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem:\n%s\n\n", strings.TrimSpace(p.Prompt))
	if len(p.Choices) > 0 {
		b.WriteString("Choices:\n")
		for i, c := range p.Choices {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c)
		}
		b.WriteString("\n")
	}
	if p.Answer != "" {
		fmt.Fprintf(&b, "Reference answer:\n%s\n\n", p.Answer)
	}
	fmt.Fprintf(&b, "Learner solution:\n%s\n", strings.TrimSpace(answer))
	return b.String()
}
