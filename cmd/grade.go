package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/difficulty"
	"github.com/abhisek/polegion/internal/engine"
	"github.com/abhisek/polegion/internal/grading"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a solution and apply it to the learner's state",
	Long: "Grade a JSON solution such as {\"answer\": \"3/4\"} against a problem. " +
		"Solutions that cannot be graded earn participation XP and leave the " +
		"learner's tier untouched.",
	Example: `  polegion grade --learner ana --topic fractions --prompt "1/2 + 1/4?" \
      --answer-key 3/4 --type fraction --solution '{"answer": "6/8"}'
  echo '{"answer": "B"}' | polegion grade --learner ana --topic shapes \
      --problem-file square.json --solution -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		topic, _ := cmd.Flags().GetString("topic")
		tierVal, _ := cmd.Flags().GetString("tier")
		seconds, _ := cmd.Flags().GetFloat64("time")
		solution, _ := cmd.Flags().GetString("solution")

		tier, err := parseTierFlag(tierVal)
		if err != nil {
			return err
		}
		problem, err := problemFromFlags(cmd)
		if err != nil {
			return err
		}

		raw := []byte(solution)
		if solution == "-" {
			if raw, err = io.ReadAll(cmd.InOrStdin()); err != nil {
				return fmt.Errorf("read solution: %w", err)
			}
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.engine.Submit(cmd.Context(), engine.SubmitRequest{
			LearnerID:        learner,
			TopicKey:         topic,
			Tier:             tier,
			Problem:          problem,
			Submission:       grading.ParseSubmission(raw),
			TimeTakenSeconds: seconds,
		})
		if res != nil {
			printSubmitResult(res)
		}
		if err != nil {
			return fmt.Errorf("grade solution: %w", err)
		}
		return nil
	},
}

// problemFromFlags reads --problem-file when given, otherwise assembles the
// problem from the individual flags.
func problemFromFlags(cmd *cobra.Command) (grading.Problem, error) {
	var p grading.Problem
	if file, _ := cmd.Flags().GetString("problem-file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return p, fmt.Errorf("read problem: %w", err)
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("parse problem %s: %w", file, err)
		}
		return p, nil
	}

	p.ID, _ = cmd.Flags().GetString("problem-id")
	p.Prompt, _ = cmd.Flags().GetString("prompt")
	p.Answer, _ = cmd.Flags().GetString("answer-key")
	p.Choices, _ = cmd.Flags().GetStringSlice("choices")
	t, _ := cmd.Flags().GetString("type")
	p.AnswerType = grading.AnswerType(t)
	if p.Prompt == "" && p.Answer == "" {
		return p, fmt.Errorf("either --problem-file or --prompt/--answer-key is required")
	}
	return p, nil
}

func init() {
	gradeCmd.Flags().String("learner", "", "Learner ID (required)")
	gradeCmd.Flags().String("topic", "", "Topic key (required)")
	gradeCmd.Flags().String("tier", string(difficulty.Lowest()), "Tier the problem was served at: easy, intermediate or hard")
	gradeCmd.Flags().Float64("time", 0, "Seconds taken to answer")
	gradeCmd.Flags().String("solution", "", `Solution JSON, e.g. {"answer": "42"}; "-" reads stdin`)
	gradeCmd.Flags().String("problem-file", "", "JSON file describing the problem")
	gradeCmd.Flags().String("problem-id", "", "Problem ID")
	gradeCmd.Flags().String("prompt", "", "Problem text")
	gradeCmd.Flags().String("answer-key", "", "Reference answer")
	gradeCmd.Flags().String("type", string(grading.AnswerText), "Answer type: text, integer, decimal, fraction or choice")
	gradeCmd.Flags().StringSlice("choices", nil, "Choices for a multiple-choice problem")
	_ = gradeCmd.MarkFlagRequired("learner")
	_ = gradeCmd.MarkFlagRequired("topic")
}
