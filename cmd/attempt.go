package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/difficulty"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt",
	Short: "Record an already-graded attempt",
	Long: "Record an attempt whose correctness is known. Awards XP, updates the " +
		"Q-table and applies any tier promotion or demotion.",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		topic, _ := cmd.Flags().GetString("topic")
		tierVal, _ := cmd.Flags().GetString("tier")
		correct, _ := cmd.Flags().GetBool("correct")
		seconds, _ := cmd.Flags().GetFloat64("time")

		tier, err := parseTierFlag(tierVal)
		if err != nil {
			return err
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.engine.Record(cmd.Context(), adaptive.AttemptResult{
			LearnerID:        learner,
			TopicKey:         topic,
			Tier:             tier,
			IsCorrect:        correct,
			TimeTakenSeconds: seconds,
		})
		if res != nil {
			printSubmitResult(res)
		}
		if err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		return nil
	},
}

// parseTierFlag reports an unknown tier the same way an invalid attempt
// payload is reported.
func parseTierFlag(s string) (difficulty.Tier, error) {
	t, err := difficulty.ParseTier(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", adaptive.ErrInvalidAttempt, err)
	}
	return t, nil
}

func init() {
	attemptCmd.Flags().String("learner", "", "Learner ID (required)")
	attemptCmd.Flags().String("topic", "", "Topic key (required)")
	attemptCmd.Flags().String("tier", string(difficulty.Lowest()), "Tier the problem was served at: easy, intermediate or hard")
	attemptCmd.Flags().Bool("correct", false, "Whether the attempt was correct")
	attemptCmd.Flags().Float64("time", 0, "Seconds taken to answer")
	_ = attemptCmd.MarkFlagRequired("learner")
	_ = attemptCmd.MarkFlagRequired("topic")
}
