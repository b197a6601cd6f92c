package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/engine"
	"github.com/abhisek/polegion/internal/ui/theme"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file.jsonl>",
	Short: "Record a file of graded attempts",
	Long: "Record attempts from a JSON-lines file, one attempt per line:\n\n" +
		`  {"learner_id": "ana", "topic_key": "fractions", "difficulty_tier": "easy", "is_correct": true, "time_taken_seconds": 12}` +
		"\n\nAttempts for one learner/topic are applied in file order; different " +
		"learner/topic pairs are processed concurrently.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workers, _ := cmd.Flags().GetInt("workers")

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open attempts: %w", err)
		}
		defer f.Close()
		attempts, err := engine.DecodeAttempts(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		sum, err := d.engine.Replay(cmd.Context(), attempts, workers)
		fmt.Println(theme.Card.Render(
			theme.Title.Render("Replay") + "\n" +
				theme.Field("Attempts", fmt.Sprintf("%d", sum.Attempts)) + "\n" +
				theme.Field("Applied", fmt.Sprintf("%d", sum.Applied)) + "\n" +
				theme.Field("Skipped", fmt.Sprintf("%d", sum.Skipped)) + "\n" +
				theme.Field("Promotions", fmt.Sprintf("%d", sum.Promotions)) + "\n" +
				theme.Field("Demotions", fmt.Sprintf("%d", sum.Demotions)) + "\n" +
				theme.Field("XP awarded", theme.XP.Render(fmt.Sprintf("%d", sum.XPAwarded))),
		))
		return err
	},
}

func init() {
	replayCmd.Flags().Int("workers", runtime.NumCPU(), "Learner/topic pairs processed in parallel")
}
