package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/ui/theme"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a learner's state on a topic",
	Long: "Return a learner to the lowest tier with cleared streaks and episode. " +
		"Learned Q-values survive unless --full is given. The previous state is " +
		"snapshotted when the backend keeps history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		topic, _ := cmd.Flags().GetString("topic")
		full, _ := cmd.Flags().GetBool("full")
		keep, _ := cmd.Flags().GetInt("keep-snapshots")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		key := adaptive.Key{LearnerID: learner, TopicKey: topic}
		st, err := d.engine.Controller().Reset(ctx, key, full)
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		printState(st)

		if d.sqlite == nil {
			return nil
		}
		snaps := d.sqlite.SnapshotRepo()
		if snap, err := snaps.Latest(ctx, key); err == nil && snap != nil {
			fmt.Println(theme.Hint.Render(fmt.Sprintf("Previous state saved as snapshot #%d (%s).", snap.Sequence, snap.Reason)))
		}
		if keep > 0 {
			if err := snaps.Prune(ctx, key, keep); err != nil {
				return fmt.Errorf("prune snapshots: %w", err)
			}
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().String("learner", "", "Learner ID (required)")
	resetCmd.Flags().String("topic", "", "Topic key (required)")
	resetCmd.Flags().Bool("full", false, "Also clear learned Q-values")
	resetCmd.Flags().Int("keep-snapshots", 20, "Snapshots to keep per learner/topic (0 keeps all, sqlite only)")
	_ = resetCmd.MarkFlagRequired("learner")
	_ = resetCmd.MarkFlagRequired("topic")
}
