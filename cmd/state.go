package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/ui/theme"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show a learner's adaptive state",
	Long:  "Show the tier, streaks and Q-table for one topic, or every topic when --topic is omitted (sqlite only).",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		topic, _ := cmd.Flags().GetString("topic")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()
		ctx := cmd.Context()

		if topic != "" {
			st, err := d.engine.Controller().State(ctx, adaptive.Key{LearnerID: learner, TopicKey: topic})
			if err != nil {
				return err
			}
			printState(st)
			return nil
		}

		if err := d.requireSQLite("listing every topic"); err != nil {
			return err
		}
		states, err := d.sqlite.StateRepo().ListStates(ctx, learner)
		if err != nil {
			return fmt.Errorf("list states: %w", err)
		}
		if len(states) == 0 {
			fmt.Println(theme.Hint.Render("No state recorded for " + learner + "."))
			return nil
		}
		for _, st := range states {
			printState(st)
		}
		return nil
	},
}

func init() {
	stateCmd.Flags().String("learner", "", "Learner ID (required)")
	stateCmd.Flags().String("topic", "", "Topic key")
	_ = stateCmd.MarkFlagRequired("learner")
}
