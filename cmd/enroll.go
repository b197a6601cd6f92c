package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/adaptive"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Create initial state for a learner on a topic",
	Long: "Create the starting state for a learner/topic pair. Needed before " +
		"recording attempts when engine.require_existing_state is enabled; a " +
		"no-op when the state already exists.",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		topic, _ := cmd.Flags().GetString("topic")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		st, err := d.engine.Controller().Initialize(cmd.Context(), adaptive.Key{LearnerID: learner, TopicKey: topic})
		if err != nil {
			return fmt.Errorf("enroll: %w", err)
		}
		printState(st)
		return nil
	},
}

func init() {
	enrollCmd.Flags().String("learner", "", "Learner ID (required)")
	enrollCmd.Flags().String("topic", "", "Topic key (required)")
	_ = enrollCmd.MarkFlagRequired("learner")
	_ = enrollCmd.MarkFlagRequired("topic")
}
