package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/ui/theme"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show learners ranked by total XP",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		standings, err := d.engine.Leaderboard(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("leaderboard: %w", err)
		}
		if len(standings) == 0 {
			fmt.Println(theme.Hint.Render("No XP awarded yet."))
			return nil
		}

		fmt.Println(theme.Title.Render(fmt.Sprintf("%-5s  %-24s  %10s", "Rank", "Learner", "XP")))
		fmt.Println(theme.Rule(43))
		for i, s := range standings {
			fmt.Printf("%-5d  %-24s  %s\n", i+1, s.LearnerID, theme.XP.Render(fmt.Sprintf("%10d", s.TotalXP)))
		}
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().IntP("limit", "n", 10, "Number of learners to show")
}
