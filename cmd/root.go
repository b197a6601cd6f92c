package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "polegion",
	Short: "Adaptive difficulty and XP engine",
	Long: "Polegion grades learner attempts, awards XP and moves each learner " +
		"up or down the difficulty ladder with a per-topic Q-learning policy.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./polegion.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides POLEGION_DB env var)")
	rootCmd.PersistentFlags().String("backend", "", "State backend: sqlite, redis or memory (overrides config)")

	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(attemptCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then store.db_path from config, then POLEGION_DB and the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
