package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/polegion/internal/adaptive"
	"github.com/abhisek/polegion/internal/store"
	"github.com/abhisek/polegion/internal/ui/theme"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List Q-value update events",
	Long: "List Q-value update events, newest last. The sqlite backend supports " +
		"every filter; the redis backend lists one learner/topic log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		topic, _ := cmd.Flags().GetString("topic")
		limit, _ := cmd.Flags().GetInt("limit")
		after, _ := cmd.Flags().GetInt64("after")
		since, _ := cmd.Flags().GetDuration("since")
		asJSON, _ := cmd.Flags().GetBool("json")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()
		ctx := cmd.Context()

		var (
			list  []store.StoredEvent
			total = -1
		)
		switch {
		case d.sqlite != nil:
			opts := store.QueryOpts{LearnerID: learner, TopicKey: topic, Limit: limit, After: after}
			if since > 0 {
				opts.From = time.Now().Add(-since)
			}
			if list, err = d.sqlite.EventRepo().QueryQValueEvents(ctx, opts); err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if total, err = d.sqlite.EventRepo().CountQValueEvents(ctx, opts); err != nil {
				return fmt.Errorf("count events: %w", err)
			}
		case d.redis != nil:
			if learner == "" || topic == "" {
				return fmt.Errorf("the redis backend needs --learner and --topic")
			}
			evs, err := d.redis.Events(ctx, adaptive.Key{LearnerID: learner, TopicKey: topic})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			for i, e := range evs {
				list = append(list, store.StoredEvent{Sequence: int64(i + 1), Event: e})
			}
			total = len(list)
			if limit > 0 && len(list) > limit {
				list = list[:limit]
			}
		default:
			return d.requireSQLite("listing events")
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range list {
				if err := enc.Encode(e.Record()); err != nil {
					return err
				}
			}
			return nil
		}
		printEvents(list)
		if total > len(list) {
			fmt.Println(theme.Hint.Render(fmt.Sprintf("Showing %d of %d events.", len(list), total)))
		}
		return nil
	},
}

func printEvents(list []store.StoredEvent) {
	if len(list) == 0 {
		fmt.Println(theme.Hint.Render("No events found."))
		return
	}

	fmt.Println(theme.Title.Render(fmt.Sprintf("%-6s  %-19s  %-12s  %-14s  %-24s  %-8s  %9s  %9s  %7s",
		"Seq", "Timestamp", "Learner", "Topic", "State", "Action", "Old Q", "New Q", "Reward")))
	fmt.Println(theme.Rule(120))
	for _, se := range list {
		e := se.Event
		fmt.Printf("%-6d  %-19s  %-12s  %-14s  %-24s  %-8s  %9.4f  %9.4f  %7.3f\n",
			se.Sequence,
			e.Timestamp().Local().Format("2006-01-02 15:04:05"),
			truncate(e.LearnerID(), 12),
			truncate(e.TopicKey(), 14),
			e.StateKey(),
			e.Action(),
			e.OldQValue(),
			e.NewQValue(),
			e.Reward(),
		)
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func init() {
	eventsCmd.Flags().String("learner", "", "Filter by learner ID")
	eventsCmd.Flags().String("topic", "", "Filter by topic key")
	eventsCmd.Flags().IntP("limit", "n", 50, "Maximum number of events")
	eventsCmd.Flags().Int64("after", 0, "Only events with a sequence greater than this")
	eventsCmd.Flags().Duration("since", 0, "Only events newer than this, e.g. 24h")
	eventsCmd.Flags().Bool("json", false, "Print persistence records as JSON lines")
}
