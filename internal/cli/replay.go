package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zmirror/zmirror/internal/journal"
	"github.com/zmirror/zmirror/internal/logging"
	"github.com/zmirror/zmirror/internal/persist"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild state by replaying the action journal",
		Long:  "replay folds every journaled action over a fresh state. With --write the result replaces the persisted snapshot.",
		Args:  cobra.NoArgs,
		RunE:  runReplay,
	}
	cmd.Flags().Bool("write", false, "Write the replayed state to the snapshot file")
	return cmd
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.Component("cli")

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()

	if err := db.MigrateUp(cmd.Context()); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}

	j := journal.New(db)
	count, err := j.Len(cmd.Context())
	if err != nil {
		return err
	}

	state, err := j.Replay(cmd.Context())
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}
	logger.Info().Int64("entries", count).Msg("journal replayed")

	summary := summarize(cfg.Snapshot.Path, state)
	cmd.Printf("Replayed %d journal entries.\n", count)
	cmd.Printf("  messages cached:  %d\n", summary.Messages)
	cmd.Printf("  outbox records:   %d\n", summary.Outbox)
	cmd.Printf("  unread total:     %d (%d mentions)\n", summary.UnreadTotal, summary.UnreadMentions)

	if write, _ := cmd.Flags().GetBool("write"); write {
		mgr := persist.New(cfg.Snapshot.Path)
		mgr.Set(state)
		if err := mgr.SaveNow(); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		cmd.Printf("Snapshot written to %s\n", cfg.Snapshot.Path)
	}
	return nil
}
