package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/journal"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded actions from the journal",
		Args:  cobra.NoArgs,
		RunE:  runJournal,
	}
	cmd.Flags().Int("limit", 50, "Max entries to list")
	cmd.Flags().Int64("cursor", 0, "Resume after this sequence number")
	cmd.Flags().String("type", "", "Filter by action type")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

type journalRow struct {
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Type      action.Type     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func runJournal(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()

	if err := db.MigrateUp(cmd.Context()); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetInt64("cursor")
	q := journal.Query{Cursor: cursor, Limit: limit}
	if typeFilter, _ := cmd.Flags().GetString("type"); typeFilter != "" {
		t := action.Type(typeFilter)
		q.Type = &t
	}

	page, err := journal.New(db).ReadPage(cmd.Context(), q)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		rows := make([]journalRow, 0, len(page.Entries))
		for _, e := range page.Entries {
			rows = append(rows, journalRow{Seq: e.Seq, Timestamp: e.Timestamp, Type: e.Type, Payload: e.Payload})
		}
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(payload))
		return nil
	}

	for _, e := range page.Entries {
		cmd.Printf("%6d  %s  %s\n", e.Seq, e.Timestamp.Format(time.RFC3339), e.Type)
	}
	if page.NextCursor != 0 {
		cmd.Printf("(more; resume with --cursor %d)\n", page.NextCursor)
	}
	return nil
}
