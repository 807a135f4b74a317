package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zmirror/zmirror/internal/models"
	"github.com/zmirror/zmirror/internal/persist"
	"github.com/zmirror/zmirror/internal/store"
)

func newUnreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unread",
		Short: "Break down unread counts per conversation",
		Args:  cobra.NoArgs,
		RunE:  runUnread,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	cmd.Flags().Bool("include-muted", false, "Include muted topics in the listing")
	return cmd
}

type unreadRow struct {
	Kind     string          `json:"kind"` // "topic", "huddle", "pm"
	StreamID models.StreamID `json:"stream_id,omitempty"`
	Topic    string          `json:"topic,omitempty"`
	PMKey    models.PMKey    `json:"pm_key,omitempty"`
	Count    int             `json:"count"`
	Muted    bool            `json:"muted,omitempty"`
}

func runUnread(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mgr := persist.New(cfg.Snapshot.Path)
	state, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	includeMuted, _ := cmd.Flags().GetBool("include-muted")
	rows := unreadRows(state, includeMuted)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(payload))
		return nil
	}

	if len(rows) == 0 {
		cmd.Println("No unreads.")
		return nil
	}
	for _, row := range rows {
		switch row.Kind {
		case "topic":
			suffix := ""
			if row.Muted {
				suffix = " (muted)"
			}
			cmd.Printf("stream %d > %s: %d%s\n", row.StreamID, row.Topic, row.Count, suffix)
		case "huddle":
			cmd.Printf("group pm %s: %d\n", row.PMKey, row.Count)
		case "pm":
			cmd.Printf("pm %s: %d\n", row.PMKey, row.Count)
		}
	}
	return nil
}

func unreadRows(state store.State, includeMuted bool) []unreadRow {
	var rows []unreadRow

	for streamID, topics := range state.Unread.Streams {
		for topic, bucket := range topics {
			muted := state.Mute.IsMuted(streamID, topic)
			if muted && !includeMuted {
				continue
			}
			rows = append(rows, unreadRow{
				Kind:     "topic",
				StreamID: streamID,
				Topic:    topic,
				Count:    len(bucket),
				Muted:    muted,
			})
		}
	}
	for key, bucket := range state.Unread.Huddles {
		rows = append(rows, unreadRow{Kind: "huddle", PMKey: key, Count: len(bucket)})
	}
	for senderID, bucket := range state.Unread.PMs {
		rows = append(rows, unreadRow{Kind: "pm", PMKey: models.PMKeyOf(senderID), Count: len(bucket)})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		if rows[i].StreamID != rows[j].StreamID {
			return rows[i].StreamID < rows[j].StreamID
		}
		if rows[i].Topic != rows[j].Topic {
			return rows[i].Topic < rows[j].Topic
		}
		return rows[i].PMKey < rows[j].PMKey
	})
	return rows
}
