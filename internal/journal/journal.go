package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/store"
)

// Journal errors.
var (
	ErrEntryNotFound = errors.New("journal entry not found")
	ErrInvalidEntry  = errors.New("invalid journal entry")
)

// Entry is one recorded action.
type Entry struct {
	Seq       int64
	ID        string
	Timestamp time.Time
	Type      action.Type
	Payload   json.RawMessage
}

// Action decodes the entry back into its action value.
func (e *Entry) Action() (action.Action, error) {
	return decodeAction(e.Type, e.Payload)
}

// Query defines filters for reading the journal.
type Query struct {
	Type   *action.Type // Filter by action type
	Since  *time.Time   // Entries at or after this time (inclusive)
	Until  *time.Time   // Entries before this time (exclusive)
	Cursor int64        // Pagination cursor (last seen seq)
	Limit  int          // Max results to return
}

// Page is one page of query results.
type Page struct {
	Entries    []*Entry
	NextCursor int64
}

// Journal is the append-only action log. It satisfies the dispatcher's
// Recorder interface, so wiring it in captures every action as it is
// applied.
type Journal struct {
	db *DB
}

// New creates a Journal over an open database.
func New(db *DB) *Journal {
	return &Journal{db: db}
}

// Record implements the dispatcher's Recorder. Failures are logged and
// swallowed; the journal must never block or fail a dispatch.
func (j *Journal) Record(a action.Action, _ store.State) {
	if err := j.Append(context.Background(), a); err != nil {
		j.db.logger.Error().
			Err(err).
			Str("action", string(a.ActionType())).
			Msg("failed to journal action")
	}
}

// Append stores one action at the tail of the log.
func (j *Journal) Append(ctx context.Context, a action.Action) error {
	if a == nil {
		return ErrInvalidEntry
	}
	payload, err := encodeAction(a)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO actions (id, timestamp, type, payload_json)
		VALUES (?, ?, ?, ?)
	`,
		uuid.New().String(),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(a.ActionType()),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by its uuid.
func (j *Journal) Get(ctx context.Context, id string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT seq, id, timestamp, type, payload_json
		FROM actions WHERE id = ?
	`, id)

	entry, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ReadPage retrieves entries matching the query in append order, with
// cursor-based pagination.
func (j *Journal) ReadPage(ctx context.Context, q Query) (*Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT seq, id, timestamp, type, payload_json FROM actions WHERE seq > ?`
	args := []any{q.Cursor}

	if q.Type != nil {
		query += ` AND type = ?`
		args = append(args, string(*q.Type))
	}
	if q.Since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, q.Since.UTC().Format(time.RFC3339Nano))
	}
	if q.Until != nil {
		query += ` AND timestamp < ?`
		args = append(args, q.Until.UTC().Format(time.RFC3339Nano))
	}

	query += ` ORDER BY seq LIMIT ?`
	args = append(args, limit+1) // one extra row decides whether a next page exists

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal: %w", err)
	}

	page := &Page{}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		page.NextCursor = entries[limit-1].Seq
	} else {
		page.Entries = entries
	}
	return page, nil
}

// Len returns the number of recorded entries.
func (j *Journal) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return n, nil
}

// Replay folds every recorded action over a fresh state, reconstructing
// the store as it stood after the last entry. Entries whose type this
// build does not know are skipped with a warning.
func (j *Journal) Replay(ctx context.Context) (store.State, error) {
	state := store.NewState()
	cursor := int64(0)
	for {
		page, err := j.ReadPage(ctx, Query{Cursor: cursor, Limit: 500})
		if err != nil {
			return state, err
		}
		for _, entry := range page.Entries {
			a, err := entry.Action()
			if err != nil {
				if errors.Is(err, ErrUnknownActionType) {
					j.db.logger.Warn().
						Str("type", string(entry.Type)).
						Int64("seq", entry.Seq).
						Msg("skipping unknown action type during replay")
					continue
				}
				return state, fmt.Errorf("entry %d: %w", entry.Seq, err)
			}
			state = store.Reduce(state, a)
		}
		if page.NextCursor == 0 {
			return state, nil
		}
		cursor = page.NextCursor
	}
}

func scanEntry(scan func(...any) error) (*Entry, error) {
	var entry Entry
	var timestamp, actionType string
	var payload sql.NullString

	if err := scan(&entry.Seq, &entry.ID, &timestamp, &actionType, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	entry.Type = action.Type(actionType)
	if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		entry.Timestamp = t
	}
	if payload.Valid {
		entry.Payload = json.RawMessage(payload.String)
	}
	return &entry, nil
}
