// Package models defines the core data records mirrored from the server.
package models

// MessageType distinguishes stream messages from private messages.
type MessageType string

const (
	MessageTypeStream  MessageType = "stream"
	MessageTypePrivate MessageType = "private"
)

// Message flags the server may attach to a message for the requesting user.
// Flags are per-user state and are tracked separately from message content;
// the messages store strips them on ingest.
const (
	FlagRead              = "read"
	FlagStarred           = "starred"
	FlagCollapsed         = "collapsed"
	FlagMentioned         = "mentioned"
	FlagWildcardMentioned = "wildcard_mentioned"
	FlagHasAlertWord      = "has_alert_word"
	FlagHistorical        = "historical"
)

// PMRecipient describes one participant of a private message.
type PMRecipient struct {
	ID       UserID `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Reaction is a single emoji reaction on a message.
type Reaction struct {
	EmojiName    string `json:"emoji_name"`
	EmojiCode    string `json:"emoji_code"`
	ReactionType string `json:"reaction_type"`
	UserID       UserID `json:"user_id"`
}

// EditHistoryEntry records one prior revision of a message. Entries are
// ordered newest first; each captures what the message looked like before
// the edit it describes.
type EditHistoryEntry struct {
	PrevContent         string `json:"prev_content,omitempty"`
	PrevRenderedContent string `json:"prev_rendered_content,omitempty"`
	PrevTopic           string `json:"prev_subject,omitempty"`
	Timestamp           int64  `json:"timestamp"`
	UserID              UserID `json:"user_id"`
}

// Submessage is a widget payload attached to a message (polls, todo lists).
type Submessage struct {
	ID        int64     `json:"id"`
	MessageID MessageID `json:"message_id"`
	SenderID  UserID    `json:"sender_id"`
	MsgType   string    `json:"msg_type"`
	Content   string    `json:"content"`
}

// Message is a server message as mirrored locally. Once a message id is
// known to the store it is never replaced by a different logical message;
// all later changes (edits, reactions, moves, deletions) are merges keyed
// by the same id.
type Message struct {
	ID             MessageID   `json:"id"`
	Type           MessageType `json:"type"`
	SenderID       UserID      `json:"sender_id"`
	SenderEmail    string      `json:"sender_email"`
	SenderFullName string      `json:"sender_full_name"`
	Content        string      `json:"content"`
	Timestamp      int64       `json:"timestamp"`

	// Stream-message fields; zero/empty for private messages.
	StreamID StreamID `json:"stream_id,omitempty"`
	Topic    string   `json:"subject,omitempty"`

	// Private-message field; nil for stream messages. Includes the sender.
	Recipients []PMRecipient `json:"display_recipient,omitempty"`

	Reactions   []Reaction         `json:"reactions,omitempty"`
	EditHistory []EditHistoryEntry `json:"edit_history,omitempty"`
	Submessages []Submessage       `json:"submessages,omitempty"`

	LastEditTimestamp int64 `json:"last_edit_timestamp,omitempty"`

	// Flags as delivered on the wire. Per-user state, not message content:
	// the messages store strips these on ingest and the flags store owns
	// them from then on.
	Flags []string `json:"flags,omitempty"`

	// Search-match highlighting, present only on search fetch results.
	// Not durable content; stripped on ingest like Flags.
	MatchContent string `json:"match_content,omitempty"`
	MatchTopic   string `json:"match_subject,omitempty"`
}

// HasFlag reports whether the wire-delivered flag list contains name.
func (m *Message) HasFlag(name string) bool {
	for _, f := range m.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// IsMention reports whether the message is a direct or wildcard mention,
// judging from the wire-delivered flags.
func (m *Message) IsMention() bool {
	return m.HasFlag(FlagMentioned) || m.HasFlag(FlagWildcardMentioned)
}

// RecipientIDs returns the participant ids of a private message, including
// the sender. Nil for stream messages.
func (m *Message) RecipientIDs() []UserID {
	if m.Type != MessageTypePrivate {
		return nil
	}
	ids := make([]UserID, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		ids = append(ids, r.ID)
	}
	return ids
}

// PMKey returns the canonical recipient-set key of a private message.
// Empty for stream messages.
func (m *Message) PMKey() PMKey {
	if m.Type != MessageTypePrivate {
		return ""
	}
	return PMKeyOf(m.RecipientIDs()...)
}

// IsGroupPM reports whether the message is a group private message
// (more than two participants).
func (m *Message) IsGroupPM() bool {
	return m.Type == MessageTypePrivate && len(m.Recipients) > 2
}

// OtherUserID returns the "other side" of a 1:1 private message. For a
// message to self it returns ownUserID itself.
func (m *Message) OtherUserID(ownUserID UserID) UserID {
	for _, r := range m.Recipients {
		if r.ID != ownUserID {
			return r.ID
		}
	}
	return ownUserID
}

// Stripped returns a copy of the message with per-user and per-query fields
// removed, suitable for insertion into the messages store.
func (m *Message) Stripped() *Message {
	c := *m
	c.Flags = nil
	c.MatchContent = ""
	c.MatchTopic = ""
	return &c
}
