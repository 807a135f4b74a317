package models

// ChatItem is the tagged union of things a conversation view can display:
// a confirmed server message, or a provisional outbox message. Exactly one
// of the accessors returns non-nil; consumers switch on Kind and handle
// both variants.
type ChatItemKind int

const (
	ChatItemMessage ChatItemKind = iota
	ChatItemOutbox
)

// ChatItem holds one variant. Construct with MessageItem or OutboxItem.
type ChatItem struct {
	kind    ChatItemKind
	message *Message
	outbox  *Outbox
}

// MessageItem wraps a confirmed server message.
func MessageItem(m *Message) ChatItem {
	return ChatItem{kind: ChatItemMessage, message: m}
}

// OutboxItem wraps a provisional outbox message.
func OutboxItem(o *Outbox) ChatItem {
	return ChatItem{kind: ChatItemOutbox, outbox: o}
}

// Kind identifies the variant held.
func (c ChatItem) Kind() ChatItemKind { return c.kind }

// Message returns the message variant, or nil.
func (c ChatItem) Message() *Message { return c.message }

// Outbox returns the outbox variant, or nil.
func (c ChatItem) Outbox() *Outbox { return c.outbox }

// ID returns the ordering identity: the server message id, or the
// provisional local id for an outbox item. Outbox local ids are second
// timestamps and sort after any plausible server id of the same session's
// fetched history only by convention; views order confirmed messages first.
func (c ChatItem) ID() int64 {
	if c.kind == ChatItemMessage {
		return int64(c.message.ID)
	}
	return c.outbox.LocalMessageID
}

// Timestamp returns the item's display timestamp in seconds.
func (c ChatItem) Timestamp() int64 {
	if c.kind == ChatItemMessage {
		return c.message.Timestamp
	}
	return c.outbox.Timestamp
}
