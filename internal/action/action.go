// Package action defines the tagged actions that drive the state layer.
//
// Every state change enters the system as one of these values: the initial
// register snapshot, a server event, a fetch lifecycle step, or a local
// user action. The set is closed — Action is a sealed interface — so each
// sub-reducer can switch over it exhaustively.
package action

import (
	"github.com/zmirror/zmirror/internal/models"
	"github.com/zmirror/zmirror/internal/narrow"
)

// Type names an action kind, for logging and the journal.
type Type string

const (
	TypeMessageFetchStart    Type = "message_fetch.start"
	TypeMessageFetchComplete Type = "message_fetch.complete"
	TypeMessageFetchError    Type = "message_fetch.error"

	TypeEventNewMessage         Type = "event.new_message"
	TypeEventUpdateMessage      Type = "event.update_message"
	TypeEventUpdateMessageFlags Type = "event.update_message_flags"
	TypeEventMessageDelete      Type = "event.message_delete"
	TypeEventReactionAdd        Type = "event.reaction_add"
	TypeEventReactionRemove     Type = "event.reaction_remove"
	TypeEventSubmessage         Type = "event.submessage"
	TypeEventPresence           Type = "event.presence"
	TypeEventTypingStart        Type = "event.typing_start"
	TypeEventTypingStop         Type = "event.typing_stop"
	TypeEventMutedTopics        Type = "event.muted_topics"
	TypeEventUserTopic          Type = "event.user_topic"
	TypeEventAlertWords         Type = "event.alert_words"

	TypeMessageSendStart    Type = "outbox.send_start"
	TypeMessageSendComplete Type = "outbox.send_complete"
	TypeMessageSendFailed   Type = "outbox.send_failed"
	TypeOutboxAgeSweep      Type = "outbox.age_sweep"
	TypeDeleteOutboxMessage Type = "outbox.delete"

	TypeClearTyping Type = "typing.clear"
	TypeDraftUpdate Type = "draft.update"

	TypeRegisterComplete Type = "register.complete"
	TypeResetAccountData Type = "account.reset"
	TypeLogout           Type = "account.logout"
	TypeLoginSuccess     Type = "account.login"
	TypeAccountSwitch    Type = "account.switch"
)

// Action is the closed set of state-layer inputs.
type Action interface {
	// ActionType names the action kind.
	ActionType() Type
}

// MessageFetchStart records that a fetch covering numBefore older and
// numAfter newer messages around an anchor was issued for the narrow.
type MessageFetchStart struct {
	Narrow    narrow.Narrow
	NumBefore int
	NumAfter  int
}

// MessageFetchComplete carries a finished fetch's results.
type MessageFetchComplete struct {
	Narrow      narrow.Narrow
	Messages    []*models.Message
	Anchor      models.MessageID
	NumBefore   int
	NumAfter    int
	FoundOldest bool
	FoundNewest bool
	OwnUserID   models.UserID
}

// MessageFetchError records that a fetch failed; per-narrow fetching state
// rolls back to the default so the fetch can be retried.
type MessageFetchError struct {
	Narrow narrow.Narrow
	Err    error
}

// EventNewMessage delivers one new message from the event stream, together
// with a snapshot of per-narrow caught-up state taken at dispatch time and
// the account's own user id.
type EventNewMessage struct {
	Message   *models.Message
	CaughtUp  map[string]models.EdgeState
	OwnUserID models.UserID
	// LocalMessageID is the client-local id echoed back by the server
	// when this client sent the message; zero otherwise. It finalizes
	// the matching outbox record.
	LocalMessageID int64
}

// MessageDetail is the per-message payload of a flag-remove event, enough
// to re-index a message marked unread without having it locally cached.
type MessageDetail struct {
	Type      models.MessageType
	StreamID  models.StreamID
	Topic     string
	UserIDs   []models.UserID
	Mentioned bool
}

// EventUpdateMessageFlags adds or removes one flag on a set of messages.
// With All set (only valid for op add of the read flag) every message is
// affected and Messages is empty.
type EventUpdateMessageFlags struct {
	// Op is "add" or "remove".
	Op   string
	Flag string
	All  bool
	// Messages lists the affected ids.
	Messages []models.MessageID
	// MessageDetails accompanies op=remove of the read flag.
	MessageDetails map[models.MessageID]MessageDetail
	OwnUserID      models.UserID
}

// EventUpdateMessage delivers a message edit, possibly moving messages to
// a different topic or stream.
type EventUpdateMessage struct {
	// ID is the message whose edit triggered the event.
	ID models.MessageID
	// IDs lists every affected message, sorted ascending. For a plain
	// content edit this is just ID.
	IDs []models.MessageID
	// UserID is the editing user; zero when the server omits it.
	UserID        models.UserID
	EditTimestamp int64

	// StreamID is the stream the affected messages were in.
	StreamID models.StreamID
	// NewStreamID is set (non-zero) when the messages moved streams.
	NewStreamID models.StreamID
	// OrigTopic/NewTopic describe a topic move; TopicChanged distinguishes
	// a move to the empty topic from no move.
	OrigTopic    string
	NewTopic     string
	TopicChanged bool

	// Content edit payload; empty strings mean unchanged.
	OrigContent         string
	OrigRenderedContent string
	NewContent          string
	NewRenderedContent  string
}

// IsMove reports whether the event moves messages between buckets.
func (e EventUpdateMessage) IsMove() bool {
	return e.NewStreamID != 0 || e.TopicChanged
}

// ResolvedNewStream returns the stream the messages end up in.
func (e EventUpdateMessage) ResolvedNewStream() models.StreamID {
	if e.NewStreamID != 0 {
		return e.NewStreamID
	}
	return e.StreamID
}

// ResolvedNewTopic returns the topic the messages end up in.
func (e EventUpdateMessage) ResolvedNewTopic() string {
	if e.TopicChanged {
		return e.NewTopic
	}
	return e.OrigTopic
}

// EventMessageDelete removes messages everywhere they are indexed.
type EventMessageDelete struct {
	MessageIDs []models.MessageID
}

// EventReactionAdd adds a reaction to a message.
type EventReactionAdd struct {
	MessageID models.MessageID
	Reaction  models.Reaction
}

// EventReactionRemove removes a reaction from a message.
type EventReactionRemove struct {
	MessageID models.MessageID
	Reaction  models.Reaction
}

// EventSubmessage appends a widget submessage to a message.
type EventSubmessage struct {
	MessageID  models.MessageID
	Submessage models.Submessage
}

// EventPresence delivers one client's presence report for one user.
type EventPresence struct {
	UserID   models.UserID
	Email    string
	Client   string
	Presence models.ClientPresence
	// ServerTimestamp is the server's clock at event time, in seconds.
	ServerTimestamp int64
}

// EventTypingStart reports that a user began typing in a PM conversation.
type EventTypingStart struct {
	SenderID models.UserID
	// RecipientIDs includes every participant, possibly including self.
	RecipientIDs []models.UserID
	OwnUserID    models.UserID
	// Time is the local arrival time in milliseconds.
	Time int64
}

// EventTypingStop reports that a user stopped typing.
type EventTypingStop struct {
	SenderID     models.UserID
	RecipientIDs []models.UserID
	OwnUserID    models.UserID
}

// ClearTyping drops stale typing entries; dispatched by the sweeper.
type ClearTyping struct {
	Keys []models.PMKey
}

// EventMutedTopics replaces the muted-topic set wholesale (legacy servers
// send the full list on every change).
type EventMutedTopics struct {
	// MutedTopics pairs stream id with topic name.
	MutedTopics []MutedTopic
}

// MutedTopic is one muted stream topic.
type MutedTopic struct {
	StreamID models.StreamID
	Topic    string
}

// EventUserTopic sets one topic's visibility policy; the default policy
// deletes the entry.
type EventUserTopic struct {
	StreamID models.StreamID
	Topic    string
	Policy   models.VisibilityPolicy
}

// EventAlertWords replaces the alert-word list wholesale.
type EventAlertWords struct {
	AlertWords []string
}

// MessageSendStart enqueues an outbox record. Re-enqueueing an existing
// local id is a no-op.
type MessageSendStart struct {
	Outbox models.Outbox
}

// MessageSendComplete marks an outbox record sent after a successful send
// request; the record stays until the server echoes the message back.
type MessageSendComplete struct {
	LocalMessageID int64
}

// MessageSendFailed moves an outbox record to a terminal failure state.
type MessageSendFailed struct {
	LocalMessageID int64
	// Status is one of the terminal statuses (client-error or misc);
	// transient failures do not dispatch this action at all.
	Status models.OutboxStatus
	Detail string
}

// OutboxAgeSweep decays transient outbox records older than the window.
// Now is in seconds; the sweeper dispatches this periodically so the
// reducer itself never reads the clock.
type OutboxAgeSweep struct {
	Now           int64
	WindowSeconds int64
}

// DeleteOutboxMessage removes an outbox record by local id, either because
// the user dismissed it or because its confirmed message arrived.
type DeleteOutboxMessage struct {
	LocalMessageID int64
}

// DraftUpdate saves or clears the compose draft for a narrow; empty
// content deletes the draft.
type DraftUpdate struct {
	Narrow  narrow.Narrow
	Content string
}

// RegisterComplete applies the initial server snapshot wholesale.
type RegisterComplete struct {
	Data RegisterData
}

// ResetAccountData clears all per-account state.
type ResetAccountData struct{}

// Logout clears all per-account state on logout.
type Logout struct{}

// LoginSuccess clears stale state when an account logs in.
type LoginSuccess struct{}

// AccountSwitch clears state when switching accounts.
type AccountSwitch struct{}

func (MessageFetchStart) ActionType() Type       { return TypeMessageFetchStart }
func (MessageFetchComplete) ActionType() Type    { return TypeMessageFetchComplete }
func (MessageFetchError) ActionType() Type       { return TypeMessageFetchError }
func (EventNewMessage) ActionType() Type         { return TypeEventNewMessage }
func (EventUpdateMessage) ActionType() Type      { return TypeEventUpdateMessage }
func (EventUpdateMessageFlags) ActionType() Type { return TypeEventUpdateMessageFlags }
func (EventMessageDelete) ActionType() Type      { return TypeEventMessageDelete }
func (EventReactionAdd) ActionType() Type        { return TypeEventReactionAdd }
func (EventReactionRemove) ActionType() Type     { return TypeEventReactionRemove }
func (EventSubmessage) ActionType() Type         { return TypeEventSubmessage }
func (EventPresence) ActionType() Type           { return TypeEventPresence }
func (EventTypingStart) ActionType() Type        { return TypeEventTypingStart }
func (EventTypingStop) ActionType() Type         { return TypeEventTypingStop }
func (ClearTyping) ActionType() Type             { return TypeClearTyping }
func (EventMutedTopics) ActionType() Type        { return TypeEventMutedTopics }
func (EventUserTopic) ActionType() Type          { return TypeEventUserTopic }
func (EventAlertWords) ActionType() Type         { return TypeEventAlertWords }
func (MessageSendStart) ActionType() Type        { return TypeMessageSendStart }
func (MessageSendComplete) ActionType() Type     { return TypeMessageSendComplete }
func (MessageSendFailed) ActionType() Type       { return TypeMessageSendFailed }
func (OutboxAgeSweep) ActionType() Type          { return TypeOutboxAgeSweep }
func (DeleteOutboxMessage) ActionType() Type     { return TypeDeleteOutboxMessage }
func (DraftUpdate) ActionType() Type             { return TypeDraftUpdate }
func (RegisterComplete) ActionType() Type        { return TypeRegisterComplete }
func (ResetAccountData) ActionType() Type        { return TypeResetAccountData }
func (Logout) ActionType() Type                  { return TypeLogout }
func (LoginSuccess) ActionType() Type            { return TypeLoginSuccess }
func (AccountSwitch) ActionType() Type           { return TypeAccountSwitch }
