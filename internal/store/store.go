package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// State is the whole per-account mirror: one value per sub-model. The
// zero-ish value from NewState is valid; every sub-reducer is total over
// any state it or the persist layer can produce.
type State struct {
	Messages        MessagesState        `json:"messages"`
	Unread          UnreadState          `json:"unread"`
	Outbox          OutboxState          `json:"outbox"`
	Fetching        FetchingState        `json:"fetching"`
	CaughtUp        CaughtUpState        `json:"caught_up"`
	Flags           FlagsState           `json:"flags"`
	Mute            MuteState            `json:"mute"`
	Presence        PresenceState        `json:"presence"`
	Typing          TypingState          `json:"typing"`
	PMConversations PMConversationsState `json:"pm_conversations"`
	Drafts          DraftsState          `json:"drafts"`
	AlertWords      AlertWordsState      `json:"alert_words"`
}

// NewState returns the initial empty state.
func NewState() State {
	return State{
		Messages:        NewMessagesState(),
		Unread:          NewUnreadState(),
		Outbox:          NewOutboxState(),
		Fetching:        NewFetchingState(),
		CaughtUp:        NewCaughtUpState(),
		Flags:           NewFlagsState(),
		Mute:            NewMuteState(),
		Presence:        NewPresenceState(),
		Typing:          NewTypingState(),
		PMConversations: NewPMConversationsState(),
		Drafts:          NewDraftsState(),
		AlertWords:      NewAlertWordsState(),
	}
}

// Reduce routes one action through every sub-reducer. Most sub-reducers
// no-op for any given action; the composition stays fixed so every action
// reaches every sub-model that cares. Messages reduce before flags: the
// mark-all-read fast path enumerates the post-action messages state.
func Reduce(s State, a action.Action) State {
	next := s
	next.Messages = ReduceMessages(s.Messages, a)
	next.Unread = ReduceUnread(s.Unread, a)
	next.Outbox = ReduceOutbox(s.Outbox, a)
	next.Fetching = ReduceFetching(s.Fetching, a)
	next.CaughtUp = ReduceCaughtUp(s.CaughtUp, a)
	next.Flags = ReduceFlags(s.Flags, next.Messages, a)
	next.Mute = ReduceMute(s.Mute, a)
	next.Presence = ReducePresence(s.Presence, a)
	next.Typing = ReduceTyping(s.Typing, a)
	next.PMConversations = ReducePMConversations(s.PMConversations, a)
	next.Drafts = ReduceDrafts(s.Drafts, a)
	next.AlertWords = ReduceAlertWords(s.AlertWords, a)
	return next
}

// CaughtUpSnapshot copies the caught-up tracker for embedding into an
// EventNewMessage action, the way the dispatch layer snapshots it.
func (s State) CaughtUpSnapshot() map[string]models.EdgeState {
	snap := make(map[string]models.EdgeState, len(s.CaughtUp))
	for k, v := range s.CaughtUp {
		snap[k] = v
	}
	return snap
}
