package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
	"github.com/zmirror/zmirror/internal/narrow"
)

// MessagesState maps message id to the locally mirrored message. Values
// are treated as immutable: updates replace the pointer with a merged
// copy, never write through it.
type MessagesState map[models.MessageID]*models.Message

// NewMessagesState returns the empty messages store.
func NewMessagesState() MessagesState {
	return MessagesState{}
}

// ReduceMessages applies one action to the messages store.
func ReduceMessages(s MessagesState, a action.Action) MessagesState {
	switch a := a.(type) {
	case action.MessageFetchComplete:
		return messagesFetchComplete(s, a.Messages)
	case action.EventNewMessage:
		return messagesNewMessage(s, a)
	case action.EventUpdateMessage:
		return messagesUpdate(s, a)
	case action.EventReactionAdd:
		return messagesReaction(s, a.MessageID, a.Reaction, true)
	case action.EventReactionRemove:
		return messagesReaction(s, a.MessageID, a.Reaction, false)
	case action.EventSubmessage:
		return messagesSubmessage(s, a)
	case action.EventMessageDelete:
		return messagesDelete(s, a.MessageIDs)
	case action.RegisterComplete, action.ResetAccountData, action.Logout,
		action.LoginSuccess, action.AccountSwitch:
		return NewMessagesState()
	default:
		return s
	}
}

// messagesFetchComplete merges fetched messages, stripped of per-user
// flags and search-match fields: flags live in the flags store, and match
// highlighting is per-query, not message content.
func messagesFetchComplete(s MessagesState, msgs []*models.Message) MessagesState {
	if len(msgs) == 0 {
		return s
	}
	out := make(MessagesState, len(s)+len(msgs))
	for id, m := range s {
		out[id] = m
	}
	for _, m := range msgs {
		out[m.ID] = m.Stripped()
	}
	return out
}

// messagesNewMessage inserts an event-stream message only when some narrow
// the message belongs to is caught up at its newer edge. Otherwise there
// would be a gap between this message and the fetched range, and an id
// could become indexed without being resolvable — downstream code assumes
// every indexed id resolves here.
func messagesNewMessage(s MessagesState, a action.EventNewMessage) MessagesState {
	m := a.Message
	if _, ok := s[m.ID]; ok {
		return s
	}
	anchored := false
	for _, n := range narrow.ForMessage(m) {
		if a.CaughtUp[n.Key()].Newer {
			anchored = true
			break
		}
	}
	if !anchored {
		return s
	}
	out := make(MessagesState, len(s)+1)
	for id, msg := range s {
		out[id] = msg
	}
	out[m.ID] = m.Stripped()
	return out
}

// messagesUpdate merges an edit event: new content and topic, plus an
// edit-history entry capturing what the message looked like before.
func messagesUpdate(s MessagesState, a action.EventUpdateMessage) MessagesState {
	ids := a.IDs
	if len(ids) == 0 {
		ids = []models.MessageID{a.ID}
	}
	var out MessagesState
	for _, id := range ids {
		old, ok := s[id]
		if !ok {
			continue
		}
		m := *old
		if a.NewRenderedContent != "" && id == a.ID {
			m.Content = a.NewRenderedContent
		}
		if a.NewStreamID != 0 {
			m.StreamID = a.NewStreamID
		}
		if a.TopicChanged {
			m.Topic = a.NewTopic
		}
		m.LastEditTimestamp = a.EditTimestamp

		entry := models.EditHistoryEntry{
			Timestamp: a.EditTimestamp,
			UserID:    a.UserID,
		}
		if id == a.ID {
			entry.PrevContent = a.OrigContent
			entry.PrevRenderedContent = a.OrigRenderedContent
		}
		if a.TopicChanged {
			entry.PrevTopic = a.OrigTopic
		}
		history := make([]models.EditHistoryEntry, 0, len(old.EditHistory)+1)
		history = append(history, entry)
		history = append(history, old.EditHistory...)
		m.EditHistory = history

		if out == nil {
			out = make(MessagesState, len(s))
			for k, v := range s {
				out[k] = v
			}
		}
		out[id] = &m
	}
	if out == nil {
		return s
	}
	return out
}

// messagesReaction functionally updates the reaction list of one message.
// Unknown message ids are a no-op: the message is simply not cached.
func messagesReaction(s MessagesState, id models.MessageID, r models.Reaction, add bool) MessagesState {
	old, ok := s[id]
	if !ok {
		return s
	}

	var reactions []models.Reaction
	if add {
		for _, existing := range old.Reactions {
			if sameReaction(existing, r) {
				return s
			}
		}
		reactions = make([]models.Reaction, 0, len(old.Reactions)+1)
		reactions = append(reactions, old.Reactions...)
		reactions = append(reactions, r)
	} else {
		found := false
		reactions = make([]models.Reaction, 0, len(old.Reactions))
		for _, existing := range old.Reactions {
			if sameReaction(existing, r) {
				found = true
				continue
			}
			reactions = append(reactions, existing)
		}
		if !found {
			return s
		}
	}

	m := *old
	m.Reactions = reactions
	out := make(MessagesState, len(s))
	for k, v := range s {
		out[k] = v
	}
	out[id] = &m
	return out
}

func sameReaction(a, b models.Reaction) bool {
	return a.UserID == b.UserID && a.EmojiCode == b.EmojiCode && a.ReactionType == b.ReactionType
}

func messagesSubmessage(s MessagesState, a action.EventSubmessage) MessagesState {
	old, ok := s[a.MessageID]
	if !ok {
		return s
	}
	m := *old
	subs := make([]models.Submessage, 0, len(old.Submessages)+1)
	subs = append(subs, old.Submessages...)
	subs = append(subs, a.Submessage)
	m.Submessages = subs

	out := make(MessagesState, len(s))
	for k, v := range s {
		out[k] = v
	}
	out[a.MessageID] = &m
	return out
}

func messagesDelete(s MessagesState, ids []models.MessageID) MessagesState {
	present := 0
	for _, id := range ids {
		if _, ok := s[id]; ok {
			present++
		}
	}
	if present == 0 {
		return s
	}
	out := make(MessagesState, len(s)-present)
	drop := make(map[models.MessageID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for id, m := range s {
		if drop[id] {
			continue
		}
		out[id] = m
	}
	return out
}
