package store

import (
	"sort"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// PMConversation is one recent private conversation.
type PMConversation struct {
	Key models.PMKey `json:"key"`
	// MaxMessageID is the newest message id seen in the conversation;
	// the list is ordered by it, newest first.
	MaxMessageID models.MessageID `json:"max_message_id"`
}

// PMConversationsState is the recent-PM list, newest conversation first,
// one entry per recipient-set key.
type PMConversationsState []PMConversation

// NewPMConversationsState returns the empty list.
func NewPMConversationsState() PMConversationsState {
	return nil
}

// ReducePMConversations applies one action to the recent-PM list.
func ReducePMConversations(s PMConversationsState, a action.Action) PMConversationsState {
	switch a := a.(type) {
	case action.RegisterComplete:
		return pmConversationsFromRegister(a.Data.RecentPrivateConversations)
	case action.EventNewMessage:
		if a.Message.Type != models.MessageTypePrivate {
			return s
		}
		return pmConversationsInsert(s, a.Message.PMKey(), a.Message.ID)
	case action.ResetAccountData, action.Logout, action.LoginSuccess, action.AccountSwitch:
		return NewPMConversationsState()
	default:
		return s
	}
}

// pmConversationsFromRegister normalizes the server list: server-side
// ordering varies by version, so it is re-sorted locally, descending by
// max message id with the key as tie-break.
func pmConversationsFromRegister(recent []action.RecentPrivateConversation) PMConversationsState {
	byKey := make(map[models.PMKey]models.MessageID, len(recent))
	for _, rc := range recent {
		key := models.PMKeyOf(rc.UserIDs...)
		if rc.MaxMessageID > byKey[key] {
			byKey[key] = rc.MaxMessageID
		}
	}
	out := make(PMConversationsState, 0, len(byKey))
	for key, maxID := range byKey {
		out = append(out, PMConversation{Key: key, MaxMessageID: maxID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaxMessageID != out[j].MaxMessageID {
			return out[i].MaxMessageID > out[j].MaxMessageID
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// pmConversationsInsert bubbles the conversation to the front with the new
// max id. Out-of-order event delivery cannot demote a conversation: an
// older id than the recorded max is ignored.
func pmConversationsInsert(s PMConversationsState, key models.PMKey, id models.MessageID) PMConversationsState {
	for i, c := range s {
		if c.Key != key {
			continue
		}
		if id <= c.MaxMessageID {
			return s
		}
		out := make(PMConversationsState, 0, len(s))
		out = append(out, PMConversation{Key: key, MaxMessageID: id})
		out = append(out, s[:i]...)
		return append(out, s[i+1:]...)
	}
	out := make(PMConversationsState, 0, len(s)+1)
	out = append(out, PMConversation{Key: key, MaxMessageID: id})
	return append(out, s...)
}
