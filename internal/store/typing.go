package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// TypingState maps a normalized recipient-set key (self excluded) to who
// is currently typing there. Entries disappear when their last typist
// stops or when the sweeper clears a stale key; there is no per-entry
// timer.
type TypingState map[models.PMKey]models.TypingStatus

// NewTypingState returns the empty typing store.
func NewTypingState() TypingState {
	return TypingState{}
}

// ReduceTyping applies one action to the typing store.
func ReduceTyping(s TypingState, a action.Action) TypingState {
	switch a := a.(type) {
	case action.EventTypingStart:
		return typingStart(s, a)
	case action.EventTypingStop:
		return typingStop(s, a)
	case action.ClearTyping:
		return typingClear(s, a.Keys)
	case action.RegisterComplete, action.ResetAccountData, action.Logout,
		action.LoginSuccess, action.AccountSwitch:
		return NewTypingState()
	default:
		return s
	}
}

// typingStart adds the sender to the conversation's typist set (never the
// user's own typing) and refreshes the entry's time either way.
func typingStart(s TypingState, a action.EventTypingStart) TypingState {
	if a.SenderID == a.OwnUserID {
		return s
	}
	key := models.PMKeyExcluding(a.OwnUserID, a.RecipientIDs...)
	cur := s[key]

	userIDs := cur.UserIDs
	present := false
	for _, id := range userIDs {
		if id == a.SenderID {
			present = true
			break
		}
	}
	if !present {
		next := make([]models.UserID, len(userIDs), len(userIDs)+1)
		copy(next, userIDs)
		userIDs = append(next, a.SenderID)
	}

	out := make(TypingState, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[key] = models.TypingStatus{Time: a.Time, UserIDs: userIDs}
	return out
}

// typingStop removes the sender; the key is deleted outright once its
// typist list empties.
func typingStop(s TypingState, a action.EventTypingStop) TypingState {
	key := models.PMKeyExcluding(a.OwnUserID, a.RecipientIDs...)
	cur, ok := s[key]
	if !ok {
		return s
	}
	remaining := make([]models.UserID, 0, len(cur.UserIDs))
	for _, id := range cur.UserIDs {
		if id != a.SenderID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == len(cur.UserIDs) {
		return s
	}

	out := make(TypingState, len(s))
	for k, v := range s {
		out[k] = v
	}
	if len(remaining) == 0 {
		delete(out, key)
	} else {
		out[key] = models.TypingStatus{Time: cur.Time, UserIDs: remaining}
	}
	return out
}

func typingClear(s TypingState, keys []models.PMKey) TypingState {
	var out TypingState
	for _, key := range keys {
		if _, ok := s[key]; !ok {
			continue
		}
		if out == nil {
			out = make(TypingState, len(s))
			for k, v := range s {
				out[k] = v
			}
		}
		delete(out, key)
	}
	if out == nil {
		return s
	}
	return out
}

// StaleKeys returns the keys whose last start event is older than
// windowMillis as of nowMillis; input for a ClearTyping dispatch.
func (s TypingState) StaleKeys(nowMillis, windowMillis int64) []models.PMKey {
	var stale []models.PMKey
	for key, status := range s {
		if nowMillis-status.Time >= windowMillis {
			stale = append(stale, key)
		}
	}
	return stale
}
