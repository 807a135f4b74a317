package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// FlagMap is a membership set of message ids carrying one flag.
type FlagMap map[models.MessageID]bool

// FlagsState tracks per-user message flags, separated from message content.
// Fetched messages deliver their flags on the wire; the messages store
// strips them and this store owns them from then on.
type FlagsState struct {
	Read              FlagMap `json:"read"`
	Starred           FlagMap `json:"starred"`
	Collapsed         FlagMap `json:"collapsed"`
	Mentioned         FlagMap `json:"mentioned"`
	WildcardMentioned FlagMap `json:"wildcard_mentioned"`
	HasAlertWord      FlagMap `json:"has_alert_word"`
	Historical        FlagMap `json:"historical"`
}

// NewFlagsState returns the empty flags store.
func NewFlagsState() FlagsState {
	return FlagsState{}
}

// knownFlags maps wire flag names to accessors; unknown flags are ignored.
var knownFlags = []string{
	models.FlagRead,
	models.FlagStarred,
	models.FlagCollapsed,
	models.FlagMentioned,
	models.FlagWildcardMentioned,
	models.FlagHasAlertWord,
	models.FlagHistorical,
}

func (s *FlagsState) flagMap(name string) *FlagMap {
	switch name {
	case models.FlagRead:
		return &s.Read
	case models.FlagStarred:
		return &s.Starred
	case models.FlagCollapsed:
		return &s.Collapsed
	case models.FlagMentioned:
		return &s.Mentioned
	case models.FlagWildcardMentioned:
		return &s.WildcardMentioned
	case models.FlagHasAlertWord:
		return &s.HasAlertWord
	case models.FlagHistorical:
		return &s.Historical
	default:
		return nil
	}
}

// ReduceFlags applies one action to the flags store. msgs is the messages
// state after the same action was applied there; the mark-all-read fast
// path needs it to enumerate every cached message.
func ReduceFlags(s FlagsState, msgs MessagesState, a action.Action) FlagsState {
	switch a := a.(type) {
	case action.MessageFetchComplete:
		return flagsIngest(s, a.Messages)
	case action.EventNewMessage:
		return flagsIngest(s, []*models.Message{a.Message})
	case action.EventUpdateMessageFlags:
		return flagsUpdate(s, msgs, a)
	case action.EventMessageDelete:
		return flagsDelete(s, a.MessageIDs)
	case action.RegisterComplete, action.ResetAccountData, action.Logout,
		action.LoginSuccess, action.AccountSwitch:
		return NewFlagsState()
	default:
		return s
	}
}

// flagsIngest replaces each delivered message's flag memberships with what
// the wire says: a flag absent from the list is cleared for that id.
func flagsIngest(s FlagsState, msgs []*models.Message) FlagsState {
	if len(msgs) == 0 {
		return s
	}
	out := s
	for _, name := range knownFlags {
		cur := *out.flagMap(name)
		var next FlagMap
		for _, m := range msgs {
			has := m.HasFlag(name)
			if cur[m.ID] == has {
				continue
			}
			if next == nil {
				next = make(FlagMap, len(cur)+1)
				for id := range cur {
					next[id] = true
				}
			}
			if has {
				next[m.ID] = true
			} else {
				delete(next, m.ID)
			}
		}
		if next != nil {
			*out.flagMap(name) = next
		}
	}
	return out
}

func flagsUpdate(s FlagsState, msgs MessagesState, a action.EventUpdateMessageFlags) FlagsState {
	fm := s.flagMap(a.Flag)
	if fm == nil {
		return s
	}
	cur := *fm
	out := s

	switch a.Op {
	case "add":
		if a.All {
			if a.Flag != models.FlagRead {
				return s
			}
			// Mark all as read: every cached message gains the flag.
			next := make(FlagMap, len(msgs))
			for id := range msgs {
				next[id] = true
			}
			out.Read = next
			return out
		}
		var next FlagMap
		for _, id := range a.Messages {
			if cur[id] {
				continue
			}
			if next == nil {
				next = make(FlagMap, len(cur)+len(a.Messages))
				for k := range cur {
					next[k] = true
				}
			}
			next[id] = true
		}
		if next == nil {
			return s
		}
		*out.flagMap(a.Flag) = next
		return out
	case "remove":
		var next FlagMap
		for _, id := range a.Messages {
			if !cur[id] {
				continue
			}
			if next == nil {
				next = make(FlagMap, len(cur))
				for k := range cur {
					next[k] = true
				}
			}
			delete(next, id)
		}
		if next == nil {
			return s
		}
		*out.flagMap(a.Flag) = next
		return out
	default:
		return s
	}
}

func flagsDelete(s FlagsState, ids []models.MessageID) FlagsState {
	out := s
	for _, name := range knownFlags {
		cur := *out.flagMap(name)
		var next FlagMap
		for _, id := range ids {
			if !cur[id] {
				continue
			}
			if next == nil {
				next = make(FlagMap, len(cur))
				for k := range cur {
					next[k] = true
				}
			}
			delete(next, id)
		}
		if next != nil {
			*out.flagMap(name) = next
		}
	}
	return out
}
