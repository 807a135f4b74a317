package store

import (
	"github.com/zmirror/zmirror/internal/action"
)

// DraftsState maps narrow key to the markdown the user has composed but
// not sent there. Empty content deletes the entry.
type DraftsState map[string]string

// NewDraftsState returns the empty drafts store.
func NewDraftsState() DraftsState {
	return DraftsState{}
}

// ReduceDrafts applies one action to the drafts store. Drafts survive
// logout deliberately: they are local user input, not server state. Only
// an explicit account reset or switch drops them.
func ReduceDrafts(s DraftsState, a action.Action) DraftsState {
	switch a := a.(type) {
	case action.DraftUpdate:
		key := a.Narrow.Key()
		if a.Content == "" {
			if _, ok := s[key]; !ok {
				return s
			}
			out := make(DraftsState, len(s))
			for k, v := range s {
				out[k] = v
			}
			delete(out, key)
			return out
		}
		if s[key] == a.Content {
			return s
		}
		out := make(DraftsState, len(s)+1)
		for k, v := range s {
			out[k] = v
		}
		out[key] = a.Content
		return out
	case action.ResetAccountData, action.AccountSwitch:
		return NewDraftsState()
	default:
		return s
	}
}
