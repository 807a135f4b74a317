package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// CaughtUpState tracks, per narrow key, whether the locally fetched range
// touches the true oldest or newest message of that narrow. Both bits are
// monotonic within a session: once true they stay true until an
// account-level reset, a fetch result can only add knowledge.
type CaughtUpState map[string]models.EdgeState

// NewCaughtUpState returns the empty tracker.
func NewCaughtUpState() CaughtUpState {
	return CaughtUpState{}
}

// ReduceCaughtUp applies one action to the tracker.
func ReduceCaughtUp(s CaughtUpState, a action.Action) CaughtUpState {
	switch a := a.(type) {
	case action.MessageFetchComplete:
		if a.Narrow.IsSearch() {
			return s
		}
		key := a.Narrow.Key()
		cur := s[key]
		next := models.EdgeState{
			Older: cur.Older || a.FoundOldest,
			Newer: cur.Newer || a.FoundNewest,
		}
		if existing, ok := s[key]; ok && existing == next {
			return s
		}
		out := make(CaughtUpState, len(s)+1)
		for k, e := range s {
			out[k] = e
		}
		out[key] = next
		return out
	case action.RegisterComplete, action.ResetAccountData, action.Logout,
		action.LoginSuccess, action.AccountSwitch:
		return NewCaughtUpState()
	default:
		return s
	}
}
