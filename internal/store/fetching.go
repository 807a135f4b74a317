package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// FetchingState tracks, per narrow key, whether a fetch covering the older
// or newer edge is outstanding. It guards against duplicate concurrent
// fetches on the same edge and drives loading indicators.
//
// Search narrows are excluded: their fetch state is ephemeral and
// accumulating an entry per search query would grow without bound.
type FetchingState map[string]models.EdgeState

// NewFetchingState returns the empty tracker.
func NewFetchingState() FetchingState {
	return FetchingState{}
}

// ReduceFetching applies one action to the tracker.
func ReduceFetching(s FetchingState, a action.Action) FetchingState {
	switch a := a.(type) {
	case action.MessageFetchStart:
		if a.Narrow.IsSearch() {
			return s
		}
		key := a.Narrow.Key()
		cur := s[key]
		next := models.EdgeState{
			Older: cur.Older || a.NumBefore > 0,
			Newer: cur.Newer || a.NumAfter > 0,
		}
		return fetchingSet(s, key, next)
	case action.MessageFetchError:
		if a.Narrow.IsSearch() {
			return s
		}
		// Best-effort rollback to the default; the caller decides
		// whether to retry.
		key := a.Narrow.Key()
		if _, ok := s[key]; !ok {
			return s
		}
		return fetchingSet(s, key, models.EdgeState{})
	case action.MessageFetchComplete:
		if a.Narrow.IsSearch() {
			return s
		}
		key := a.Narrow.Key()
		cur := s[key]
		next := models.EdgeState{
			Older: cur.Older && !(a.NumBefore > 0),
			Newer: cur.Newer && !(a.NumAfter > 0),
		}
		return fetchingSet(s, key, next)
	case action.RegisterComplete, action.ResetAccountData, action.Logout,
		action.LoginSuccess, action.AccountSwitch:
		return NewFetchingState()
	default:
		return s
	}
}

func fetchingSet(s FetchingState, key string, v models.EdgeState) FetchingState {
	if cur, ok := s[key]; ok && cur == v {
		return s
	}
	out := make(FetchingState, len(s)+1)
	for k, e := range s {
		out[k] = e
	}
	out[key] = v
	return out
}
