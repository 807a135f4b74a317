// Package store holds the per-account state and its reducers.
//
// Every sub-state is reduced by a total pure function (state, action) ->
// state. Reducers never mutate their input: unchanged input is returned
// as-is, changed state is rebuilt with shallow copies, so callers can rely
// on reference inequality as a cheap change signal.
package store

import (
	"slices"

	"github.com/zmirror/zmirror/internal/models"
)

// idSet operations. An id set is a strictly ascending, duplicate-free
// []models.MessageID. Unread buckets can hold thousands of ids and these
// run on every relevant event, so everything here is linear or better.

// SetUnion merges two id sets into one. Linear time; returns one of the
// inputs unchanged when the other contributes nothing.
func SetUnion(a, b []models.MessageID) []models.MessageID {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	// Fast path: disjoint ranges, b entirely after a.
	if a[len(a)-1] < b[0] {
		out := make([]models.MessageID, 0, len(a)+len(b))
		out = append(out, a...)
		return append(out, b...)
	}
	if b[len(b)-1] < a[0] {
		out := make([]models.MessageID, 0, len(a)+len(b))
		out = append(out, b...)
		return append(out, a...)
	}

	out := make([]models.MessageID, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// setAdd inserts one id, preserving order and uniqueness. Server ids are
// monotonically increasing, so the common case is an O(1) tail append.
func setAdd(s []models.MessageID, id models.MessageID) []models.MessageID {
	if n := len(s); n == 0 || s[n-1] < id {
		out := make([]models.MessageID, n, n+1)
		copy(out, s)
		return append(out, id)
	}
	return SetUnion(s, []models.MessageID{id})
}

// setContains reports membership by binary search.
func setContains(s []models.MessageID, id models.MessageID) bool {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		if s[mid] < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(s) && s[lo] == id
}

// setRemove deletes the given ids from the set. Returns the input
// unchanged when nothing was present. remove need not be sorted.
func setRemove(s []models.MessageID, remove []models.MessageID) []models.MessageID {
	if len(s) == 0 || len(remove) == 0 {
		return s
	}
	drop := make(map[models.MessageID]bool, len(remove))
	for _, id := range remove {
		drop[id] = true
	}
	out := s[:0:0]
	changed := false
	for _, id := range s {
		if drop[id] {
			changed = true
			continue
		}
		out = append(out, id)
	}
	if !changed {
		return s
	}
	return out
}

// sortedUnique normalizes an arbitrary id list into a set. Server snapshot
// arrays are documented as sometimes unsorted and must not be trusted.
func sortedUnique(ids []models.MessageID) []models.MessageID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]models.MessageID, len(ids))
	copy(out, ids)
	slices.Sort(out)
	w := 0
	for i, id := range out {
		if i > 0 && out[w-1] == id {
			continue
		}
		out[w] = id
		w++
	}
	return out[:w]
}
