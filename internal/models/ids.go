package models

import (
	"sort"
	"strconv"
	"strings"
)

// MessageID is a server-assigned message identifier. Server ids are
// monotonically increasing, which several indices rely on for cheap
// sorted-append behavior.
type MessageID int64

// UserID identifies a user within a realm.
type UserID int64

// StreamID identifies a stream within a realm.
type StreamID int64

// PMKey is the canonical key for a private-message recipient set: the
// participant user ids, deduplicated, sorted ascending, joined with commas.
// Two recipient sets produce the same PMKey iff they denote the same
// conversation. The encoding is stable and is used as a persisted map key.
type PMKey string

// PMKeyOf builds the canonical key for the given participants.
func PMKeyOf(ids ...UserID) PMKey {
	return pmKey(ids, 0, false)
}

// PMKeyExcluding builds the canonical key for the given participants with
// self removed. Typing indicators key conversations this way.
func PMKeyExcluding(self UserID, ids ...UserID) PMKey {
	return pmKey(ids, self, true)
}

func pmKey(ids []UserID, self UserID, excludeSelf bool) PMKey {
	uniq := make([]UserID, 0, len(ids))
	seen := make(map[UserID]bool, len(ids))
	for _, id := range ids {
		if excludeSelf && id == self {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	var b strings.Builder
	for i, id := range uniq {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(id), 10))
	}
	return PMKey(b.String())
}

// UserIDs decodes the key back into its participant ids.
func (k PMKey) UserIDs() []UserID {
	if k == "" {
		return nil
	}
	parts := strings.Split(string(k), ",")
	ids := make([]UserID, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, UserID(n))
	}
	return ids
}

// ParsePMKey normalizes a server-provided "user_ids_string" (which may be
// unsorted, depending on server version) into a canonical PMKey.
func ParsePMKey(s string) PMKey {
	if s == "" {
		return ""
	}
	parts := strings.Split(s, ",")
	ids := make([]UserID, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, UserID(n))
	}
	return PMKeyOf(ids...)
}
