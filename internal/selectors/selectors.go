// Package selectors provides derived read views over the store.
//
// Selectors never mutate state. The hot ones are memoized on the identity
// of their inputs: reducers return the same map or slice when nothing
// changed, so reference identity is a sound cache key.
package selectors

import (
	"sort"

	"github.com/zmirror/zmirror/internal/models"
	"github.com/zmirror/zmirror/internal/narrow"
	"github.com/zmirror/zmirror/internal/store"
)

// UnreadTotals summarizes the unread model for badge display.
type UnreadTotals struct {
	Streams  int
	Huddles  int
	PMs      int
	Mentions int
}

// Total is the overall unread count (mentions overlap the other three and
// are not re-counted).
func (t UnreadTotals) Total() int {
	return t.Streams + t.Huddles + t.PMs
}

func computeUnreadTotals(u store.UnreadState) UnreadTotals {
	var t UnreadTotals
	for _, topics := range u.Streams {
		for _, bucket := range topics {
			t.Streams += len(bucket)
		}
	}
	for _, bucket := range u.Huddles {
		t.Huddles += len(bucket)
	}
	for _, bucket := range u.PMs {
		t.PMs += len(bucket)
	}
	t.Mentions = len(u.Mentions)
	return t
}

// UnreadCountForTopic returns the unread count of one stream topic.
func UnreadCountForTopic(s store.State, streamID models.StreamID, topic string) int {
	return len(s.Unread.Streams[streamID][topic])
}

// UnreadCountForStream sums the unread counts of a stream's topics,
// skipping muted topics the way badge counts do.
func UnreadCountForStream(s store.State, streamID models.StreamID) int {
	n := 0
	for topic, bucket := range s.Unread.Streams[streamID] {
		if s.Mute.IsMuted(streamID, topic) {
			continue
		}
		n += len(bucket)
	}
	return n
}

// UnreadCountForPMKey returns the unread count of a PM conversation.
func UnreadCountForPMKey(s store.State, key models.PMKey, ownUserID models.UserID) int {
	ids := key.UserIDs()
	others := make([]models.UserID, 0, len(ids))
	for _, id := range ids {
		if id != ownUserID {
			others = append(others, id)
		}
	}
	if len(others) <= 1 {
		other := ownUserID
		if len(others) == 1 {
			other = others[0]
		}
		return len(s.Unread.PMs[other])
	}
	return len(s.Unread.Huddles[key])
}

// IsFetching reports the fetching tracker's entry for the narrow.
func IsFetching(s store.State, n narrow.Narrow) models.EdgeState {
	return s.Fetching[n.Key()]
}

// CaughtUp reports the caught-up tracker's entry for the narrow.
func CaughtUp(s store.State, n narrow.Narrow) models.EdgeState {
	return s.CaughtUp[n.Key()]
}

// IsFetchNeeded reports whether a fetch toward the older edge should be
// issued for the narrow: not already caught up and not already in flight.
func IsFetchNeeded(s store.State, n narrow.Narrow) bool {
	if n.IsSearch() {
		return true
	}
	key := n.Key()
	return !s.CaughtUp[key].Older && !s.Fetching[key].Older
}

// TypingUserIDs returns who is typing in a PM narrow, or nil.
func TypingUserIDs(s store.State, n narrow.Narrow, ownUserID models.UserID) []models.UserID {
	ids, ok := n.PMUserIDs()
	if !ok {
		return nil
	}
	key := models.PMKeyExcluding(ownUserID, ids...)
	return s.Typing[key].UserIDs
}

// PresenceForUser returns the user's aggregated presence as of nowSeconds.
func PresenceForUser(s store.State, userID models.UserID, nowSeconds int64) models.AggregatedPresence {
	return s.Presence.Aggregate(userID, nowSeconds)
}

// DraftForNarrow returns the saved compose draft for the narrow.
func DraftForNarrow(s store.State, n narrow.Narrow) string {
	return s.Drafts[n.Key()]
}

func computeMessagesForNarrow(s store.State, n narrow.Narrow) []models.ChatItem {
	var items []models.ChatItem
	for _, m := range s.Messages {
		if narrowContains(s, n, m) {
			items = append(items, models.MessageItem(m))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID() < items[j].ID() })

	// Provisional outbox messages render after all confirmed ones, in
	// composition order.
	var pending []models.ChatItem
	for i := range s.Outbox {
		o := &s.Outbox[i]
		if outboxInNarrow(o, n) {
			pending = append(pending, models.OutboxItem(o))
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID() < pending[j].ID() })
	return append(items, pending...)
}

// narrowContains extends narrow.Contains with flag-based membership, which
// lives in the flags store rather than on stripped messages.
func narrowContains(s store.State, n narrow.Narrow, m *models.Message) bool {
	for _, t := range n {
		if t.Operator != narrow.OpIs {
			continue
		}
		switch t.Operand {
		case "mentioned":
			if !s.Flags.Mentioned[m.ID] && !s.Flags.WildcardMentioned[m.ID] {
				return false
			}
		case "starred":
			if !s.Flags.Starred[m.ID] {
				return false
			}
		}
	}
	rest := make(narrow.Narrow, 0, len(n))
	for _, t := range n {
		if t.Operator != narrow.OpIs {
			rest = append(rest, t)
		}
	}
	return rest.Contains(m)
}

func outboxInNarrow(o *models.Outbox, n narrow.Narrow) bool {
	if n.IsHome() {
		return true
	}
	switch o.Type {
	case models.MessageTypeStream:
		id, ok := n.StreamID()
		if !ok || id != o.StreamID {
			return false
		}
		if topic, ok := n.Topic(); ok && topic != o.Topic {
			return false
		}
		return true
	case models.MessageTypePrivate:
		if !n.IsPM() {
			return false
		}
		ids, _ := n.PMUserIDs()
		return models.PMKeyOf(ids...) == o.PMKey()
	}
	return false
}
