package store

import (
	"fmt"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// UnreadState is the unread-message model: four coordinated indices kept
// consistent under the register snapshot, new messages, message moves,
// flag changes and deletions.
//
// Invariants: every id list is strictly ascending and duplicate-free;
// empty buckets are pruned; every id in Mentions is also indexed in
// exactly one of Streams, Huddles or PMs.
type UnreadState struct {
	// Streams indexes unread stream messages by stream, then topic.
	Streams map[models.StreamID]map[string][]models.MessageID `json:"streams"`
	// Huddles indexes unread group-PM messages by recipient-set key.
	Huddles map[models.PMKey][]models.MessageID `json:"huddles"`
	// PMs indexes unread 1:1 messages by the other participant.
	PMs map[models.UserID][]models.MessageID `json:"pms"`
	// Mentions lists unread @-mention ids. Kept deduplicated but not
	// sorted; arrival order is preserved.
	Mentions []models.MessageID `json:"mentions"`
}

// NewUnreadState returns the empty unread model.
func NewUnreadState() UnreadState {
	return UnreadState{}
}

// ReduceUnread applies one action to the unread model.
func ReduceUnread(s UnreadState, a action.Action) UnreadState {
	switch a := a.(type) {
	case action.RegisterComplete:
		return unreadFromSnapshot(a.Data.UnreadMsgs)
	case action.EventNewMessage:
		return unreadNewMessage(s, a)
	case action.EventUpdateMessage:
		return unreadMove(s, a)
	case action.EventUpdateMessageFlags:
		return unreadFlags(s, a)
	case action.EventMessageDelete:
		return unreadRemoveAll(s, a.MessageIDs)
	case action.ResetAccountData, action.Logout, action.LoginSuccess, action.AccountSwitch:
		return NewUnreadState()
	default:
		return s
	}
}

// unreadFromSnapshot rebuilds all four indices from the register response.
// Huddle and PM arrays are documented as unsorted on some server versions;
// every list is normalized rather than trusted.
func unreadFromSnapshot(snap action.UnreadSnapshot) UnreadState {
	out := NewUnreadState()
	for _, entry := range snap.Streams {
		ids := sortedUnique(entry.UnreadMessageIDs)
		if len(ids) == 0 {
			continue
		}
		if out.Streams == nil {
			out.Streams = make(map[models.StreamID]map[string][]models.MessageID)
		}
		topics := out.Streams[entry.StreamID]
		if topics == nil {
			topics = make(map[string][]models.MessageID)
			out.Streams[entry.StreamID] = topics
		}
		topics[entry.Topic] = SetUnion(topics[entry.Topic], ids)
	}
	for _, entry := range snap.Huddles {
		ids := sortedUnique(entry.UnreadMessageIDs)
		if len(ids) == 0 {
			continue
		}
		key := models.ParsePMKey(entry.UserIDsString)
		if out.Huddles == nil {
			out.Huddles = make(map[models.PMKey][]models.MessageID)
		}
		out.Huddles[key] = SetUnion(out.Huddles[key], ids)
	}
	for _, entry := range snap.PMs {
		ids := sortedUnique(entry.UnreadMessageIDs)
		if len(ids) == 0 {
			continue
		}
		if out.PMs == nil {
			out.PMs = make(map[models.UserID][]models.MessageID)
		}
		out.PMs[entry.SenderID] = SetUnion(out.PMs[entry.SenderID], ids)
	}
	seen := make(map[models.MessageID]bool, len(snap.Mentions))
	for _, id := range snap.Mentions {
		if seen[id] {
			continue
		}
		seen[id] = true
		out.Mentions = append(out.Mentions, id)
	}
	return out
}

func unreadNewMessage(s UnreadState, a action.EventNewMessage) UnreadState {
	m := a.Message
	if m.Flags == nil {
		// Upstream contract: every EVENT_NEW_MESSAGE carries flags. A
		// missing list means the event pipeline is broken; routing
		// around it would corrupt the unread counts silently.
		panic(fmt.Sprintf("EventNewMessage: message %d has no flags", m.ID))
	}
	if m.HasFlag(models.FlagRead) {
		return s
	}

	out := s
	switch m.Type {
	case models.MessageTypeStream:
		if m.SenderID == a.OwnUserID {
			return s
		}
		out.Streams = streamsAdd(s.Streams, m.StreamID, m.Topic, m.ID)
	case models.MessageTypePrivate:
		if m.SenderID == a.OwnUserID {
			return s
		}
		if m.IsGroupPM() {
			out.Huddles = huddlesAdd(s.Huddles, m.PMKey(), m.ID)
		} else {
			out.PMs = pmsAdd(s.PMs, m.OtherUserID(a.OwnUserID), m.ID)
		}
	default:
		return s
	}
	if m.IsMention() && !mentionsContain(out.Mentions, m.ID) {
		mentions := make([]models.MessageID, len(s.Mentions), len(s.Mentions)+1)
		copy(mentions, s.Mentions)
		out.Mentions = append(mentions, m.ID)
	}
	return out
}

// unreadMove relocates moved message ids between stream-topic buckets.
// Only ids that were unread move; moved ids may interleave with ids
// already in the destination bucket, hence the sorted merge.
func unreadMove(s UnreadState, a action.EventUpdateMessage) UnreadState {
	if !a.IsMove() || len(s.Streams) == 0 {
		return s
	}
	topics := s.Streams[a.StreamID]
	bucket := topics[a.OrigTopic]
	if len(bucket) == 0 {
		return s
	}

	moved := make([]models.MessageID, 0, len(a.IDs))
	for _, id := range a.IDs {
		if setContains(bucket, id) {
			moved = append(moved, id)
		}
	}
	if len(moved) == 0 {
		return s
	}

	out := s
	out.Streams = streamsRemove(s.Streams, a.StreamID, a.OrigTopic, moved)
	out.Streams = streamsMerge(out.Streams, a.ResolvedNewStream(), a.ResolvedNewTopic(), moved)
	return out
}

func unreadFlags(s UnreadState, a action.EventUpdateMessageFlags) UnreadState {
	if a.Flag != models.FlagRead {
		return s
	}
	switch a.Op {
	case "add":
		if a.All {
			// Mark-all-as-read fast path.
			return NewUnreadState()
		}
		return unreadRemoveAll(s, a.Messages)
	case "remove":
		return unreadMarkUnread(s, a)
	default:
		return s
	}
}

// unreadMarkUnread re-inserts ids using the event's per-message detail, so
// a message can become unread again without being locally cached.
func unreadMarkUnread(s UnreadState, a action.EventUpdateMessageFlags) UnreadState {
	out := s
	for _, id := range a.Messages {
		detail, ok := a.MessageDetails[id]
		if !ok {
			continue
		}
		switch detail.Type {
		case models.MessageTypeStream:
			out.Streams = streamsAdd(out.Streams, detail.StreamID, detail.Topic, id)
		case models.MessageTypePrivate:
			if len(detail.UserIDs) > 1 {
				ids := append([]models.UserID{a.OwnUserID}, detail.UserIDs...)
				out.Huddles = huddlesAdd(out.Huddles, models.PMKeyOf(ids...), id)
			} else if len(detail.UserIDs) == 1 {
				out.PMs = pmsAdd(out.PMs, detail.UserIDs[0], id)
			} else {
				// Message to self.
				out.PMs = pmsAdd(out.PMs, a.OwnUserID, id)
			}
		}
		if detail.Mentioned && !mentionsContain(out.Mentions, id) {
			mentions := make([]models.MessageID, len(out.Mentions), len(out.Mentions)+1)
			copy(mentions, out.Mentions)
			out.Mentions = append(mentions, id)
		}
	}
	return out
}

// unreadRemoveAll drops the ids from every index and prunes empty buckets.
func unreadRemoveAll(s UnreadState, ids []models.MessageID) UnreadState {
	if len(ids) == 0 {
		return s
	}
	out := s

	if len(s.Streams) > 0 {
		var streams map[models.StreamID]map[string][]models.MessageID
		for streamID, topics := range s.Streams {
			for topic, bucket := range topics {
				pruned := setRemove(bucket, ids)
				if len(pruned) == len(bucket) {
					continue
				}
				if streams == nil {
					streams = copyStreams(s.Streams)
				}
				if len(pruned) == 0 {
					delete(streams[streamID], topic)
					if len(streams[streamID]) == 0 {
						delete(streams, streamID)
					}
				} else {
					streams[streamID][topic] = pruned
				}
			}
		}
		if streams != nil {
			out.Streams = streams
		}
	}

	if len(s.Huddles) > 0 {
		var huddles map[models.PMKey][]models.MessageID
		for key, bucket := range s.Huddles {
			pruned := setRemove(bucket, ids)
			if len(pruned) == len(bucket) {
				continue
			}
			if huddles == nil {
				huddles = make(map[models.PMKey][]models.MessageID, len(s.Huddles))
				for k, v := range s.Huddles {
					huddles[k] = v
				}
			}
			if len(pruned) == 0 {
				delete(huddles, key)
			} else {
				huddles[key] = pruned
			}
		}
		if huddles != nil {
			out.Huddles = huddles
		}
	}

	if len(s.PMs) > 0 {
		var pms map[models.UserID][]models.MessageID
		for userID, bucket := range s.PMs {
			pruned := setRemove(bucket, ids)
			if len(pruned) == len(bucket) {
				continue
			}
			if pms == nil {
				pms = make(map[models.UserID][]models.MessageID, len(s.PMs))
				for k, v := range s.PMs {
					pms[k] = v
				}
			}
			if len(pruned) == 0 {
				delete(pms, userID)
			} else {
				pms[userID] = pruned
			}
		}
		if pms != nil {
			out.PMs = pms
		}
	}

	if len(s.Mentions) > 0 {
		drop := make(map[models.MessageID]bool, len(ids))
		for _, id := range ids {
			drop[id] = true
		}
		var mentions []models.MessageID
		changed := false
		for _, id := range s.Mentions {
			if drop[id] {
				changed = true
				continue
			}
			mentions = append(mentions, id)
		}
		if changed {
			out.Mentions = mentions
		}
	}

	return out
}

// TotalCount sums the unread ids across the stream, huddle and PM indices.
func (s UnreadState) TotalCount() int {
	n := 0
	for _, topics := range s.Streams {
		for _, bucket := range topics {
			n += len(bucket)
		}
	}
	for _, bucket := range s.Huddles {
		n += len(bucket)
	}
	for _, bucket := range s.PMs {
		n += len(bucket)
	}
	return n
}

func streamsAdd(streams map[models.StreamID]map[string][]models.MessageID, streamID models.StreamID, topic string, id models.MessageID) map[models.StreamID]map[string][]models.MessageID {
	if setContains(streams[streamID][topic], id) {
		return streams
	}
	out := copyStreams(streams)
	topics := out[streamID]
	if topics == nil {
		topics = make(map[string][]models.MessageID)
		out[streamID] = topics
	}
	topics[topic] = setAdd(topics[topic], id)
	return out
}

func streamsMerge(streams map[models.StreamID]map[string][]models.MessageID, streamID models.StreamID, topic string, ids []models.MessageID) map[models.StreamID]map[string][]models.MessageID {
	out := copyStreams(streams)
	topics := out[streamID]
	if topics == nil {
		topics = make(map[string][]models.MessageID)
		out[streamID] = topics
	}
	topics[topic] = SetUnion(topics[topic], ids)
	return out
}

func streamsRemove(streams map[models.StreamID]map[string][]models.MessageID, streamID models.StreamID, topic string, ids []models.MessageID) map[models.StreamID]map[string][]models.MessageID {
	bucket := streams[streamID][topic]
	pruned := setRemove(bucket, ids)
	if len(pruned) == len(bucket) {
		return streams
	}
	out := copyStreams(streams)
	if len(pruned) == 0 {
		delete(out[streamID], topic)
		if len(out[streamID]) == 0 {
			delete(out, streamID)
		}
	} else {
		out[streamID][topic] = pruned
	}
	return out
}

func huddlesAdd(huddles map[models.PMKey][]models.MessageID, key models.PMKey, id models.MessageID) map[models.PMKey][]models.MessageID {
	if setContains(huddles[key], id) {
		return huddles
	}
	out := make(map[models.PMKey][]models.MessageID, len(huddles)+1)
	for k, v := range huddles {
		out[k] = v
	}
	out[key] = setAdd(out[key], id)
	return out
}

func pmsAdd(pms map[models.UserID][]models.MessageID, userID models.UserID, id models.MessageID) map[models.UserID][]models.MessageID {
	if setContains(pms[userID], id) {
		return pms
	}
	out := make(map[models.UserID][]models.MessageID, len(pms)+1)
	for k, v := range pms {
		out[k] = v
	}
	out[userID] = setAdd(out[userID], id)
	return out
}

func mentionsContain(mentions []models.MessageID, id models.MessageID) bool {
	for _, m := range mentions {
		if m == id {
			return true
		}
	}
	return false
}

// copyStreams shallow-copies the two map levels; id slices are shared.
func copyStreams(streams map[models.StreamID]map[string][]models.MessageID) map[models.StreamID]map[string][]models.MessageID {
	out := make(map[models.StreamID]map[string][]models.MessageID, len(streams)+1)
	for streamID, topics := range streams {
		t := make(map[string][]models.MessageID, len(topics))
		for topic, bucket := range topics {
			t[topic] = bucket
		}
		out[streamID] = t
	}
	return out
}
