// Package narrow defines conversation filters and their canonical keys.
//
// A narrow is an ordered list of (operator, operand) filter terms describing
// a conversation view: the home view (no terms), a stream, a topic within a
// stream, a 1:1 or group PM conversation, a search, or a flag-based view.
// The canonical string key produced by Key is persisted to disk and used as
// the map key everywhere conversation-scoped state is stored, so the
// encoding must never change.
package narrow

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/zmirror/zmirror/internal/models"
)

// Term operators. Operand encoding per operator:
//
//	stream   decimal stream id
//	topic    topic name, verbatim
//	pm-with  canonical PMKey (sorted ids joined with commas)
//	search   query string, verbatim
//	is       "mentioned" or "starred"
const (
	OpStream = "stream"
	OpTopic  = "topic"
	OpPMWith = "pm-with"
	OpSearch = "search"
	OpIs     = "is"
)

// Term is one filter component. Field order is significant: the JSON
// encoding of the term list is the persisted key.
type Term struct {
	Operator string `json:"operator"`
	Operand  string `json:"operand"`
}

// Narrow is an ordered filter-term list. The zero value (empty list) is the
// home narrow. Term order is canonical: constructors always emit terms in
// the same order, so semantically equal narrows compare equal by Key.
type Narrow []Term

// HomeNarrow is the global "all messages" view.
func HomeNarrow() Narrow { return Narrow{} }

// StreamNarrow is all messages in one stream.
func StreamNarrow(id models.StreamID) Narrow {
	return Narrow{{Operator: OpStream, Operand: strconv.FormatInt(int64(id), 10)}}
}

// TopicNarrow is all messages in one topic of one stream. The stream term
// always precedes the topic term.
func TopicNarrow(id models.StreamID, topic string) Narrow {
	return Narrow{
		{Operator: OpStream, Operand: strconv.FormatInt(int64(id), 10)},
		{Operator: OpTopic, Operand: topic},
	}
}

// PMNarrow is the conversation among the given participants. The operand is
// the canonical PMKey, so participant order and duplicates do not affect
// the key.
func PMNarrow(ids ...models.UserID) Narrow {
	return Narrow{{Operator: OpPMWith, Operand: string(models.PMKeyOf(ids...))}}
}

// SearchNarrow is a full-text search view. Search narrows are ephemeral:
// fetch-state trackers deliberately skip them.
func SearchNarrow(query string) Narrow {
	return Narrow{{Operator: OpSearch, Operand: query}}
}

// MentionedNarrow is the view of messages mentioning the user.
func MentionedNarrow() Narrow {
	return Narrow{{Operator: OpIs, Operand: "mentioned"}}
}

// StarredNarrow is the view of starred messages.
func StarredNarrow() Narrow {
	return Narrow{{Operator: OpIs, Operand: "starred"}}
}

// Key returns the canonical serialized form of the narrow: the JSON
// encoding of its term list. Pure and deterministic; the home narrow's key
// is "[]". Two narrows are the same conversation view iff their keys are
// equal.
func (n Narrow) Key() string {
	if len(n) == 0 {
		return "[]"
	}
	data, err := json.Marshal([]Term(n))
	if err != nil {
		// Terms are plain strings; Marshal cannot fail for any
		// constructible narrow.
		panic(err)
	}
	return string(data)
}

// FromKey parses a canonical key back into a narrow. The inverse of Key
// for keys Key produced.
func FromKey(key string) (Narrow, error) {
	var terms []Term
	if err := json.Unmarshal([]byte(key), &terms); err != nil {
		return nil, err
	}
	return Narrow(terms), nil
}

// Equal reports whether two narrows denote the same view.
func (n Narrow) Equal(other Narrow) bool {
	return n.Key() == other.Key()
}

// IsHome reports whether the narrow is the home view.
func (n Narrow) IsHome() bool { return len(n) == 0 }

// IsSearch reports whether any term is a search term.
func (n Narrow) IsSearch() bool {
	for _, t := range n {
		if t.Operator == OpSearch {
			return true
		}
	}
	return false
}

// IsTopic reports whether the narrow is a single stream+topic view.
func (n Narrow) IsTopic() bool {
	return len(n) == 2 && n[0].Operator == OpStream && n[1].Operator == OpTopic
}

// IsStream reports whether the narrow is a single whole-stream view.
func (n Narrow) IsStream() bool {
	return len(n) == 1 && n[0].Operator == OpStream
}

// IsPM reports whether the narrow is a PM conversation view.
func (n Narrow) IsPM() bool {
	return len(n) == 1 && n[0].Operator == OpPMWith
}

// StreamID returns the stream id of a stream or topic narrow.
func (n Narrow) StreamID() (models.StreamID, bool) {
	if len(n) == 0 || n[0].Operator != OpStream {
		return 0, false
	}
	id, err := strconv.ParseInt(n[0].Operand, 10, 64)
	if err != nil {
		return 0, false
	}
	return models.StreamID(id), true
}

// Topic returns the topic of a topic narrow.
func (n Narrow) Topic() (string, bool) {
	if !n.IsTopic() {
		return "", false
	}
	return n[1].Operand, true
}

// PMUserIDs returns the participant ids of a PM narrow.
func (n Narrow) PMUserIDs() ([]models.UserID, bool) {
	if !n.IsPM() {
		return nil, false
	}
	return models.PMKey(n[0].Operand).UserIDs(), true
}

// ForMessage returns every narrow the message belongs to: the home narrow
// plus, for a stream message, its stream and topic narrows, or for a
// private message, its conversation narrow. Used to decide whether a new
// message arrived "at the caught-up edge" of any view we track.
func ForMessage(m *models.Message) []Narrow {
	narrows := []Narrow{HomeNarrow()}
	switch m.Type {
	case models.MessageTypeStream:
		narrows = append(narrows,
			StreamNarrow(m.StreamID),
			TopicNarrow(m.StreamID, m.Topic),
		)
	case models.MessageTypePrivate:
		narrows = append(narrows, PMNarrow(m.RecipientIDs()...))
	}
	return narrows
}

// Contains reports whether the message belongs to the narrow's view.
// Flag-based narrows (is:mentioned, is:starred) are judged from the
// wire-delivered flags and so are only meaningful on freshly fetched
// messages.
func (n Narrow) Contains(m *models.Message) bool {
	if n.IsHome() {
		return true
	}
	for _, t := range n {
		switch t.Operator {
		case OpStream:
			if m.Type != models.MessageTypeStream {
				return false
			}
			if t.Operand != strconv.FormatInt(int64(m.StreamID), 10) {
				return false
			}
		case OpTopic:
			if m.Type != models.MessageTypeStream || m.Topic != t.Operand {
				return false
			}
		case OpPMWith:
			if m.Type != models.MessageTypePrivate {
				return false
			}
			if string(m.PMKey()) != t.Operand {
				return false
			}
		case OpIs:
			switch t.Operand {
			case "mentioned":
				if !m.IsMention() {
					return false
				}
			case "starred":
				if !m.HasFlag(models.FlagStarred) {
					return false
				}
			default:
				return false
			}
		case OpSearch:
			// Search matching is a server concern; locally a search
			// narrow never claims new messages.
			return false
		}
	}
	return true
}

// SortKeys returns the given narrow keys sorted, for deterministic
// iteration in diagnostics output.
func SortKeys(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	sort.Strings(out)
	return out
}

// Describe renders a short human-readable label for logs and CLI output.
func (n Narrow) Describe() string {
	if n.IsHome() {
		return "home"
	}
	parts := make([]string, 0, len(n))
	for _, t := range n {
		parts = append(parts, t.Operator+":"+t.Operand)
	}
	return strings.Join(parts, " ")
}
