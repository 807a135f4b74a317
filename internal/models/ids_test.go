package models

import (
	"reflect"
	"testing"
)

func TestPMKeyOfSortsAndDedupes(t *testing.T) {
	key := PMKeyOf(9, 3, 7, 3)
	if key != "3,7,9" {
		t.Fatalf("expected key 3,7,9, got %q", key)
	}
	if key != PMKeyOf(3, 7, 9) {
		t.Fatal("expected order-independent key")
	}
}

func TestPMKeyExcluding(t *testing.T) {
	key := PMKeyExcluding(5, 5, 2, 8)
	if key != "2,8" {
		t.Fatalf("expected key 2,8, got %q", key)
	}

	// A conversation with only self collapses to the empty key.
	if got := PMKeyExcluding(5, 5); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestPMKeyUserIDsRoundTrip(t *testing.T) {
	key := PMKeyOf(10, 4, 22)
	got := key.UserIDs()
	want := []UserID{4, 10, 22}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if ids := PMKey("").UserIDs(); ids != nil {
		t.Fatalf("expected nil for empty key, got %v", ids)
	}
}

func TestParsePMKeyNormalizesUnsortedInput(t *testing.T) {
	// Some server versions send user_ids_string unsorted.
	if got := ParsePMKey("9, 3,7"); got != "3,7,9" {
		t.Fatalf("expected 3,7,9, got %q", got)
	}
	if got := ParsePMKey(""); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestMessagePMKeyAndGroupPM(t *testing.T) {
	pm := &Message{
		Type: MessageTypePrivate,
		Recipients: []PMRecipient{
			{ID: 2}, {ID: 1},
		},
	}
	if pm.IsGroupPM() {
		t.Fatal("two participants is a 1:1, not a group PM")
	}
	if pm.PMKey() != "1,2" {
		t.Fatalf("expected key 1,2, got %q", pm.PMKey())
	}

	group := &Message{
		Type:       MessageTypePrivate,
		Recipients: []PMRecipient{{ID: 3}, {ID: 1}, {ID: 2}},
	}
	if !group.IsGroupPM() {
		t.Fatal("three participants should be a group PM")
	}

	stream := &Message{Type: MessageTypeStream, StreamID: 7}
	if stream.PMKey() != "" {
		t.Fatalf("expected empty key for stream message, got %q", stream.PMKey())
	}
}

func TestMessageOtherUserID(t *testing.T) {
	m := &Message{
		Type:       MessageTypePrivate,
		Recipients: []PMRecipient{{ID: 1}, {ID: 2}},
	}
	if got := m.OtherUserID(1); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}

	self := &Message{
		Type:       MessageTypePrivate,
		Recipients: []PMRecipient{{ID: 1}},
	}
	if got := self.OtherUserID(1); got != 1 {
		t.Fatalf("expected self id for message to self, got %d", got)
	}
}

func TestMessageStripped(t *testing.T) {
	m := &Message{
		ID:           5,
		Flags:        []string{FlagRead, FlagStarred},
		MatchContent: "<b>hit</b>",
		MatchTopic:   "topic",
	}
	s := m.Stripped()
	if s.Flags != nil || s.MatchContent != "" || s.MatchTopic != "" {
		t.Fatalf("expected per-user fields stripped, got %+v", s)
	}
	if m.Flags == nil {
		t.Fatal("Stripped must not mutate the original")
	}
	if s == m {
		t.Fatal("Stripped must return a copy")
	}
}
