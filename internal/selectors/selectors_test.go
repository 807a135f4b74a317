package selectors

import (
	"testing"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
	"github.com/zmirror/zmirror/internal/narrow"
	"github.com/zmirror/zmirror/internal/store"
)

const ownUser = models.UserID(100)

func fetchedState(t *testing.T, msgs ...*models.Message) store.State {
	t.Helper()
	s := store.NewState()
	return store.Reduce(s, action.MessageFetchComplete{
		Narrow:      narrow.HomeNarrow(),
		FoundNewest: true,
		Messages:    msgs,
		OwnUserID:   ownUser,
	})
}

func TestUnreadTotals(t *testing.T) {
	s := store.NewState()
	s = store.Reduce(s, action.RegisterComplete{Data: action.RegisterData{
		UnreadMsgs: action.UnreadSnapshot{
			Streams: []action.UnreadStreamSnapshot{
				{StreamID: 7, Topic: "x", UnreadMessageIDs: []models.MessageID{1, 2}},
			},
			Huddles: []action.UnreadHuddleSnapshot{
				{UserIDsString: "5,6,100", UnreadMessageIDs: []models.MessageID{3}},
			},
			PMs: []action.UnreadPMSnapshot{
				{SenderID: 5, UnreadMessageIDs: []models.MessageID{4}},
			},
			Mentions: []models.MessageID{1},
		},
	}})

	totals := NewMemo().UnreadTotals(s)
	if totals.Streams != 2 || totals.Huddles != 1 || totals.PMs != 1 || totals.Mentions != 1 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if totals.Total() != 4 {
		t.Fatalf("expected total 4, got %d", totals.Total())
	}
}

func TestUnreadCountForStreamSkipsMuted(t *testing.T) {
	s := store.NewState()
	s = store.Reduce(s, action.RegisterComplete{Data: action.RegisterData{
		UnreadMsgs: action.UnreadSnapshot{
			Streams: []action.UnreadStreamSnapshot{
				{StreamID: 7, Topic: "x", UnreadMessageIDs: []models.MessageID{1, 2}},
				{StreamID: 7, Topic: "muted", UnreadMessageIDs: []models.MessageID{3}},
			},
		},
		MutedTopics: []action.MutedTopic{{StreamID: 7, Topic: "muted"}},
	}})

	if got := UnreadCountForStream(s, 7); got != 2 {
		t.Fatalf("expected 2 (muted topic skipped), got %d", got)
	}
	// The per-topic count does not apply mute filtering.
	if got := UnreadCountForTopic(s, 7, "muted"); got != 1 {
		t.Fatalf("expected raw topic count 1, got %d", got)
	}
}

func TestUnreadCountForPMKey(t *testing.T) {
	s := store.NewState()
	s = store.Reduce(s, action.RegisterComplete{Data: action.RegisterData{
		UnreadMsgs: action.UnreadSnapshot{
			Huddles: []action.UnreadHuddleSnapshot{
				{UserIDsString: "5,6,100", UnreadMessageIDs: []models.MessageID{3, 4}},
			},
			PMs: []action.UnreadPMSnapshot{
				{SenderID: 5, UnreadMessageIDs: []models.MessageID{9}},
			},
		},
	}})

	if got := UnreadCountForPMKey(s, models.PMKeyOf(5, ownUser), ownUser); got != 1 {
		t.Fatalf("expected 1 for 1:1 key, got %d", got)
	}
	if got := UnreadCountForPMKey(s, models.PMKeyOf(5, 6, ownUser), ownUser); got != 2 {
		t.Fatalf("expected 2 for huddle key, got %d", got)
	}
}

func TestIsFetchNeeded(t *testing.T) {
	home := narrow.HomeNarrow()
	s := store.NewState()
	if !IsFetchNeeded(s, home) {
		t.Fatal("fresh narrow needs a fetch")
	}

	s = store.Reduce(s, action.MessageFetchStart{Narrow: home, NumBefore: 10})
	if IsFetchNeeded(s, home) {
		t.Fatal("fetch already in flight")
	}

	s = store.Reduce(s, action.MessageFetchComplete{Narrow: home, NumBefore: 10, FoundOldest: true})
	if IsFetchNeeded(s, home) {
		t.Fatal("already caught up at the older edge")
	}

	if !IsFetchNeeded(s, narrow.SearchNarrow("q")) {
		t.Fatal("search narrows always fetch")
	}
}

func TestMessagesForNarrowOrdersAndFilters(t *testing.T) {
	s := fetchedState(t,
		&models.Message{ID: 3, Type: models.MessageTypeStream, StreamID: 7, Topic: "x", Flags: []string{}},
		&models.Message{ID: 1, Type: models.MessageTypeStream, StreamID: 7, Topic: "x", Flags: []string{}},
		&models.Message{ID: 2, Type: models.MessageTypeStream, StreamID: 8, Topic: "y", Flags: []string{}},
	)
	s = store.Reduce(s, action.MessageSendStart{Outbox: models.Outbox{
		LocalMessageID: 99999,
		Type:           models.MessageTypeStream,
		StreamID:       7,
		Topic:          "x",
		SenderID:       ownUser,
	}})

	items := NewMemo().MessagesForNarrow(s, narrow.TopicNarrow(7, "x"))
	if len(items) != 3 {
		t.Fatalf("expected 2 messages + 1 outbox item, got %d", len(items))
	}
	if items[0].ID() != 1 || items[1].ID() != 3 {
		t.Fatalf("expected ascending message order, got %d then %d", items[0].ID(), items[1].ID())
	}
	last := items[2]
	if last.Kind() != models.ChatItemOutbox || last.Outbox().LocalMessageID != 99999 {
		t.Fatalf("expected outbox item last, got %+v", last)
	}
}

func TestMessagesForNarrowStarredUsesFlagsStore(t *testing.T) {
	s := fetchedState(t,
		&models.Message{ID: 1, Type: models.MessageTypeStream, StreamID: 7, Topic: "x",
			Flags: []string{models.FlagStarred}},
		&models.Message{ID: 2, Type: models.MessageTypeStream, StreamID: 7, Topic: "x",
			Flags: []string{}},
	)

	items := NewMemo().MessagesForNarrow(s, narrow.StarredNarrow())
	if len(items) != 1 || items[0].ID() != 1 {
		t.Fatalf("expected only starred message, got %+v", items)
	}
}

func TestMemoReturnsCachedSliceOnUnchangedState(t *testing.T) {
	s := fetchedState(t,
		&models.Message{ID: 1, Type: models.MessageTypeStream, StreamID: 7, Topic: "x", Flags: []string{}},
	)
	memo := NewMemo()
	n := narrow.TopicNarrow(7, "x")

	first := memo.MessagesForNarrow(s, n)

	// An action that touches neither messages, outbox nor flags keeps the
	// fingerprint, so the cached slice comes back identical.
	s2 := store.Reduce(s, action.EventTypingStart{
		SenderID: 5, RecipientIDs: []models.UserID{5, ownUser}, OwnUserID: ownUser, Time: 1,
	})
	second := memo.MessagesForNarrow(s2, n)
	if len(first) != 1 || len(second) != 1 || &first[0] != &second[0] {
		t.Fatal("expected the cached slice back for an unchanged view")
	}

	// A new message invalidates it.
	s3 := store.Reduce(s2, action.EventNewMessage{
		Message: &models.Message{ID: 2, Type: models.MessageTypeStream, StreamID: 7, Topic: "x",
			SenderID: 5, Flags: []string{}},
		CaughtUp:  s2.CaughtUpSnapshot(),
		OwnUserID: ownUser,
	})
	third := memo.MessagesForNarrow(s3, n)
	if len(third) != 2 {
		t.Fatalf("expected recomputed view with 2 items, got %d", len(third))
	}
}

func TestMemoUnreadTotalsCaches(t *testing.T) {
	s := store.NewState()
	s = store.Reduce(s, action.RegisterComplete{Data: action.RegisterData{
		UnreadMsgs: action.UnreadSnapshot{
			Streams: []action.UnreadStreamSnapshot{
				{StreamID: 7, Topic: "x", UnreadMessageIDs: []models.MessageID{1}},
			},
		},
	}})
	memo := NewMemo()

	if memo.UnreadTotals(s).Total() != 1 {
		t.Fatal("expected total 1")
	}

	s2 := store.Reduce(s, action.EventNewMessage{
		Message: &models.Message{ID: 5, Type: models.MessageTypeStream, StreamID: 7, Topic: "x",
			SenderID: 5, Flags: []string{}},
		OwnUserID: ownUser,
	})
	if memo.UnreadTotals(s2).Total() != 2 {
		t.Fatal("expected total 2 after new unread")
	}
}

func TestTypingUserIDs(t *testing.T) {
	s := store.NewState()
	s = store.Reduce(s, action.EventTypingStart{
		SenderID: 5, RecipientIDs: []models.UserID{5, ownUser}, OwnUserID: ownUser, Time: 1,
	})

	got := TypingUserIDs(s, narrow.PMNarrow(5, ownUser), ownUser)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected [5], got %v", got)
	}
	if TypingUserIDs(s, narrow.TopicNarrow(7, "x"), ownUser) != nil {
		t.Fatal("expected nil for non-PM narrow")
	}
}

func TestDraftForNarrow(t *testing.T) {
	n := narrow.TopicNarrow(7, "x")
	s := store.Reduce(store.NewState(), action.DraftUpdate{Narrow: n, Content: "wip"})
	if got := DraftForNarrow(s, n); got != "wip" {
		t.Fatalf("expected wip, got %q", got)
	}
}
