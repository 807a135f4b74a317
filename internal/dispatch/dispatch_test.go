package dispatch

import (
	"sync"
	"testing"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
	"github.com/zmirror/zmirror/internal/narrow"
	"github.com/zmirror/zmirror/internal/store"
)

func TestDispatchAppliesActionAndReturnsState(t *testing.T) {
	d := New()

	next := d.Dispatch(action.DraftUpdate{Narrow: narrow.PMNarrow(5), Content: "hi"})
	if next.Drafts[narrow.PMNarrow(5).Key()] != "hi" {
		t.Fatalf("expected draft applied, got %v", next.Drafts)
	}
	if d.State().Drafts[narrow.PMNarrow(5).Key()] != "hi" {
		t.Fatal("expected State() to reflect the dispatched action")
	}
}

func TestSubscribeReceivesMatchingActions(t *testing.T) {
	d := New()

	var mu sync.Mutex
	var seen []action.Type
	id, err := d.Subscribe("", Filter{Types: []action.Type{action.TypeDraftUpdate}},
		func(a action.Action, s store.State) {
			mu.Lock()
			seen = append(seen, a.ActionType())
			mu.Unlock()
		})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated subscription id")
	}

	d.Dispatch(action.DraftUpdate{Narrow: narrow.PMNarrow(5), Content: "hi"})
	d.Dispatch(action.EventAlertWords{AlertWords: []string{"x"}})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != action.TypeDraftUpdate {
		t.Fatalf("expected only the draft action, got %v", seen)
	}
}

func TestSubscribeNilListenerAndDuplicateID(t *testing.T) {
	d := New()

	if _, err := d.Subscribe("x", Filter{}, nil); err != ErrNilListener {
		t.Fatalf("expected ErrNilListener, got %v", err)
	}

	noop := func(action.Action, store.State) {}
	if _, err := d.Subscribe("x", Filter{}, noop); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := d.Subscribe("x", Filter{}, noop); err != ErrSubscriptionExists {
		t.Fatalf("expected ErrSubscriptionExists, got %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := New()
	noop := func(action.Action, store.State) {}

	id, err := d.Subscribe("", Filter{}, noop)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if d.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", d.SubscriberCount())
	}

	if err := d.Unsubscribe(id); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if d.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", d.SubscriberCount())
	}
	if err := d.Unsubscribe(id); err != ErrSubscriptionNotFound {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestCloseDropsAllSubscriptions(t *testing.T) {
	d := New()
	noop := func(action.Action, store.State) {}
	for i := 0; i < 3; i++ {
		if _, err := d.Subscribe("", Filter{}, noop); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	d.Close()
	if d.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", d.SubscriberCount())
	}
}

// NewMessage must snapshot CaughtUp atomically with the state it reduces
// against, so the anchor check sees the edges as of this very action.
func TestNewMessageFillsCaughtUpSnapshot(t *testing.T) {
	d := New()
	d.Dispatch(action.MessageFetchComplete{
		Narrow:      narrow.HomeNarrow(),
		FoundNewest: true,
	})

	next := d.NewMessage(action.EventNewMessage{
		Message: &models.Message{
			ID: 1, Type: models.MessageTypeStream, StreamID: 7, Topic: "x",
			SenderID: 9, Flags: []string{},
		},
		OwnUserID: 100,
	})
	if next.Messages[1] == nil {
		t.Fatal("expected message cached; the snapshot should mark home caught up")
	}
}

func TestNewMessageKeepsExplicitSnapshot(t *testing.T) {
	d := New()
	d.Dispatch(action.MessageFetchComplete{
		Narrow:      narrow.HomeNarrow(),
		FoundNewest: true,
	})

	// An explicitly empty (but non-nil) snapshot says no narrow is caught
	// up, so the message must not be cached.
	next := d.NewMessage(action.EventNewMessage{
		Message: &models.Message{
			ID: 1, Type: models.MessageTypeStream, StreamID: 7, Topic: "x",
			SenderID: 9, Flags: []string{},
		},
		CaughtUp:  map[string]models.EdgeState{},
		OwnUserID: 100,
	})
	if next.Messages[1] != nil {
		t.Fatal("expected message dropped with an empty caught-up snapshot")
	}
}

// NewMessage goes through the same notification path as Dispatch, so
// filtered listeners see event-built actions too.
func TestNewMessageNotifiesListeners(t *testing.T) {
	d := New()

	var mu sync.Mutex
	var got []action.Type
	if _, err := d.Subscribe("", Filter{Types: []action.Type{action.TypeEventNewMessage}},
		func(a action.Action, s store.State) {
			mu.Lock()
			got = append(got, a.ActionType())
			mu.Unlock()
		}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	d.NewMessage(action.EventNewMessage{
		Message:   &models.Message{ID: 1, Type: models.MessageTypeStream, Flags: []string{}},
		OwnUserID: 100,
	})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != action.TypeEventNewMessage {
		t.Fatalf("expected the new-message action delivered, got %v", got)
	}
}

func TestWithInitialState(t *testing.T) {
	seed := store.NewState()
	seed = store.Reduce(seed, action.DraftUpdate{Narrow: narrow.PMNarrow(5), Content: "restored"})

	d := New(WithInitialState(seed))
	if d.State().Drafts[narrow.PMNarrow(5).Key()] != "restored" {
		t.Fatal("expected dispatcher seeded from snapshot")
	}
}

type captureRecorder struct {
	mu      sync.Mutex
	actions []action.Action
}

func (r *captureRecorder) Record(a action.Action, _ store.State) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
}

func TestRecorderSeesEveryAction(t *testing.T) {
	rec := &captureRecorder{}
	d := New(WithRecorder(rec))

	d.Dispatch(action.DraftUpdate{Narrow: narrow.PMNarrow(5), Content: "a"})
	d.NewMessage(action.EventNewMessage{
		Message:   &models.Message{ID: 1, Type: models.MessageTypeStream, Flags: []string{}},
		OwnUserID: 100,
	})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.actions) != 2 {
		t.Fatalf("expected 2 recorded actions, got %d", len(rec.actions))
	}
	if rec.actions[0].ActionType() != action.TypeDraftUpdate ||
		rec.actions[1].ActionType() != action.TypeEventNewMessage {
		t.Fatalf("unexpected recorded actions: %v, %v",
			rec.actions[0].ActionType(), rec.actions[1].ActionType())
	}
}

func TestConcurrentDispatchesAllApply(t *testing.T) {
	d := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Dispatch(action.EventTypingStart{
				SenderID:     models.UserID(i + 1),
				RecipientIDs: []models.UserID{models.UserID(i + 1), 100},
				OwnUserID:    100,
				Time:         int64(i),
			})
		}(i)
	}
	wg.Wait()

	if got := len(d.State().Typing); got != 20 {
		t.Fatalf("expected 20 typing keys, got %d", got)
	}
}
