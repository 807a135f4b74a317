package store

import (
	"testing"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/narrow"
)

func TestDraftsSaveAndOverwrite(t *testing.T) {
	n := narrow.TopicNarrow(7, "x")
	s := ReduceDrafts(NewDraftsState(), action.DraftUpdate{Narrow: n, Content: "hello"})
	if s[n.Key()] != "hello" {
		t.Fatalf("expected draft saved, got %v", s)
	}

	s = ReduceDrafts(s, action.DraftUpdate{Narrow: n, Content: "hello world"})
	if s[n.Key()] != "hello world" {
		t.Fatalf("expected draft overwritten, got %v", s)
	}
}

func TestDraftsEmptyContentDeletes(t *testing.T) {
	n := narrow.PMNarrow(5)
	s := ReduceDrafts(NewDraftsState(), action.DraftUpdate{Narrow: n, Content: "hi"})
	s = ReduceDrafts(s, action.DraftUpdate{Narrow: n, Content: ""})
	if len(s) != 0 {
		t.Fatalf("expected draft deleted, got %v", s)
	}

	// Deleting an absent draft is a no-op.
	next := ReduceDrafts(s, action.DraftUpdate{Narrow: n, Content: ""})
	if len(next) != 0 {
		t.Fatalf("expected no-op, got %v", next)
	}
}

func TestDraftsPerNarrowIsolation(t *testing.T) {
	s := NewDraftsState()
	s = ReduceDrafts(s, action.DraftUpdate{Narrow: narrow.TopicNarrow(7, "x"), Content: "a"})
	s = ReduceDrafts(s, action.DraftUpdate{Narrow: narrow.TopicNarrow(7, "y"), Content: "b"})
	if len(s) != 2 {
		t.Fatalf("expected 2 drafts, got %v", s)
	}
}

func TestDraftsSurviveLogout(t *testing.T) {
	n := narrow.TopicNarrow(7, "x")
	s := ReduceDrafts(NewDraftsState(), action.DraftUpdate{Narrow: n, Content: "keep me"})

	s = ReduceDrafts(s, action.Logout{})
	if s[n.Key()] != "keep me" {
		t.Fatal("drafts are local user input and must survive logout")
	}

	s = ReduceDrafts(s, action.ResetAccountData{})
	if len(s) != 0 {
		t.Fatalf("expected drafts cleared on account reset, got %v", s)
	}
}

func TestAlertWordsReplacedWholesale(t *testing.T) {
	s := ReduceAlertWords(nil, action.EventAlertWords{AlertWords: []string{"deploy", "oncall"}})
	if len(s) != 2 {
		t.Fatalf("expected 2 words, got %v", s)
	}
	s = ReduceAlertWords(s, action.EventAlertWords{AlertWords: []string{"deploy"}})
	if len(s) != 1 || s[0] != "deploy" {
		t.Fatalf("expected wholesale replace, got %v", s)
	}
	s = ReduceAlertWords(s, action.Logout{})
	if len(s) != 0 {
		t.Fatalf("expected reset, got %v", s)
	}
}
