package store

import (
	"testing"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

func TestPMConversationsFromRegisterSortsNewestFirst(t *testing.T) {
	s := ReducePMConversations(nil, action.RegisterComplete{Data: action.RegisterData{
		RecentPrivateConversations: []action.RecentPrivateConversation{
			{MaxMessageID: 10, UserIDs: []models.UserID{5}},
			{MaxMessageID: 30, UserIDs: []models.UserID{6, 7}},
			{MaxMessageID: 20, UserIDs: []models.UserID{8}},
		},
	}})

	if len(s) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(s))
	}
	if s[0].MaxMessageID != 30 || s[1].MaxMessageID != 20 || s[2].MaxMessageID != 10 {
		t.Fatalf("expected newest-first ordering, got %+v", s)
	}
}

func TestPMConversationsRegisterDedupesByKey(t *testing.T) {
	s := ReducePMConversations(nil, action.RegisterComplete{Data: action.RegisterData{
		RecentPrivateConversations: []action.RecentPrivateConversation{
			{MaxMessageID: 10, UserIDs: []models.UserID{5, 6}},
			{MaxMessageID: 20, UserIDs: []models.UserID{6, 5}}, // same conversation
		},
	}})
	if len(s) != 1 || s[0].MaxMessageID != 20 {
		t.Fatalf("expected single entry with max id 20, got %+v", s)
	}
}

func TestPMConversationsNewMessageBubblesToFront(t *testing.T) {
	s := PMConversationsState{
		{Key: models.PMKeyOf(5), MaxMessageID: 20},
		{Key: models.PMKeyOf(6), MaxMessageID: 10},
	}
	s = ReducePMConversations(s, pmMessage(25, 6, 6, ownUser))

	if len(s) != 3 {
		t.Fatalf("expected 3 conversations, got %+v", s)
	}
	if s[0].Key != models.PMKeyOf(6, ownUser) || s[0].MaxMessageID != 25 {
		t.Fatalf("expected new conversation at front, got %+v", s)
	}
}

func TestPMConversationsExistingKeyPromoted(t *testing.T) {
	key := models.PMKeyOf(6, ownUser)
	s := PMConversationsState{
		{Key: models.PMKeyOf(5, ownUser), MaxMessageID: 20},
		{Key: key, MaxMessageID: 10},
	}
	s = ReducePMConversations(s, pmMessage(25, 6, 6, ownUser))

	if len(s) != 2 {
		t.Fatalf("expected 2 conversations, got %+v", s)
	}
	if s[0].Key != key || s[0].MaxMessageID != 25 {
		t.Fatalf("expected %s promoted with id 25, got %+v", key, s)
	}
}

func TestPMConversationsStaleEventIgnored(t *testing.T) {
	key := models.PMKeyOf(6, ownUser)
	s := PMConversationsState{{Key: key, MaxMessageID: 30}}
	next := ReducePMConversations(s, pmMessage(25, 6, 6, ownUser))
	if next[0].MaxMessageID != 30 {
		t.Fatalf("out-of-order event demoted the conversation: %+v", next)
	}
}

func TestPMConversationsIgnoresStreamMessages(t *testing.T) {
	next := ReducePMConversations(nil, streamMessage(1, 7, "x", 5))
	if len(next) != 0 {
		t.Fatalf("expected no entry for stream message, got %+v", next)
	}
}
