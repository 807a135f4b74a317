package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// PresenceState maps user id to that user's per-client presence reports.
// Aggregation to a single displayed status is a read-side concern; see
// models.AggregatePresence.
type PresenceState struct {
	Users map[models.UserID]models.UserPresence `json:"users"`
	// OfflineThresholdSeconds is the server-configured freshness window
	// for aggregation; reports older than this count as offline.
	OfflineThresholdSeconds int64 `json:"offline_threshold_seconds"`
}

// DefaultPresenceOfflineThresholdSeconds applies when the server omits its
// own value.
const DefaultPresenceOfflineThresholdSeconds = 140

// NewPresenceState returns the empty presence store.
func NewPresenceState() PresenceState {
	return PresenceState{OfflineThresholdSeconds: DefaultPresenceOfflineThresholdSeconds}
}

// ReducePresence applies one action to the presence store.
func ReducePresence(s PresenceState, a action.Action) PresenceState {
	switch a := a.(type) {
	case action.RegisterComplete:
		return presenceFromRegister(a.Data)
	case action.EventPresence:
		return presenceEvent(s, a)
	case action.ResetAccountData, action.Logout, action.LoginSuccess, action.AccountSwitch:
		return NewPresenceState()
	default:
		return s
	}
}

// Aggregate returns the user's single derived presence as of nowSeconds.
func (s PresenceState) Aggregate(userID models.UserID, nowSeconds int64) models.AggregatedPresence {
	threshold := s.OfflineThresholdSeconds
	if threshold <= 0 {
		threshold = DefaultPresenceOfflineThresholdSeconds
	}
	return models.AggregatePresence(s.Users[userID], nowSeconds, threshold)
}

// presenceFromRegister rebuilds the store from the snapshot. A missing
// presences section (old servers) degrades to an empty map rather than
// failing; presence is display-only data.
func presenceFromRegister(data action.RegisterData) PresenceState {
	out := NewPresenceState()
	if data.PresenceOfflineThreshold > 0 {
		out.OfflineThresholdSeconds = data.PresenceOfflineThreshold
	}
	if len(data.Presences) == 0 {
		return out
	}
	out.Users = make(map[models.UserID]models.UserPresence, len(data.Presences))
	for email, up := range data.Presences {
		userID, ok := data.PresenceUserIDs[email]
		if !ok {
			continue
		}
		clients := make(models.UserPresence, len(up))
		for client, cp := range up {
			clients[client] = cp
		}
		out.Users[userID] = clients
	}
	return out
}

func presenceEvent(s PresenceState, a action.EventPresence) PresenceState {
	if a.Client == "" {
		return s
	}
	out := s
	users := make(map[models.UserID]models.UserPresence, len(s.Users)+1)
	for id, up := range s.Users {
		users[id] = up
	}
	clients := make(models.UserPresence, len(users[a.UserID])+1)
	for client, cp := range s.Users[a.UserID] {
		clients[client] = cp
	}
	clients[a.Client] = a.Presence
	users[a.UserID] = clients
	out.Users = users
	return out
}
