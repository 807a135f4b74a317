package models

// PresenceStatus is a user's activity level as reported by one client.
type PresenceStatus string

const (
	PresenceActive  PresenceStatus = "active"
	PresenceIdle    PresenceStatus = "idle"
	PresenceOffline PresenceStatus = "offline"
)

// rank orders statuses for aggregation; higher wins.
func (s PresenceStatus) rank() int {
	switch s {
	case PresenceActive:
		return 2
	case PresenceIdle:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s ranks at or above other.
func (s PresenceStatus) AtLeast(other PresenceStatus) bool {
	return s.rank() >= other.rank()
}

// ClientPresence is one client's last-reported presence.
type ClientPresence struct {
	Status    PresenceStatus `json:"status"`
	Timestamp int64          `json:"timestamp"`
	Client    string         `json:"client,omitempty"`
}

// UserPresence maps client name to that client's last report.
type UserPresence map[string]ClientPresence

// AggregatedPresence is the single presence derived from all of a user's
// clients.
type AggregatedPresence struct {
	Status    PresenceStatus `json:"status"`
	Client    string         `json:"client"`
	Timestamp int64          `json:"timestamp"`
}

// AggregatePresence reduces a user's per-client presence map to one value:
// the timestamp is the max across all clients; the status is the
// highest-ranked status among clients whose report is younger than
// offlineThresholdSeconds as of nowSeconds, or offline if none is fresh.
// Ties in rank resolve to an arbitrary qualifying client.
func AggregatePresence(p UserPresence, nowSeconds, offlineThresholdSeconds int64) AggregatedPresence {
	agg := AggregatedPresence{Status: PresenceOffline}
	for client, cp := range p {
		if cp.Timestamp > agg.Timestamp {
			agg.Timestamp = cp.Timestamp
		}
		if nowSeconds-cp.Timestamp >= offlineThresholdSeconds {
			continue
		}
		if cp.Status.rank() > agg.Status.rank() || agg.Client == "" {
			agg.Status = cp.Status
			agg.Client = client
		}
	}
	if agg.Status == PresenceOffline {
		agg.Client = ""
	}
	return agg
}
