package models

// TypingStatus records who is currently typing in one PM conversation.
// Time is the last start event's arrival time in milliseconds; a sweep
// drops entries whose Time is older than the staleness window, there is
// no per-entry timer.
type TypingStatus struct {
	Time    int64    `json:"time"`
	UserIDs []UserID `json:"user_ids"`
}
