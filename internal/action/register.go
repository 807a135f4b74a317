package action

import "github.com/zmirror/zmirror/internal/models"

// RegisterData mirrors the parts of the server's /register response the
// state layer consumes. Old servers omit whole sections; every consumer
// treats a missing section as empty rather than failing.
type RegisterData struct {
	UnreadMsgs                 UnreadSnapshot                     `json:"unread_msgs"`
	Presences                  map[string]models.UserPresence     `json:"presences"`
	PresenceOfflineThreshold   int64                              `json:"server_presence_offline_threshold_seconds"`
	MutedTopics                []MutedTopic                       `json:"muted_topics"`
	UserTopics                 []UserTopicSnapshot                `json:"user_topics"`
	RecentPrivateConversations []RecentPrivateConversation        `json:"recent_private_conversations"`
	AlertWords                 []string                           `json:"alert_words"`
	// PresenceUserIDs maps email (the presences map key) to user id for
	// servers that key presences by email.
	PresenceUserIDs map[string]models.UserID `json:"presence_user_ids"`
}

// UnreadSnapshot is the server's unread summary at register time.
type UnreadSnapshot struct {
	Streams  []UnreadStreamSnapshot `json:"streams"`
	Huddles  []UnreadHuddleSnapshot `json:"huddles"`
	PMs      []UnreadPMSnapshot     `json:"pms"`
	Mentions []models.MessageID     `json:"mentions"`
}

// UnreadStreamSnapshot is one stream topic's unread ids. The server sends
// these sorted ascending.
type UnreadStreamSnapshot struct {
	StreamID         models.StreamID    `json:"stream_id"`
	Topic            string             `json:"topic"`
	UnreadMessageIDs []models.MessageID `json:"unread_message_ids"`
}

// UnreadHuddleSnapshot is one group-PM conversation's unread ids. The id
// list is documented as possibly unsorted on some server versions and must
// be normalized on ingest.
type UnreadHuddleSnapshot struct {
	UserIDsString    string             `json:"user_ids_string"`
	UnreadMessageIDs []models.MessageID `json:"unread_message_ids"`
}

// UnreadPMSnapshot is one 1:1 conversation's unread ids; same sortedness
// caveat as huddles.
type UnreadPMSnapshot struct {
	SenderID         models.UserID      `json:"sender_id"`
	UnreadMessageIDs []models.MessageID `json:"unread_message_ids"`
}

// UserTopicSnapshot is one per-topic visibility policy entry.
type UserTopicSnapshot struct {
	StreamID models.StreamID         `json:"stream_id"`
	Topic    string                  `json:"topic_name"`
	Policy   models.VisibilityPolicy `json:"visibility_policy"`
}

// RecentPrivateConversation is one entry of the server's recent-PM list.
type RecentPrivateConversation struct {
	MaxMessageID models.MessageID `json:"max_message_id"`
	UserIDs      []models.UserID  `json:"user_ids"`
}
