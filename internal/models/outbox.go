package models

import (
	"errors"
	"fmt"
	"strings"
)

// Outbox validation sentinels.
var (
	ErrEmptyContent  = errors.New("message content is empty")
	ErrNoRecipients  = errors.New("private message has no recipients")
	ErrMissingStream = errors.New("stream message has no stream id")
)

// OutboxStatus is the lifecycle state of a locally composed message that
// has not yet been confirmed delivered.
type OutboxStatus string

const (
	// OutboxStatusEnqueued means the message is waiting for a send attempt
	// (or waiting for a retry after a transient failure).
	OutboxStatusEnqueued OutboxStatus = "enqueued"

	// OutboxStatusSent means the send request succeeded and we are waiting
	// for the server to echo the message back through the event stream.
	OutboxStatusSent OutboxStatus = "sent"

	// OutboxStatusClientError is terminal: the server rejected the request
	// as malformed. Retrying the same request cannot succeed.
	OutboxStatusClientError OutboxStatus = "client-error"

	// OutboxStatusAge is terminal: the message stayed transient past the
	// decay window and was given up on.
	OutboxStatusAge OutboxStatus = "age"

	// OutboxStatusMisc is terminal: an unclassified failure, retained for
	// diagnostic reporting.
	OutboxStatusMisc OutboxStatus = "misc"
)

// Terminal reports whether the status admits no further transitions other
// than explicit deletion by the user.
func (s OutboxStatus) Terminal() bool {
	switch s {
	case OutboxStatusClientError, OutboxStatusAge, OutboxStatusMisc:
		return true
	}
	return false
}

// Outbox is a message the user asked to send that is not yet confirmed
// delivered. LocalMessageID is the client-local creation timestamp in
// seconds; it doubles as the record's identity and as the provisional
// message id embedded in the send request, which is how the confirming
// server echo is matched back to this record.
type Outbox struct {
	LocalMessageID int64        `json:"local_message_id"`
	Status         OutboxStatus `json:"status"`

	Type     MessageType `json:"type"`
	StreamID StreamID    `json:"stream_id,omitempty"`
	Topic    string      `json:"subject,omitempty"`
	// Recipients of a private message, including self.
	Recipients []PMRecipient `json:"display_recipient,omitempty"`

	// Content is the markdown source the user composed.
	Content string `json:"markdown_content"`

	SenderID UserID `json:"sender_id"`
	// Timestamp mirrors LocalMessageID, in seconds, for rendering the
	// provisional message in a message list.
	Timestamp int64 `json:"timestamp"`

	// FailureDetail describes a terminal failure for display. Empty while
	// the record is transient.
	FailureDetail string `json:"failure_detail,omitempty"`
}

// Validate checks that the record describes a sendable request. A record
// that fails here would come back from the server as a malformed-request
// rejection anyway, so the sender short-circuits it to the client-error
// status without a network attempt.
func (o *Outbox) Validate() error {
	v := &ValidationErrors{}

	if o.LocalMessageID <= 0 {
		v.AddMessage("local_message_id", "must be positive")
	}
	if strings.TrimSpace(o.Content) == "" {
		v.Add("markdown_content", ErrEmptyContent)
	}

	switch o.Type {
	case MessageTypeStream:
		if o.StreamID <= 0 {
			v.Add("stream_id", ErrMissingStream)
		}
		if o.Topic == "" {
			v.AddMessage("subject", "topic is required")
		}
	case MessageTypePrivate:
		if len(o.Recipients) == 0 {
			v.Add("display_recipient", ErrNoRecipients)
		}
		for i, r := range o.Recipients {
			rv := &ValidationErrors{}
			if r.ID <= 0 {
				rv.AddMessage("id", "must be a positive user id")
			}
			if err := rv.Err(); err != nil {
				v.Add(fmt.Sprintf("display_recipient[%d]", i), err)
			}
		}
	default:
		v.AddMessage("type", fmt.Sprintf("unknown message type %q", o.Type))
	}

	return v.Err()
}

// PMKey returns the canonical recipient-set key of a private outbox
// message. Empty for stream messages.
func (o *Outbox) PMKey() PMKey {
	if o.Type != MessageTypePrivate {
		return ""
	}
	ids := make([]UserID, 0, len(o.Recipients))
	for _, r := range o.Recipients {
		ids = append(ids, r.ID)
	}
	return PMKeyOf(ids...)
}
