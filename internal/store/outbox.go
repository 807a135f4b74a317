package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// OutboxState is the list of locally composed messages not yet confirmed
// delivered, in enqueue order. Records are identified by their client
// local timestamp; terminal records persist until explicitly deleted.
type OutboxState []models.Outbox

// NewOutboxState returns the empty outbox.
func NewOutboxState() OutboxState {
	return nil
}

// ReduceOutbox applies one action to the outbox.
//
// Lifecycle: enqueued -> sent -> deleted on confirmed receipt, or
// enqueued -> terminal (client-error, age, misc). No edge leaves a
// terminal state except explicit deletion.
func ReduceOutbox(s OutboxState, a action.Action) OutboxState {
	switch a := a.(type) {
	case action.MessageSendStart:
		return outboxEnqueue(s, a.Outbox)
	case action.MessageSendComplete:
		return outboxTransition(s, a.LocalMessageID, models.OutboxStatusSent, "")
	case action.MessageSendFailed:
		if !a.Status.Terminal() {
			// Transient failures leave the record enqueued for retry;
			// dispatching a non-terminal failure is a caller bug but
			// must not corrupt state.
			return s
		}
		return outboxTransition(s, a.LocalMessageID, a.Status, a.Detail)
	case action.OutboxAgeSweep:
		return outboxAge(s, a.Now, a.WindowSeconds)
	case action.DeleteOutboxMessage:
		return outboxDelete(s, a.LocalMessageID)
	case action.EventNewMessage:
		return outboxFinalize(s, a)
	case action.MessageFetchComplete:
		return outboxFinalizeFetched(s, a.Messages)
	case action.ResetAccountData, action.Logout, action.AccountSwitch:
		return NewOutboxState()
	default:
		return s
	}
}

// NextSendable returns the oldest enqueued record — the only one a send
// loop may attempt.
func (s OutboxState) NextSendable() (models.Outbox, bool) {
	for _, o := range s {
		if o.Status == models.OutboxStatusEnqueued {
			return o, true
		}
	}
	return models.Outbox{}, false
}

// Find returns the record with the given local id.
func (s OutboxState) Find(localMessageID int64) (models.Outbox, bool) {
	for _, o := range s {
		if o.LocalMessageID == localMessageID {
			return o, true
		}
	}
	return models.Outbox{}, false
}

// outboxEnqueue appends a new record unless one with the same local id
// already exists; re-enqueueing is idempotent.
func outboxEnqueue(s OutboxState, o models.Outbox) OutboxState {
	for _, existing := range s {
		if existing.LocalMessageID == o.LocalMessageID {
			return s
		}
	}
	o.Status = models.OutboxStatusEnqueued
	if o.Timestamp == 0 {
		o.Timestamp = o.LocalMessageID
	}
	out := make(OutboxState, len(s), len(s)+1)
	copy(out, s)
	return append(out, o)
}

// outboxTransition moves one record to the given status. Terminal records
// never transition again.
func outboxTransition(s OutboxState, localMessageID int64, status models.OutboxStatus, detail string) OutboxState {
	for i, o := range s {
		if o.LocalMessageID != localMessageID {
			continue
		}
		if o.Status.Terminal() || o.Status == status {
			return s
		}
		out := make(OutboxState, len(s))
		copy(out, s)
		out[i].Status = status
		out[i].FailureDetail = detail
		return out
	}
	return s
}

// outboxAge decays transient records older than the window into the
// terminal age status. Timing is fuzzy by design; the sweep runs on a
// coarse interval.
func outboxAge(s OutboxState, now, windowSeconds int64) OutboxState {
	var out OutboxState
	for i, o := range s {
		if o.Status.Terminal() {
			continue
		}
		if now-o.LocalMessageID < windowSeconds {
			continue
		}
		if out == nil {
			out = make(OutboxState, len(s))
			copy(out, s)
		}
		out[i].Status = models.OutboxStatusAge
	}
	if out == nil {
		return s
	}
	return out
}

func outboxDelete(s OutboxState, localMessageID int64) OutboxState {
	for i, o := range s {
		if o.LocalMessageID != localMessageID {
			continue
		}
		out := make(OutboxState, 0, len(s)-1)
		out = append(out, s[:i]...)
		return append(out, s[i+1:]...)
	}
	return s
}

// outboxFinalize deletes the record whose provisional id the server
// echoed back with the confirmed message. A record is removed whatever
// its status: a late confirmation after age decay still means the message
// was delivered, and an error marker for a delivered message would be
// worse than the decay having fired early.
func outboxFinalize(s OutboxState, a action.EventNewMessage) OutboxState {
	if len(s) == 0 || a.LocalMessageID == 0 {
		return s
	}
	return outboxDelete(s, a.LocalMessageID)
}

// outboxFinalizeFetched deletes records confirmed by a fetch instead of an
// event; a fetch can race ahead of the event queue. Fetched messages carry
// no local id, so the match is sender plus the client timestamp embedded
// as the provisional id.
func outboxFinalizeFetched(s OutboxState, msgs []*models.Message) OutboxState {
	if len(s) == 0 {
		return s
	}
	out := s
	for _, m := range msgs {
		for _, o := range out {
			if o.LocalMessageID == m.Timestamp && o.SenderID == m.SenderID {
				out = outboxDelete(out, o.LocalMessageID)
				break
			}
		}
	}
	return out
}
