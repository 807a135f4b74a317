package journal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/logging"
	"github.com/zmirror/zmirror/internal/narrow"
)

// ErrUnknownActionType is returned when decoding an entry whose type this
// build does not know.
var ErrUnknownActionType = errors.New("unknown action type")

// fetchErrorPayload is the stored shape of MessageFetchError, whose error
// field does not survive JSON on its own.
type fetchErrorPayload struct {
	Narrow narrow.Narrow `json:"narrow"`
	Error  string        `json:"error,omitempty"`
}

// encodeAction serializes an action's payload for storage.
func encodeAction(a action.Action) (json.RawMessage, error) {
	if fe, ok := a.(action.MessageFetchError); ok {
		p := fetchErrorPayload{Narrow: fe.Narrow}
		if fe.Err != nil {
			// Transport errors can quote the request URL, api key included.
			p.Error = logging.Redact(fe.Err.Error())
		}
		return json.Marshal(p)
	}
	return json.Marshal(a)
}

// decodeAction reconstructs an action from its stored type and payload.
func decodeAction(t action.Type, payload json.RawMessage) (action.Action, error) {
	if t == action.TypeMessageFetchError {
		var p fetchErrorPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
		}
		out := action.MessageFetchError{Narrow: p.Narrow}
		if p.Error != "" {
			out.Err = errors.New(p.Error)
		}
		return out, nil
	}

	var a action.Action
	switch t {
	case action.TypeMessageFetchStart:
		a = &action.MessageFetchStart{}
	case action.TypeMessageFetchComplete:
		a = &action.MessageFetchComplete{}
	case action.TypeEventNewMessage:
		a = &action.EventNewMessage{}
	case action.TypeEventUpdateMessage:
		a = &action.EventUpdateMessage{}
	case action.TypeEventUpdateMessageFlags:
		a = &action.EventUpdateMessageFlags{}
	case action.TypeEventMessageDelete:
		a = &action.EventMessageDelete{}
	case action.TypeEventReactionAdd:
		a = &action.EventReactionAdd{}
	case action.TypeEventReactionRemove:
		a = &action.EventReactionRemove{}
	case action.TypeEventSubmessage:
		a = &action.EventSubmessage{}
	case action.TypeEventPresence:
		a = &action.EventPresence{}
	case action.TypeEventTypingStart:
		a = &action.EventTypingStart{}
	case action.TypeEventTypingStop:
		a = &action.EventTypingStop{}
	case action.TypeClearTyping:
		a = &action.ClearTyping{}
	case action.TypeEventMutedTopics:
		a = &action.EventMutedTopics{}
	case action.TypeEventUserTopic:
		a = &action.EventUserTopic{}
	case action.TypeEventAlertWords:
		a = &action.EventAlertWords{}
	case action.TypeMessageSendStart:
		a = &action.MessageSendStart{}
	case action.TypeMessageSendComplete:
		a = &action.MessageSendComplete{}
	case action.TypeMessageSendFailed:
		a = &action.MessageSendFailed{}
	case action.TypeOutboxAgeSweep:
		a = &action.OutboxAgeSweep{}
	case action.TypeDeleteOutboxMessage:
		a = &action.DeleteOutboxMessage{}
	case action.TypeDraftUpdate:
		a = &action.DraftUpdate{}
	case action.TypeRegisterComplete:
		a = &action.RegisterComplete{}
	case action.TypeResetAccountData:
		return action.ResetAccountData{}, nil
	case action.TypeLogout:
		return action.Logout{}, nil
	case action.TypeLoginSuccess:
		return action.LoginSuccess{}, nil
	case action.TypeAccountSwitch:
		return action.AccountSwitch{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, t)
	}

	if err := json.Unmarshal(payload, a); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return deref(a), nil
}

// deref returns the value form so decoded actions compare equal to the
// originals dispatched by callers.
func deref(a action.Action) action.Action {
	switch v := a.(type) {
	case *action.MessageFetchStart:
		return *v
	case *action.MessageFetchComplete:
		return *v
	case *action.EventNewMessage:
		return *v
	case *action.EventUpdateMessage:
		return *v
	case *action.EventUpdateMessageFlags:
		return *v
	case *action.EventMessageDelete:
		return *v
	case *action.EventReactionAdd:
		return *v
	case *action.EventReactionRemove:
		return *v
	case *action.EventSubmessage:
		return *v
	case *action.EventPresence:
		return *v
	case *action.EventTypingStart:
		return *v
	case *action.EventTypingStop:
		return *v
	case *action.ClearTyping:
		return *v
	case *action.EventMutedTopics:
		return *v
	case *action.EventUserTopic:
		return *v
	case *action.EventAlertWords:
		return *v
	case *action.MessageSendStart:
		return *v
	case *action.MessageSendComplete:
		return *v
	case *action.MessageSendFailed:
		return *v
	case *action.OutboxAgeSweep:
		return *v
	case *action.DeleteOutboxMessage:
		return *v
	case *action.DraftUpdate:
		return *v
	case *action.RegisterComplete:
		return *v
	default:
		return a
	}
}
