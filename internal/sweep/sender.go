package sweep

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/dispatch"
	"github.com/zmirror/zmirror/internal/logging"
	"github.com/zmirror/zmirror/internal/models"
)

// SendFunc performs one send attempt over the network. The transport
// itself lives outside this layer; only the resulting state transition is
// decided here.
type SendFunc func(ctx context.Context, o models.Outbox) error

// ClientError marks a send failure as a malformed-request rejection (the
// 4xx class). Wrap transport errors in it to classify them terminal.
type ClientError struct {
	Err error
}

func (e *ClientError) Error() string { return e.Err.Error() }
func (e *ClientError) Unwrap() error { return e.Err }

// Sender drains the outbox: one record at a time, oldest enqueued first.
// Triggers are external (app foreground, a new compose, reconnect) — the
// caller invokes TrySend on each; there is no internal backoff scheduler.
type Sender struct {
	dispatcher *dispatch.Dispatcher
	send       SendFunc
	logger     zerolog.Logger

	// mu ensures a single drain loop at a time; a TrySend during a drain
	// is absorbed by the loop already running.
	mu       sync.Mutex
	draining bool
}

// NewSender creates a Sender using the given transport function.
func NewSender(dispatcher *dispatch.Dispatcher, send SendFunc) *Sender {
	return &Sender{
		dispatcher: dispatcher,
		send:       send,
		logger:     logging.Component("sender"),
	}
}

// TrySend attempts to drain the enqueued outbox records in order. Only
// the oldest enqueued record is attempted at a time; a transient failure
// stops the drain and leaves the record enqueued for the next trigger.
func (s *Sender) TrySend(ctx context.Context) error {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return nil
	}
	s.draining = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.draining = false
		s.mu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		o, ok := s.dispatcher.State().Outbox.NextSendable()
		if !ok {
			return nil
		}

		if err := o.Validate(); err != nil {
			s.dispatcher.Dispatch(action.MessageSendFailed{
				LocalMessageID: o.LocalMessageID,
				Status:         models.OutboxStatusClientError,
				Detail:         err.Error(),
			})
			continue
		}

		err := s.send(ctx, o)
		if err == nil {
			s.dispatcher.Dispatch(action.MessageSendComplete{LocalMessageID: o.LocalMessageID})
			continue
		}

		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			// The request itself is bad; retrying cannot help. Keep the
			// error for display and stop touching this record.
			s.dispatcher.Dispatch(action.MessageSendFailed{
				LocalMessageID: o.LocalMessageID,
				Status:         models.OutboxStatusClientError,
				Detail:         clientErr.Error(),
			})
			continue
		}

		// Transient: leave the record enqueued, stop the drain and wait
		// for the next external trigger.
		s.logger.Debug().
			Err(err).
			Int64("local_message_id", o.LocalMessageID).
			Msg("send attempt failed; will retry on next trigger")
		return nil
	}
}
