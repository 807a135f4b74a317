package sweep

import (
	"context"
	"errors"
	"testing"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/dispatch"
	"github.com/zmirror/zmirror/internal/models"
)

func TestTrySendDrainsInOrder(t *testing.T) {
	d := dispatch.New()
	enqueueAt(d, 1000)
	enqueueAt(d, 2000)

	var attempted []int64
	sender := NewSender(d, func(_ context.Context, o models.Outbox) error {
		attempted = append(attempted, o.LocalMessageID)
		return nil
	})

	if err := sender.TrySend(context.Background()); err != nil {
		t.Fatalf("try send: %v", err)
	}
	if len(attempted) != 2 || attempted[0] != 1000 || attempted[1] != 2000 {
		t.Fatalf("expected oldest-first attempts, got %v", attempted)
	}
	for _, id := range []int64{1000, 2000} {
		o, ok := d.State().Outbox.Find(id)
		if !ok || o.Status != models.OutboxStatusSent {
			t.Fatalf("expected record %d sent, got %+v", id, o)
		}
	}
}

func TestTrySendClientErrorIsTerminalAndDrainContinues(t *testing.T) {
	d := dispatch.New()
	enqueueAt(d, 1000)
	enqueueAt(d, 2000)

	sender := NewSender(d, func(_ context.Context, o models.Outbox) error {
		if o.LocalMessageID == 1000 {
			return &ClientError{Err: errors.New("invalid topic")}
		}
		return nil
	})

	if err := sender.TrySend(context.Background()); err != nil {
		t.Fatalf("try send: %v", err)
	}

	failed, _ := d.State().Outbox.Find(1000)
	if failed.Status != models.OutboxStatusClientError || failed.FailureDetail != "invalid topic" {
		t.Fatalf("expected terminal client error, got %+v", failed)
	}
	sent, _ := d.State().Outbox.Find(2000)
	if sent.Status != models.OutboxStatusSent {
		t.Fatalf("expected later record still sent, got %+v", sent)
	}
}

func TestTrySendTransientFailureStopsDrain(t *testing.T) {
	d := dispatch.New()
	enqueueAt(d, 1000)
	enqueueAt(d, 2000)

	attempts := 0
	sender := NewSender(d, func(context.Context, models.Outbox) error {
		attempts++
		return errors.New("connection reset")
	})

	if err := sender.TrySend(context.Background()); err != nil {
		t.Fatalf("transient failure must not surface an error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
	o, _ := d.State().Outbox.Find(1000)
	if o.Status != models.OutboxStatusEnqueued {
		t.Fatalf("expected record left enqueued for the next trigger, got %+v", o)
	}
}

func TestTrySendInvalidRecordSkipsNetwork(t *testing.T) {
	d := dispatch.New()
	d.Dispatch(action.MessageSendStart{Outbox: models.Outbox{
		LocalMessageID: 1000,
		Status:         models.OutboxStatusEnqueued,
		Type:           models.MessageTypeStream,
		StreamID:       7,
		Topic:          "x",
		Content:        "", // nothing to send
	}})
	enqueueAt(d, 2000)

	attempts := 0
	sender := NewSender(d, func(context.Context, models.Outbox) error {
		attempts++
		return nil
	})

	if err := sender.TrySend(context.Background()); err != nil {
		t.Fatalf("try send: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected only the valid record attempted, got %d attempts", attempts)
	}
	bad, _ := d.State().Outbox.Find(1000)
	if bad.Status != models.OutboxStatusClientError || bad.FailureDetail == "" {
		t.Fatalf("expected terminal client error with detail, got %+v", bad)
	}
}

func TestTrySendHonorsContextCancellation(t *testing.T) {
	d := dispatch.New()
	enqueueAt(d, 1000)

	sender := NewSender(d, func(context.Context, models.Outbox) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sender.TrySend(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	o, _ := d.State().Outbox.Find(1000)
	if o.Status != models.OutboxStatusEnqueued {
		t.Fatalf("expected record untouched, got %+v", o)
	}
}

func TestTrySendConfirmationDeletesRecord(t *testing.T) {
	d := dispatch.New()
	enqueueAt(d, 1000)

	sender := NewSender(d, func(context.Context, models.Outbox) error { return nil })
	if err := sender.TrySend(context.Background()); err != nil {
		t.Fatalf("try send: %v", err)
	}

	d.NewMessage(action.EventNewMessage{
		Message: &models.Message{
			ID: 42, Type: models.MessageTypeStream, StreamID: 7, Topic: "x",
			SenderID: 100, Flags: []string{},
		},
		LocalMessageID: 1000,
		OwnUserID:      100,
	})

	if _, ok := d.State().Outbox.Find(1000); ok {
		t.Fatal("expected record deleted after the server echo")
	}
}
