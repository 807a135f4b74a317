package models

import (
	"errors"
	"testing"
)

func TestValidationErrorsIs(t *testing.T) {
	validation := &ValidationErrors{}
	validation.Add("markdown_content", ErrEmptyContent)

	err := validation.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected errors.Is to match ErrEmptyContent, got %v", err)
	}
}

func TestValidationErrorsNestedFields(t *testing.T) {
	nested := &ValidationErrors{}
	nested.AddMessage("text", "message text is required")

	validation := &ValidationErrors{}
	validation.Add("payload", nested)

	err := validation.Err()
	if err == nil {
		t.Fatal("expected error")
	}

	list, ok := err.(*ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors type, got %T", err)
	}
	if len(list.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(list.Errors))
	}
	if list.Errors[0].Field != "payload.text" {
		t.Fatalf("expected field payload.text, got %q", list.Errors[0].Field)
	}
}

func TestValidationErrorsEmptyIsNil(t *testing.T) {
	v := &ValidationErrors{}
	if v.Err() != nil {
		t.Fatal("expected nil for no failures")
	}
	v.Add("field", nil)
	if v.Err() != nil {
		t.Fatal("adding a nil error must not record a failure")
	}
}

func TestOutboxValidateRecipientFieldPaths(t *testing.T) {
	o := Outbox{
		LocalMessageID: 1000,
		Type:           MessageTypePrivate,
		Content:        "hi",
		Recipients:     []PMRecipient{{ID: 5}, {ID: 0}},
	}

	err := o.Validate()
	if err == nil {
		t.Fatal("expected a failure for the zero recipient id")
	}
	list, ok := err.(*ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(list.Errors) != 1 {
		t.Fatalf("expected 1 error, got %+v", list.Errors)
	}
	if list.Errors[0].Field != "display_recipient[1].id" {
		t.Fatalf("expected the nested field path, got %q", list.Errors[0].Field)
	}
}

func TestOutboxValidate(t *testing.T) {
	valid := Outbox{
		LocalMessageID: 1000,
		Type:           MessageTypeStream,
		StreamID:       7,
		Topic:          "x",
		Content:        "hello",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	empty := valid
	empty.Content = "   "
	if err := empty.Validate(); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	noStream := valid
	noStream.StreamID = 0
	if err := noStream.Validate(); !errors.Is(err, ErrMissingStream) {
		t.Fatalf("expected ErrMissingStream, got %v", err)
	}

	pm := Outbox{
		LocalMessageID: 1000,
		Type:           MessageTypePrivate,
		Content:        "hi",
	}
	if err := pm.Validate(); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
	pm.Recipients = []PMRecipient{{ID: 5}}
	if err := pm.Validate(); err != nil {
		t.Fatalf("expected valid pm record, got %v", err)
	}
}
