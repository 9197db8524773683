// Copyright 2024-2026 Aiku AI

// Package activity routes inbound chat events to the first handler whose
// predicate accepts them.
package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Kind identifies the variant of an Event.
type Kind string

const (
	KindSlashCommand   Kind = "slash_command"
	KindFormSubmission Kind = "form_submission"
	KindMembership     Kind = "membership"
)

// ActionField is the form value that carries which button submitted a form.
const ActionField = "action"

// Initiator is the user who caused an event.
type Initiator struct {
	UserID   string
	Username string
}

// Meta is embedded in every event.
type Meta struct {
	ID       uuid.UUID
	Stream   string
	From     Initiator
	Received time.Time
}

// NewMeta returns Meta with a fresh id and the current time.
func NewMeta(streamID string, from Initiator) Meta {
	return Meta{
		ID:       uuid.New(),
		Stream:   streamID,
		From:     from,
		Received: time.Now(),
	}
}

func (m *Meta) EventID() uuid.UUID   { return m.ID }
func (m *Meta) StreamID() string     { return m.Stream }
func (m *Meta) Initiator() Initiator { return m.From }

func (m *Meta) marshalMeta(e *zerolog.Event) {
	e.Stringer("event_id", m.ID).
		Str("channel_id", m.Stream).
		Str("user_id", m.From.UserID)
}

// Event is one of *SlashCommandEvent, *FormSubmissionEvent or
// *MembershipEvent.
type Event interface {
	Kind() Kind
	EventID() uuid.UUID
	StreamID() string
	Initiator() Initiator
	zerolog.LogObjectMarshaler

	isEvent()
}

// SlashCommandEvent is a `/command args` typed by a user.
type SlashCommandEvent struct {
	Meta
	Command   string
	Text      string
	TriggerID string
	TeamID    string
}

func (*SlashCommandEvent) isEvent()   {}
func (*SlashCommandEvent) Kind() Kind { return KindSlashCommand }

func (evt *SlashCommandEvent) MarshalZerologObject(e *zerolog.Event) {
	evt.marshalMeta(e)
	e.Str("event_kind", string(KindSlashCommand)).Str("command", evt.Command)
}

// FormSubmissionEvent is a submitted interactive form. Values never
// contain the form id; the submitting action is under ActionField.
type FormSubmissionEvent struct {
	Meta
	FormID string
	Values map[string]string
}

func (*FormSubmissionEvent) isEvent()   {}
func (*FormSubmissionEvent) Kind() Kind { return KindFormSubmission }

// Value returns the named field, or "" when absent.
func (evt *FormSubmissionEvent) Value(name string) string {
	return evt.Values[name]
}

// Action returns the submitting action.
func (evt *FormSubmissionEvent) Action() string {
	return evt.Values[ActionField]
}

func (evt *FormSubmissionEvent) MarshalZerologObject(e *zerolog.Event) {
	evt.marshalMeta(e)
	// Values may hold a password and are never logged.
	e.Str("event_kind", string(KindFormSubmission)).
		Str("form_id", evt.FormID).
		Str("action", evt.Action()).
		Int("field_count", len(evt.Values))
}

// MembershipEvent reports that a user joined a conversation.
type MembershipEvent struct {
	Meta
	UserID      string
	DisplayName string
	TeamID      string
}

func (*MembershipEvent) isEvent()   {}
func (*MembershipEvent) Kind() Kind { return KindMembership }

func (evt *MembershipEvent) MarshalZerologObject(e *zerolog.Event) {
	evt.marshalMeta(e)
	e.Str("event_kind", string(KindMembership)).Str("joined_user_id", evt.UserID)
}
