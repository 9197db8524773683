// Copyright 2024-2026 Aiku AI

// Package messages defines the outbound side of the bot: what a message is,
// who sends it and how template references are rendered to markdown.
package messages

import (
	"context"
)

// Message is either a reference to a named template with its data, or a
// literal markdown string.
type Message struct {
	Template string
	Data     any
	Markdown string
}

// Template references a named template rendered with data.
func Template(name string, data any) Message {
	return Message{Template: name, Data: data}
}

// Text is a literal markdown message. Untrusted parts must already be
// escaped by the caller.
func Text(markdown string) Message {
	return Message{Markdown: markdown}
}

// IsTemplate reports whether m references a template.
func (m Message) IsTemplate() bool {
	return m.Template != ""
}

// Messenger posts messages to a conversation. Errors are reported but not
// retried by callers.
type Messenger interface {
	SendMessage(ctx context.Context, channelID string, msg Message) error
}

// FormOpener shows an interactive form to the user who triggered a command.
type FormOpener interface {
	OpenForm(ctx context.Context, triggerID string, form Form) error
}
