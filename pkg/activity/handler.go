// Copyright 2024-2026 Aiku AI

package activity

import (
	"context"
	"strings"
)

// Handler reacts to the events its Matches accepts. Handlers are values
// built at startup and are not mutated afterwards.
type Handler interface {
	Name() string
	Matches(evt Event) bool
	OnActivity(ctx context.Context, evt Event) error
}

// MembershipListener is notified of join events outside the dispatcher.
type MembershipListener interface {
	OnUserJoined(ctx context.Context, evt *MembershipEvent)
}

// Matcher is a pure predicate over events.
type Matcher func(evt Event) bool

// Func is a Handler assembled from a matcher and a function.
type Func struct {
	Label  string
	Match  Matcher
	Handle func(ctx context.Context, evt Event) error
}

var _ Handler = Func{}

func (f Func) Name() string { return f.Label }

func (f Func) Matches(evt Event) bool {
	return f.Match != nil && f.Match(evt)
}

func (f Func) OnActivity(ctx context.Context, evt Event) error {
	return f.Handle(ctx, evt)
}

// SlashCommand matches a slash command by name. The leading slash is
// optional and the comparison is case-insensitive.
func SlashCommand(name string) Matcher {
	name = strings.TrimPrefix(name, "/")
	return func(evt Event) bool {
		cmd, ok := evt.(*SlashCommandEvent)
		return ok && strings.EqualFold(strings.TrimPrefix(cmd.Command, "/"), name)
	}
}

// FormReply matches submissions of the given form.
func FormReply(formID string) Matcher {
	return func(evt Event) bool {
		form, ok := evt.(*FormSubmissionEvent)
		return ok && form.FormID == formID
	}
}

// FieldEquals matches form submissions whose field has the given value.
func FieldEquals(field, value string) Matcher {
	return func(evt Event) bool {
		form, ok := evt.(*FormSubmissionEvent)
		if !ok {
			return false
		}
		got, present := form.Values[field]
		return present && got == value
	}
}

// OfKind matches every event of a kind.
func OfKind(kind Kind) Matcher {
	return func(evt Event) bool {
		return evt.Kind() == kind
	}
}

// All matches when every matcher does. All() with no matchers matches
// nothing.
func All(matchers ...Matcher) Matcher {
	return func(evt Event) bool {
		if len(matchers) == 0 {
			return false
		}
		for _, m := range matchers {
			if !m(evt) {
				return false
			}
		}
		return true
	}
}

// FormAction matches a submission of formID through the given action.
func FormAction(formID, action string) Matcher {
	return All(FormReply(formID), FieldEquals(ActionField, action))
}
