// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
	"github.com/aiku/mattermost-onboarding-bot/pkg/connector/mattermostfmt"
	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
	"github.com/aiku/mattermost-onboarding-bot/pkg/provisioning"
)

const (
	// maxResponseRunes keeps failure messages well under the post size limit.
	maxResponseRunes = 2000
	replyTimeout     = 10 * time.Second
)

// UserCreator creates accounts. *provisioning.Client implements it.
type UserCreator interface {
	CreateUser(ctx context.Context, req provisioning.UserCreationRequest) provisioning.Result
}

// UserCreationForm provisions a user from a submitted user-creation form.
type UserCreationForm struct {
	creator   UserCreator
	messenger messages.Messenger
	required  []string
	match     activity.Matcher
	log       zerolog.Logger
}

var _ activity.Handler = (*UserCreationForm)(nil)

// NewUserCreationForm returns the handler. Fields named in required must be
// non-blank; nil means DefaultRequiredFields.
func NewUserCreationForm(creator UserCreator, messenger messages.Messenger, required []string, log zerolog.Logger) *UserCreationForm {
	if required == nil {
		required = DefaultRequiredFields
	}
	return &UserCreationForm{
		creator:   creator,
		messenger: messenger,
		required:  required,
		match:     activity.FormAction(FormUserCreation, ActionSubmit),
		log:       log.With().Str("handler", "user_creation_form").Logger(),
	}
}

func (h *UserCreationForm) Name() string {
	return "user creation form"
}

func (h *UserCreationForm) Matches(evt activity.Event) bool {
	return h.match(evt)
}

func (h *UserCreationForm) OnActivity(ctx context.Context, evt activity.Event) error {
	form, ok := evt.(*activity.FormSubmissionEvent)
	if !ok {
		return fmt.Errorf("unexpected event kind %s", evt.Kind())
	}
	channelID := form.StreamID()

	if missing := h.missingFields(form); len(missing) > 0 {
		return h.messenger.SendMessage(ctx, channelID, messages.Template(
			messages.TemplateMissingFields, messages.MissingFieldsData{Fields: missing},
		))
	}

	req := requestFromForm(form)
	details := messages.Template(messages.TemplateUserDetails, messages.UserDetailsData{
		FirstName:   mattermostfmt.Escape(req.FirstName),
		LastName:    mattermostfmt.Escape(req.LastName),
		Email:       mattermostfmt.Escape(req.Email),
		HasPassword: req.HasPassword(),
	})
	if err := h.messenger.SendMessage(ctx, channelID, details); err != nil {
		h.log.Warn().Err(err).Stringer("event_id", form.EventID()).Msg("Failed to send user details")
	}

	result := h.creator.CreateUser(ctx, req)
	h.log.Info().
		Stringer("event_id", form.EventID()).
		Str("result", result.String()).
		Msg("Provisioning finished")

	// The outcome is reported even when ctx was cancelled by shutdown.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancel()
	if err := h.messenger.SendMessage(sendCtx, channelID, ResultMessage(result)); err != nil {
		return fmt.Errorf("failed to send provisioning outcome: %w", err)
	}
	return nil
}

func (h *UserCreationForm) missingFields(form *activity.FormSubmissionEvent) []string {
	var missing []string
	for _, name := range h.required {
		if strings.TrimSpace(form.Value(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func requestFromForm(form *activity.FormSubmissionEvent) provisioning.UserCreationRequest {
	return provisioning.UserCreationRequest{
		FirstName: strings.TrimSpace(form.Value(FieldFirstName)),
		LastName:  strings.TrimSpace(form.Value(FieldLastName)),
		Email:     strings.TrimSpace(form.Value(FieldEmail)),
		// Passwords are taken verbatim.
		Password: form.Value(FieldPassword),
	}
}

// ResultMessage maps a provisioning outcome to the message shown to the
// user. Response bodies are untrusted and rendered as inline code.
func ResultMessage(result provisioning.Result) messages.Message {
	switch r := result.(type) {
	case *provisioning.Created:
		return messages.Text("User created: " + mattermostfmt.Escape(r.UserID))
	case *provisioning.Failed:
		return messages.Text("Failed to create user. API response: " +
			mattermostfmt.InlineCode(mattermostfmt.Truncate(r.Body, maxResponseRunes)))
	case *provisioning.Errored:
		switch {
		case errors.Is(r, provisioning.ErrCancelled):
			return messages.Text("User creation was interrupted by a shutdown. The user may or may not have been created.")
		case errors.Is(r, provisioning.ErrTimeout):
			return messages.Text("User creation timed out. The user may or may not have been created.")
		default:
			return messages.Text("Failed to create user: " +
				mattermostfmt.InlineCode(mattermostfmt.Truncate(r.Cause.Error(), maxResponseRunes)))
		}
	default:
		return messages.Text("Failed to create user.")
	}
}
