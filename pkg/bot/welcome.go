// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
	"github.com/aiku/mattermost-onboarding-bot/pkg/connector/mattermostfmt"
	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
)

// Welcomer greets users joining a conversation.
type Welcomer struct {
	messenger messages.Messenger
	log       zerolog.Logger
}

var _ activity.MembershipListener = (*Welcomer)(nil)

func NewWelcomer(messenger messages.Messenger, log zerolog.Logger) *Welcomer {
	return &Welcomer{
		messenger: messenger,
		log:       log.With().Str("component", "welcomer").Logger(),
	}
}

// OnUserJoined sends the welcome template. Send failures are logged only.
func (w *Welcomer) OnUserJoined(ctx context.Context, evt *activity.MembershipEvent) {
	log := w.log.With().EmbedObject(evt).Logger()
	log.Info().Msg("User joined channel")
	name := evt.DisplayName
	if name == "" {
		name = "there"
	}
	msg := messages.Template(messages.TemplateWelcome, messages.WelcomeData{Name: mattermostfmt.Escape(name)})
	if err := w.messenger.SendMessage(ctx, evt.StreamID(), msg); err != nil {
		log.Err(err).Msg("Failed to send welcome message")
	}
}
