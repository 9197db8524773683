// Copyright 2024-2026 Aiku AI

// Package bot contains the onboarding bot's activities: the /gif and
// /create commands, their forms, and the welcome message for new members.
package bot

import (
	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
)

const (
	CommandGif    = "/gif"
	CommandCreate = "/create"
)

type Bot struct {
	messenger messages.Messenger
	forms     messages.FormOpener
	creator   UserCreator
	required  []string
	log       zerolog.Logger
}

// New creates the bot. forms may be nil, in which case commands only send
// their template.
func New(messenger messages.Messenger, forms messages.FormOpener, creator UserCreator, required []string, log zerolog.Logger) *Bot {
	if required == nil {
		required = DefaultRequiredFields
	}
	return &Bot{
		messenger: messenger,
		forms:     forms,
		creator:   creator,
		required:  required,
		log:       log,
	}
}

// Register adds the bot's handlers to reg in priority order.
func (b *Bot) Register(reg *activity.Registry) {
	reg.Register(b.slashCommandHandler(CommandGif, messages.TemplateGif, gifCategoryForm()))
	reg.Register(b.slashCommandHandler(CommandCreate, messages.TemplateUserForm, userCreationForm(b.required)))
	reg.Register(b.gifCategoryHandler())
	reg.Register(NewUserCreationForm(b.creator, b.messenger, b.required, b.log))
}

// Welcomer returns the membership listener sharing the bot's messenger.
func (b *Bot) Welcomer() *Welcomer {
	return NewWelcomer(b.messenger, b.log)
}
