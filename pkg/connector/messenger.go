// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"fmt"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
)

// Messenger posts rendered messages and opens interactive dialogs as the
// bot user.
type Messenger struct {
	client    *model.Client4
	renderer  *messages.Renderer
	dialogURL string
	log       zerolog.Logger
}

var (
	_ messages.Messenger  = (*Messenger)(nil)
	_ messages.FormOpener = (*Messenger)(nil)
)

// NewMessenger returns a messenger. dialogURL is where Mattermost posts
// dialog submissions.
func NewMessenger(client *model.Client4, renderer *messages.Renderer, dialogURL string, log zerolog.Logger) *Messenger {
	return &Messenger{
		client:    client,
		renderer:  renderer,
		dialogURL: dialogURL,
		log:       log.With().Str("component", "messenger").Logger(),
	}
}

func (m *Messenger) SendMessage(ctx context.Context, channelID string, msg messages.Message) error {
	text, err := m.renderer.Render(msg)
	if err != nil {
		return err
	}
	post := &model.Post{
		ChannelId: channelID,
		Message:   text,
	}
	created, _, err := m.client.CreatePost(ctx, post)
	if err != nil {
		return fmt.Errorf("failed to create post in %s: %w", channelID, err)
	}
	m.log.Debug().
		Str("channel_id", channelID).
		Str("post_id", created.Id).
		Str("template", msg.Template).
		Msg("Sent message")
	return nil
}

func (m *Messenger) OpenForm(ctx context.Context, triggerID string, form messages.Form) error {
	req := model.OpenDialogRequest{
		TriggerId: triggerID,
		URL:       m.dialogURL,
		Dialog:    toDialog(form),
	}
	if _, err := m.client.OpenInteractiveDialog(ctx, req); err != nil {
		return fmt.Errorf("failed to open dialog %s: %w", form.ID, err)
	}
	m.log.Debug().Str("form_id", form.ID).Msg("Opened dialog")
	return nil
}

// toDialog maps a form to a Mattermost dialog. The form action travels in
// the dialog state and comes back with the submission.
func toDialog(form messages.Form) model.Dialog {
	elements := make([]model.DialogElement, 0, len(form.Fields))
	for _, field := range form.Fields {
		el := model.DialogElement{
			DisplayName: field.Label,
			Name:        field.Name,
			Type:        string(field.Type),
			SubType:     field.SubType,
			Optional:    field.Optional,
			HelpText:    field.Help,
		}
		for _, opt := range field.Options {
			el.Options = append(el.Options, &model.PostActionOptions{Text: opt.Label, Value: opt.Value})
		}
		elements = append(elements, el)
	}
	return model.Dialog{
		CallbackId:       form.ID,
		Title:            form.Title,
		IntroductionText: form.Intro,
		SubmitLabel:      form.SubmitLabel,
		State:            form.Action,
		Elements:         elements,
	}
}
