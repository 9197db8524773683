// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"fmt"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
	"github.com/aiku/mattermost-onboarding-bot/pkg/connector/mattermostfmt"
	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
)

// slashCommandHandler answers a slash command with a template and, when the
// platform gave a trigger id, opens the matching form.
func (b *Bot) slashCommandHandler(command, template string, form messages.Form) activity.Handler {
	return activity.Func{
		Label: "slash " + command,
		Match: activity.SlashCommand(command),
		Handle: func(ctx context.Context, evt activity.Event) error {
			cmd := evt.(*activity.SlashCommandEvent)
			if err := b.messenger.SendMessage(ctx, cmd.StreamID(), messages.Template(template, nil)); err != nil {
				return fmt.Errorf("failed to send %s template: %w", template, err)
			}
			if b.forms == nil || cmd.TriggerID == "" {
				return nil
			}
			if err := b.forms.OpenForm(ctx, cmd.TriggerID, form); err != nil {
				return fmt.Errorf("failed to open %s: %w", form.ID, err)
			}
			return nil
		},
	}
}

func (b *Bot) gifCategoryHandler() activity.Handler {
	return activity.Func{
		Label: "gif category form",
		Match: activity.FormAction(FormGifCategory, ActionSubmit),
		Handle: func(ctx context.Context, evt activity.Event) error {
			form := evt.(*activity.FormSubmissionEvent)
			category := form.Value(FieldCategory)
			msg := messages.Text("No category selected.")
			if category != "" {
				msg = messages.Template(messages.TemplateGifResult, messages.GifResultData{
					Category: mattermostfmt.Escape(category),
				})
			}
			return b.messenger.SendMessage(ctx, form.StreamID(), msg)
		},
	}
}
