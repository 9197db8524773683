// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"sync"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
	"github.com/aiku/mattermost-onboarding-bot/pkg/provisioning"
)

type sentMessage struct {
	ChannelID string
	Message   messages.Message
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *recordingMessenger) SendMessage(_ context.Context, channelID string, msg messages.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, Message: msg})
	return m.err
}

func (m *recordingMessenger) sentMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

type openedForm struct {
	TriggerID string
	Form      messages.Form
}

type recordingForms struct {
	mu     sync.Mutex
	opened []openedForm
	err    error
}

func (f *recordingForms) OpenForm(_ context.Context, triggerID string, form messages.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, openedForm{TriggerID: triggerID, Form: form})
	return f.err
}

type fakeCreator struct {
	mu       sync.Mutex
	requests []provisioning.UserCreationRequest
	result   provisioning.Result
	ctxErr   error
}

func (c *fakeCreator) CreateUser(ctx context.Context, req provisioning.UserCreationRequest) provisioning.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	c.ctxErr = ctx.Err()
	return c.result
}

func submitEvent(formID, action string, values map[string]string) *activity.FormSubmissionEvent {
	all := map[string]string{activity.ActionField: action}
	for k, v := range values {
		all[k] = v
	}
	return &activity.FormSubmissionEvent{
		Meta:   activity.NewMeta("room-1", activity.Initiator{UserID: "admin-id", Username: "admin"}),
		FormID: formID,
		Values: all,
	}
}

func adaValues(password string) map[string]string {
	return map[string]string{
		FieldFirstName: "Ada",
		FieldLastName:  "Lovelace",
		FieldEmail:     "ada@example.com",
		FieldPassword:  password,
	}
}
