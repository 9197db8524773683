// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"testing"

	"github.com/mattermost/mattermost/server/public/model"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
)

func TestHandleUserAdded(t *testing.T) {
	t.Parallel()
	fake := newFakeMM()
	t.Cleanup(fake.Close)
	fake.Users["grace-id"] = &model.User{Id: "grace-id", Username: "grace", FirstName: "Grace", LastName: "Hopper", Nickname: "Grace"}

	c, deliverer := newTestConnector(fake.Server.URL)
	c.handleEvent(context.Background(), newWebSocketEvent(model.WebsocketEventUserAdded, "room-1", map[string]any{
		"user_id": "grace-id",
		"team_id": "team-1",
	}))

	events := deliverer.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	joined, ok := events[0].(*activity.MembershipEvent)
	if !ok {
		t.Fatalf("event type %T", events[0])
	}
	if joined.StreamID() != "room-1" || joined.UserID != "grace-id" || joined.TeamID != "team-1" {
		t.Errorf("event = %+v", joined)
	}
	if joined.DisplayName != "Grace" {
		t.Errorf("DisplayName: got %q, want Grace", joined.DisplayName)
	}
	if joined.Initiator().Username != "grace" {
		t.Errorf("Initiator: got %+v", joined.Initiator())
	}
}

func TestHandleUserAdded_UsesDisplaynameTemplate(t *testing.T) {
	t.Parallel()
	fake := newFakeMM()
	t.Cleanup(fake.Close)
	fake.Users["u1"] = &model.User{Id: "u1", Username: "ghopper", FirstName: "Grace", LastName: "Hopper"}

	c, deliverer := newTestConnector(fake.Server.URL)
	c.Config.Mattermost.DisplaynameTemplate = "{{.FirstName}} ({{.Username}})"
	if err := c.Config.PostProcess(); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	c.handleEvent(context.Background(), newWebSocketEvent(model.WebsocketEventUserAdded, "room-1", map[string]any{"user_id": "u1"}))

	events := deliverer.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events", len(events))
	}
	if name := events[0].(*activity.MembershipEvent).DisplayName; name != "Grace (ghopper)" {
		t.Errorf("DisplayName: got %q", name)
	}
}

func TestHandleUserAdded_SkipsBotItself(t *testing.T) {
	t.Parallel()
	fake := newFakeMM()
	t.Cleanup(fake.Close)

	c, deliverer := newTestConnector(fake.Server.URL)
	c.handleEvent(context.Background(), newWebSocketEvent(model.WebsocketEventUserAdded, "room-1", map[string]any{
		"user_id": "bot-user-id",
	}))

	if len(deliverer.Events()) != 0 {
		t.Fatal("bot's own join was delivered")
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("unexpected API calls: %v", fake.Calls())
	}
}

func TestHandleUserAdded_IncompleteEvent(t *testing.T) {
	t.Parallel()
	fake := newFakeMM()
	t.Cleanup(fake.Close)

	c, deliverer := newTestConnector(fake.Server.URL)
	c.handleEvent(context.Background(), newWebSocketEvent(model.WebsocketEventUserAdded, "", map[string]any{"user_id": "u1"}))
	c.handleEvent(context.Background(), newWebSocketEvent(model.WebsocketEventUserAdded, "room-1", map[string]any{}))

	if len(deliverer.Events()) != 0 {
		t.Fatal("incomplete events were delivered")
	}
}

func TestHandleUserAdded_UserLookupFails(t *testing.T) {
	t.Parallel()
	fake := newFakeMM()
	t.Cleanup(fake.Close)

	c, deliverer := newTestConnector(fake.Server.URL)
	c.handleEvent(context.Background(), newWebSocketEvent(model.WebsocketEventUserAdded, "room-1", map[string]any{"user_id": "ghost"}))

	events := deliverer.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	if name := events[0].(*activity.MembershipEvent).DisplayName; name != "" {
		t.Errorf("DisplayName: got %q, want empty", name)
	}
}

func TestHandleEvent_IgnoresOtherTypes(t *testing.T) {
	t.Parallel()
	fake := newFakeMM()
	t.Cleanup(fake.Close)

	c, deliverer := newTestConnector(fake.Server.URL)
	c.handleEvent(context.Background(), newWebSocketEvent(model.WebsocketEventPosted, "room-1", map[string]any{"post": "{}"}))
	c.handleEvent(context.Background(), newWebSocketEvent(model.WebsocketEventTyping, "room-1", nil))

	if len(deliverer.Events()) != 0 {
		t.Fatal("unrelated events were delivered")
	}
}
