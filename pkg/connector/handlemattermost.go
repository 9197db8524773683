// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"

	"github.com/mattermost/mattermost/server/public/model"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
)

// handleEvent dispatches a Mattermost WebSocket event to the appropriate handler.
func (c *Connector) handleEvent(ctx context.Context, evt *model.WebSocketEvent) {
	switch evt.EventType() {
	case model.WebsocketEventUserAdded:
		c.handleUserAdded(ctx, evt)
	default:
		c.log.Trace().Str("event_type", string(evt.EventType())).Msg("Unhandled event type")
	}
}

// parseUserAddedEvent extracts the joined user and channel. It returns
// ok=false for events that must be skipped, including the bot's own joins.
func (c *Connector) parseUserAddedEvent(evt *model.WebSocketEvent) (userID, channelID, teamID string, ok bool) {
	userID, _ = evt.GetData()["user_id"].(string)
	teamID, _ = evt.GetData()["team_id"].(string)
	if broadcast := evt.GetBroadcast(); broadcast != nil {
		channelID = broadcast.ChannelId
	}
	if userID == "" || channelID == "" {
		c.log.Debug().Str("user_id", userID).Str("channel_id", channelID).Msg("Skipping incomplete user_added event")
		return "", "", "", false
	}
	if userID == c.botUserID {
		c.log.Debug().Str("channel_id", channelID).Msg("Skipping own channel join")
		return "", "", "", false
	}
	return userID, channelID, teamID, true
}

func (c *Connector) handleUserAdded(ctx context.Context, evt *model.WebSocketEvent) {
	userID, channelID, teamID, ok := c.parseUserAddedEvent(evt)
	if !ok {
		return
	}

	var displayName, username string
	user, _, err := c.client.GetUser(ctx, userID, "")
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to fetch joined user, greeting without a name")
	} else {
		displayName = c.Config.Mattermost.UserDisplayname(user)
		username = user.Username
	}

	membership := &activity.MembershipEvent{
		Meta:        activity.NewMeta(channelID, activity.Initiator{UserID: userID, Username: username}),
		UserID:      userID,
		DisplayName: displayName,
		TeamID:      teamID,
	}
	if err = c.feed.Deliver(ctx, membership); err != nil {
		c.log.Err(err).EmbedObject(membership).Msg("Failed to queue membership event")
	}
}
