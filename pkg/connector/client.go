// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattermost/mattermost/server/public/model"
)

func (c *Connector) connectWebSocket(ctx context.Context) error {
	wsURL := httpToWS(c.Config.Mattermost.ServerURL)
	ws, err := model.NewWebSocketClient4(wsURL, c.client.AuthToken)
	if err != nil {
		return fmt.Errorf("failed to create websocket client: %w", err)
	}
	ws.Listen()
	c.wsLock.Lock()
	c.wsClient = ws
	c.wsLock.Unlock()

	go c.listenWebSocket(ctx, ws)

	c.log.Info().Str("ws_url", wsURL).Msg("WebSocket connected")
	return nil
}

// httpToWS converts an HTTP(S) URL to a WS(S) URL.
func httpToWS(url string) string {
	if strings.HasPrefix(url, "https://") {
		return "wss://" + strings.TrimPrefix(url, "https://")
	}
	if strings.HasPrefix(url, "http://") {
		return "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url
}

func (c *Connector) listenWebSocket(ctx context.Context, ws *model.WebSocketClient) {
	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		case event, ok := <-ws.EventChannel:
			if !ok {
				c.log.Warn().Msg("WebSocket event channel closed, reconnecting")
				c.handleWebSocketDisconnect(ctx)
				return
			}
			if event == nil {
				continue
			}
			c.handleEvent(ctx, event)
		}
	}
}

// handleWebSocketDisconnect makes a single reconnection attempt.
func (c *Connector) handleWebSocketDisconnect(ctx context.Context) {
	select {
	case <-c.stopChan:
		return
	default:
	}
	if err := c.connectWebSocket(ctx); err != nil {
		c.log.Error().Err(err).Msg("Failed to reconnect WebSocket, membership events will be missed")
	}
}
