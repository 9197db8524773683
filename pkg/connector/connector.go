// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/rs/zerolog"
	"go.mau.fi/util/exzerolog"
	"go.mau.fi/util/random"

	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
)

const (
	dialogSecretLength = 32
	shutdownTimeout    = 10 * time.Second
)

// Connector owns the bot's Mattermost session: the REST client, the
// WebSocket listener and the webhook HTTP server.
type Connector struct {
	Config *Config

	client       *model.Client4
	wsLock       sync.Mutex
	wsClient     *model.WebSocketClient
	feed         Deliverer
	server       *http.Server
	dialogSecret string

	botUserID   string
	botUsername string

	stopOnce sync.Once
	stopChan chan struct{}
	log      zerolog.Logger
}

// New creates a connector for cfg. Nothing is contacted until Start.
func New(cfg *Config, log zerolog.Logger) *Connector {
	client := model.NewAPIv4Client(cfg.Mattermost.ServerURL)
	client.SetToken(cfg.Mattermost.BotToken)
	return &Connector{
		Config:       cfg,
		client:       client,
		dialogSecret: random.String(dialogSecretLength),
		stopChan:     make(chan struct{}),
		log:          log.With().Str("component", "mm_connector").Logger(),
	}
}

// Client returns the authenticated REST client.
func (c *Connector) Client() *model.Client4 {
	return c.client
}

// DialogURL is where Mattermost posts dialog submissions.
func (c *Connector) DialogURL() string {
	return DialogURL(c.Config.Webhooks.PublicURL, c.dialogSecret)
}

// Messenger returns a messenger posting as the bot.
func (c *Connector) Messenger(renderer *messages.Renderer) *Messenger {
	return NewMessenger(c.client, renderer, c.DialogURL(), c.log)
}

// BotUserID is the bot's Mattermost user id, known after Start.
func (c *Connector) BotUserID() string {
	return c.botUserID
}

// Start verifies the bot token, starts the webhook server and connects the
// WebSocket. Inbound events are delivered to feed.
func (c *Connector) Start(ctx context.Context, feed Deliverer) error {
	c.feed = feed
	if err := c.authenticate(ctx); err != nil {
		return err
	}
	if len(c.Config.Webhooks.CommandTokens) == 0 {
		c.log.Warn().Msg("No slash command tokens configured, all slash commands will be rejected")
	}
	if err := c.startWebhooks(); err != nil {
		return err
	}
	if err := c.connectWebSocket(ctx); err != nil {
		c.shutdownWebhooks()
		return err
	}
	return nil
}

func (c *Connector) authenticate(ctx context.Context) error {
	c.log.Info().Str("server_url", c.Config.Mattermost.ServerURL).Msg("Connecting to Mattermost")
	me, _, err := c.client.GetMe(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}
	c.botUserID = me.Id
	c.botUsername = me.Username
	c.log.Info().Str("user_id", me.Id).Str("username", me.Username).Msg("Authenticated")
	return nil
}

func (c *Connector) startWebhooks() error {
	cfg := c.Config.Webhooks
	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddress, err)
	}
	webhooks := NewWebhookServer(cfg, c.feed, c.dialogSecret, c.log)
	c.server = &http.Server{
		Handler:      webhooks.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     stdlog.New(exzerolog.NewLogWriter(c.log).WithLevel(zerolog.WarnLevel), "", 0),
	}
	go func() {
		c.log.Info().Str("addr", ln.Addr().String()).Msg("Starting webhook server")
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error().Err(err).Msg("Webhook server error")
		}
	}()
	return nil
}

func (c *Connector) shutdownWebhooks() {
	if c.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.server.Shutdown(ctx); err != nil {
		c.log.Warn().Err(err).Msg("Failed to shut down webhook server cleanly")
	}
}

// Stop closes the WebSocket and the webhook server. It is safe to call
// more than once.
func (c *Connector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		c.wsLock.Lock()
		if c.wsClient != nil {
			c.wsClient.Close()
		}
		c.wsLock.Unlock()
		c.shutdownWebhooks()
		c.log.Info().Msg("Connector stopped")
	})
}
