// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost/server/public/model"
	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
)

const (
	CommandPath = "/hooks/command"
	DialogPath  = "/hooks/dialog"

	dialogSecretParam = "secret"
)

// Deliverer accepts inbound events. *Feed implements it.
type Deliverer interface {
	Deliver(ctx context.Context, evt activity.Event) error
}

// WebhookServer turns Mattermost slash command and dialog callbacks into
// activity events.
type WebhookServer struct {
	cfg          WebhookConfig
	feed         Deliverer
	dialogSecret string
	router       *mux.Router
	log          zerolog.Logger
}

// NewWebhookServer creates the webhook handlers. Dialog callbacks must carry
// dialogSecret in their query string, see DialogURL.
func NewWebhookServer(cfg WebhookConfig, feed Deliverer, dialogSecret string, log zerolog.Logger) *WebhookServer {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	ws := &WebhookServer{
		cfg:          cfg,
		feed:         feed,
		dialogSecret: dialogSecret,
		log:          log.With().Str("component", "webhooks").Logger(),
	}
	ws.router = mux.NewRouter()
	ws.router.HandleFunc(CommandPath, ws.HandleCommand).Methods(http.MethodPost)
	ws.router.HandleFunc(DialogPath, ws.HandleDialog).Methods(http.MethodPost)
	return ws
}

// Handler returns the HTTP handler serving all webhook routes.
func (ws *WebhookServer) Handler() http.Handler {
	return ws.router
}

// DialogURL is the callback URL given to Mattermost when opening a dialog.
func DialogURL(publicURL, dialogSecret string) string {
	return publicURL + DialogPath + "?" + url.Values{dialogSecretParam: {dialogSecret}}.Encode()
}

func (ws *WebhookServer) validCommandToken(token string) bool {
	if token == "" {
		return false
	}
	for _, expected := range ws.cfg.CommandTokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1 {
			return true
		}
	}
	return false
}

// HandleCommand is the HTTP handler for POST /hooks/command. Mattermost
// sends slash commands form-encoded.
func (ws *WebhookServer) HandleCommand(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ws.cfg.MaxBodySize)
	if err := r.ParseForm(); err != nil {
		ws.writeBodyError(w, err)
		return
	}
	if !ws.validCommandToken(r.PostForm.Get("token")) {
		ws.log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected slash command with invalid token")
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	command := r.PostForm.Get("command")
	channelID := r.PostForm.Get("channel_id")
	if command == "" || channelID == "" {
		http.Error(w, "missing command or channel_id", http.StatusBadRequest)
		return
	}

	evt := &activity.SlashCommandEvent{
		Meta: activity.NewMeta(channelID, activity.Initiator{
			UserID:   r.PostForm.Get("user_id"),
			Username: r.PostForm.Get("user_name"),
		}),
		Command:   command,
		Text:      r.PostForm.Get("text"),
		TriggerID: r.PostForm.Get("trigger_id"),
		TeamID:    r.PostForm.Get("team_id"),
	}
	ws.log.Info().EmbedObject(evt).Msg("Slash command received")
	if err := ws.feed.Deliver(r.Context(), evt); err != nil {
		ws.log.Err(err).EmbedObject(evt).Msg("Failed to queue slash command")
		http.Error(w, "bot is busy", http.StatusServiceUnavailable)
		return
	}
	ws.writeJSON(w, &model.CommandResponse{ResponseType: model.CommandResponseTypeEphemeral})
}

// HandleDialog is the HTTP handler for POST /hooks/dialog.
func (ws *WebhookServer) HandleDialog(w http.ResponseWriter, r *http.Request) {
	secret := r.URL.Query().Get(dialogSecretParam)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(ws.dialogSecret)) != 1 {
		ws.log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected dialog submission with invalid secret")
		http.Error(w, "invalid secret", http.StatusUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, ws.cfg.MaxBodySize)
	var req model.SubmitDialogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeBodyError(w, err)
		return
	}
	if req.Cancelled {
		ws.log.Debug().Str("form_id", req.CallbackId).Msg("Dialog cancelled")
		w.WriteHeader(http.StatusOK)
		return
	}
	if req.CallbackId == "" || req.ChannelId == "" {
		http.Error(w, "missing callback_id or channel_id", http.StatusBadRequest)
		return
	}

	evt := &activity.FormSubmissionEvent{
		Meta:   activity.NewMeta(req.ChannelId, activity.Initiator{UserID: req.UserId}),
		FormID: req.CallbackId,
		Values: submissionValues(req),
	}
	ws.log.Info().EmbedObject(evt).Msg("Dialog submitted")
	if err := ws.feed.Deliver(r.Context(), evt); err != nil {
		ws.log.Err(err).EmbedObject(evt).Msg("Failed to queue dialog submission")
		http.Error(w, "bot is busy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// submissionValues flattens dialog values to strings. The dialog state is
// stored under activity.ActionField, replacing any field of that name.
func submissionValues(req model.SubmitDialogRequest) map[string]string {
	values := make(map[string]string, len(req.Submission)+1)
	for name, raw := range req.Submission {
		switch v := raw.(type) {
		case nil:
		case string:
			values[name] = v
		default:
			values[name] = fmt.Sprint(v)
		}
	}
	values[activity.ActionField] = req.State
	return values
}

func (ws *WebhookServer) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "invalid request body", http.StatusBadRequest)
}

func (ws *WebhookServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ws.log.Warn().Err(err).Msg("Failed to write webhook response")
	}
}
