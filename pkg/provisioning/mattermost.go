// Copyright 2024-2026 Aiku AI

package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/rs/zerolog"
	"go.mau.fi/util/random"
)

// initialPasswordLength is the length of the throwaway password set on
// accounts created through Mattermost.
const initialPasswordLength = 48

const maxUsernameLength = 64

// MattermostTransport creates users through the Mattermost REST API.
//
// Mattermost hashes passwords itself and cannot import a derived
// credential. Accounts therefore get a random initial password, and when
// the request carried a password the server is asked to send a reset
// e-mail so the user sets it themselves.
type MattermostTransport struct {
	client *model.Client4
	log    zerolog.Logger
}

var _ Transport = (*MattermostTransport)(nil)

// NewMattermostTransport returns a transport using an authenticated client.
func NewMattermostTransport(client *model.Client4, log zerolog.Logger) *MattermostTransport {
	return &MattermostTransport{
		client: client,
		log:    log.With().Str("component", "mm_provisioning").Logger(),
	}
}

func (t *MattermostTransport) Submit(ctx context.Context, payload *Payload) Result {
	attrs := payload.UserAttributes
	user := &model.User{
		Username:  MattermostUsername(attrs.UserName),
		Email:     attrs.EmailAddress,
		FirstName: attrs.FirstName,
		LastName:  attrs.LastName,
		Nickname:  attrs.DisplayName,
		Password:  random.String(initialPasswordLength),
	}

	created, resp, err := t.client.CreateUser(ctx, user)
	if err != nil {
		if resp == nil || resp.StatusCode == 0 {
			return &Errored{Cause: fmt.Errorf("failed to send creation request: %w", err)}
		}
		return &Failed{StatusCode: resp.StatusCode, Body: appErrorBody(err)}
	}
	if created == nil || created.Id == "" {
		return &Errored{Cause: fmt.Errorf("%w: no user id in response", ErrMalformedResponse)}
	}

	if payload.Password != nil {
		if _, err := t.client.SendPasswordResetEmail(ctx, created.Email); err != nil {
			// The account exists at this point, so the creation still counts.
			t.log.Warn().Err(err).Str("user_id", created.Id).Msg("Failed to send password reset e-mail")
		}
	}
	return &Created{UserID: created.Id}
}

// appErrorBody renders a Mattermost API error as the JSON body it came from.
func appErrorBody(err error) string {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		if data, jsonErr := json.Marshal(appErr); jsonErr == nil {
			return string(data)
		}
	}
	return err.Error()
}

// MattermostUsername derives a valid Mattermost username from a login name.
// Mattermost usernames only allow lowercase letters, digits and ".-_", so
// the local part of an e-mail address is used and other runes are replaced.
func MattermostUsername(login string) string {
	name := strings.ToLower(login)
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name = b.String()
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		name = "u" + name
	}
	if len(name) > maxUsernameLength {
		name = name[:maxUsernameLength]
	}
	return name
}
