// Copyright 2024-2026 Aiku AI

package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.mau.fi/util/exhttp"
)

// DefaultCreatePath is the admin endpoint suffix for user creation.
const DefaultCreatePath = "/pod/v2/admin/user/create"

// SessionTokenHeader carries the opaque session token.
const SessionTokenHeader = "sessionToken"

// maxResponseBodySize caps how much of an API answer is read (1 MB).
const maxResponseBodySize = 1 << 20

// SessionTokenSource supplies the session token for admin calls. The token
// is obtained elsewhere; this package never derives or logs it.
type SessionTokenSource interface {
	SessionToken(ctx context.Context) (string, error)
}

// StaticToken is a SessionTokenSource returning a fixed token.
type StaticToken string

func (t StaticToken) SessionToken(context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("session token is not configured")
	}
	return string(t), nil
}

// HTTPTransport posts payloads directly to the admin endpoint.
type HTTPTransport struct {
	baseURL string
	path    string
	tokens  SessionTokenSource
	client  *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport returns a transport posting to baseURL+path. An empty
// path selects DefaultCreatePath; a nil client selects a client with the
// sensible defaults from go.mau.fi/util (dial, TLS and header timeouts).
func NewHTTPTransport(baseURL, path string, tokens SessionTokenSource, client *http.Client) *HTTPTransport {
	if path == "" {
		path = DefaultCreatePath
	}
	if client == nil {
		client = exhttp.SensibleClientSettings.Compile()
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    "/" + strings.TrimLeft(path, "/"),
		tokens:  tokens,
		client:  client,
	}
}

// Endpoint returns the full creation URL.
func (t *HTTPTransport) Endpoint() string {
	return t.baseURL + t.path
}

func (t *HTTPTransport) Submit(ctx context.Context, payload *Payload) Result {
	token, err := t.tokens.SessionToken(ctx)
	if err != nil {
		return &Errored{Cause: fmt.Errorf("failed to get session token: %w", err)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &Errored{Cause: fmt.Errorf("failed to encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return &Errored{Cause: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set(SessionTokenHeader, token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return &Errored{Cause: fmt.Errorf("failed to send creation request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return &Errored{Cause: fmt.Errorf("failed to read creation response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &Failed{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return parseCreated(respBody)
}

// parseCreated extracts userSystemInfo.id from a success body.
func parseCreated(body []byte) Result {
	if !gjson.ValidBytes(body) {
		return &Errored{Cause: fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)}
	}
	id := gjson.GetBytes(body, "userSystemInfo.id")
	if !id.Exists() || id.String() == "" {
		return &Errored{Cause: fmt.Errorf("%w: userSystemInfo.id missing", ErrMalformedResponse)}
	}
	return &Created{UserID: id.String()}
}
