// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
	"github.com/aiku/mattermost-onboarding-bot/pkg/credential"
	"github.com/aiku/mattermost-onboarding-bot/pkg/provisioning"
)

// adminAPI answers every creation request with a fixed status and body.
type adminAPI struct {
	status int
	body   string

	mu     sync.Mutex
	bodies []map[string]any
	tokens []string
}

func (a *adminAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	a.mu.Lock()
	a.bodies = append(a.bodies, decoded)
	a.tokens = append(a.tokens, r.Header.Get(provisioning.SessionTokenHeader))
	a.mu.Unlock()
	w.WriteHeader(a.status)
	_, _ = io.WriteString(w, a.body)
}

func newProvisioningStack(t *testing.T, api *adminAPI) (*activity.Dispatcher, *recordingMessenger) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	transport := provisioning.NewHTTPTransport(srv.URL, "", provisioning.StaticToken("session-token"), srv.Client())
	client := provisioning.NewClient(transport, credential.NewHasher(), 5*time.Second, zerolog.Nop())
	messenger := &recordingMessenger{}
	return newTestDispatcher(messenger, nil, client), messenger
}

func TestEndToEndUserCreated(t *testing.T) {
	t.Parallel()
	api := &adminAPI{status: http.StatusOK, body: `{"userSystemInfo":{"id":"42"}}`}
	d, messenger := newProvisioningStack(t, api)

	d.Route(context.Background(), submitEvent(FormUserCreation, ActionSubmit, adaValues("s3cret")))

	sent := messenger.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if got := sent[1].Message.Markdown; got != "User created: 42" {
		t.Fatalf("outcome = %q", got)
	}
	if len(api.bodies) != 1 {
		t.Fatalf("admin API called %d times", len(api.bodies))
	}
	if api.tokens[0] != "session-token" {
		t.Fatalf("session token header = %q", api.tokens[0])
	}
	pw, ok := api.bodies[0]["password"].(map[string]any)
	if !ok {
		t.Fatalf("payload has no password object: %v", api.bodies[0])
	}
	if pw["hSalt"] != pw["khSalt"] || pw["hPassword"] != pw["khPassword"] {
		t.Fatalf("login and key slots differ: %v", pw)
	}
}

func TestEndToEndUserRejected(t *testing.T) {
	t.Parallel()
	api := &adminAPI{status: http.StatusBadRequest, body: `{"error":"duplicate"}`}
	d, messenger := newProvisioningStack(t, api)

	d.Route(context.Background(), submitEvent(FormUserCreation, ActionSubmit, adaValues("")))

	sent := messenger.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	outcome := sent[1].Message.Markdown
	if !strings.Contains(outcome, `{"error":"duplicate"}`) {
		t.Fatalf("outcome %q does not show the API response", outcome)
	}
	for _, m := range sent {
		if strings.Contains(m.Message.Markdown, "User created") {
			t.Fatalf("unexpected success message %q", m.Message.Markdown)
		}
	}
	if _, ok := api.bodies[0]["password"]; ok {
		t.Fatal("payload has a password key without a password")
	}
	if len(api.bodies) != 1 {
		t.Fatalf("admin API called %d times, want exactly 1", len(api.bodies))
	}
}
