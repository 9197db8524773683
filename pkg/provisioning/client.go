// Copyright 2024-2026 Aiku AI

// Package provisioning creates platform user accounts through an
// administrative API.
//
// A [Client] builds the creation [Payload], derives the password credential
// when one was supplied and hands the payload to a [Transport]. Two
// transports exist: [HTTPTransport] posts the payload to the admin endpoint
// directly, [MattermostTransport] goes through the Mattermost SDK. Every
// outcome is reported as a [Result] rather than an error.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/credential"
)

// DefaultTimeout bounds a creation call when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// Transport submits a creation payload and normalises the answer. A
// transport sends exactly one request per call and never retries.
type Transport interface {
	Submit(ctx context.Context, payload *Payload) Result
}

// Client creates users. It keeps no state between calls and is safe for
// concurrent use if its transport is.
type Client struct {
	transport Transport
	hasher    *credential.Hasher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewClient returns a Client. A zero or negative timeout selects DefaultTimeout.
func NewClient(transport Transport, hasher *credential.Hasher, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		transport: transport,
		hasher:    hasher,
		timeout:   timeout,
		log:       log.With().Str("component", "provisioning").Logger(),
	}
}

// BuildPayload assembles the creation payload for req, deriving a fresh
// credential when req carries a password.
func (c *Client) BuildPayload(req UserCreationRequest) (*Payload, error) {
	payload := &Payload{UserAttributes: newUserAttributes(req)}
	if !req.HasPassword() {
		return payload, nil
	}
	cred, err := c.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	payload.Password = newPassword(cred)
	return payload, nil
}

// CreateUser creates the user described by req.
func (c *Client) CreateUser(ctx context.Context, req UserCreationRequest) Result {
	log := c.log.With().Object("request", req).Logger()

	payload, err := c.BuildPayload(req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build creation payload")
		return &Errored{Cause: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log.Info().Object("payload", payload).Dur("timeout", c.timeout).Msg("Creating user")
	start := time.Now()
	result := c.transport.Submit(callCtx, payload)
	result = classifyContext(ctx, callCtx, result)

	evt := log.Info()
	if _, ok := result.(*Created); !ok {
		evt = log.Warn()
	}
	evt.Stringer("result", result).Dur("took", time.Since(start)).Msg("User creation finished")
	return result
}

// classifyContext tags transport failures caused by the caller's context or
// by the per-call bound so callers can tell them apart from network errors.
func classifyContext(parent, call context.Context, result Result) Result {
	errored, ok := result.(*Errored)
	if !ok {
		return result
	}
	switch {
	case errors.Is(errored.Cause, ErrCancelled), errors.Is(errored.Cause, ErrTimeout):
		return result
	case parent.Err() != nil:
		return &Errored{Cause: fmt.Errorf("%w: %w", ErrCancelled, errored.Cause)}
	case errors.Is(call.Err(), context.DeadlineExceeded):
		return &Errored{Cause: fmt.Errorf("%w: %w", ErrTimeout, errored.Cause)}
	default:
		return result
	}
}
