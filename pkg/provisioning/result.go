// Copyright 2024-2026 Aiku AI

package provisioning

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled marks a creation call aborted because the caller's
	// context ended, typically during shutdown. The user may or may not
	// have been created.
	ErrCancelled = errors.New("provisioning cancelled")
	// ErrTimeout marks a creation call that exceeded the configured bound.
	ErrTimeout = errors.New("provisioning timed out")
	// ErrMalformedResponse is returned when a success response cannot be
	// parsed into a user identifier.
	ErrMalformedResponse = errors.New("malformed creation response")
)

// Result is the outcome of a creation call: *Created, *Failed or *Errored.
type Result interface {
	isResult()
	String() string
}

// Created means the API accepted the request and returned the new user's id.
type Created struct {
	UserID string
}

// Failed means the API answered with a non-success status. Creation is not
// idempotent, so failed calls are never retried.
type Failed struct {
	StatusCode int
	Body       string
}

// Errored means no usable answer was obtained: hashing, network, timeout,
// cancellation or an unparsable success body.
type Errored struct {
	Cause error
}

func (*Created) isResult() {}
func (*Failed) isResult()  {}
func (*Errored) isResult() {}

func (r *Created) String() string {
	return "created " + r.UserID
}

func (r *Failed) String() string {
	return fmt.Sprintf("failed with HTTP %d", r.StatusCode)
}

func (r *Errored) String() string {
	return "errored: " + r.Cause.Error()
}

// Unwrap lets errors.Is inspect the cause.
func (r *Errored) Unwrap() error {
	return r.Cause
}

func (r *Errored) Error() string {
	return r.Cause.Error()
}
