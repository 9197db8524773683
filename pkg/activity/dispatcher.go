// Copyright 2024-2026 Aiku AI

package activity

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
)

// ErrHandlerPanic is wrapped by HandlerError when a handler panicked.
var ErrHandlerPanic = errors.New("handler panicked")

const errorReplyTimeout = 10 * time.Second

// HandlerError is a failure of one handler for one event.
type HandlerError struct {
	Handler string
	Kind    Kind
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed on %s event: %v", e.Handler, e.Kind, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Registry is the ordered list of handlers. Registration order is match
// priority. It is filled at startup before any Dispatcher is created.
type Registry struct {
	handlers []Handler
}

// Register appends h after all previously registered handlers.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Dispatcher routes events to the first matching handler of a registry
// snapshot.
type Dispatcher struct {
	handlers  []Handler
	messenger messages.Messenger
	log       zerolog.Logger
}

// NewDispatcher copies the handlers of reg. Later registrations are not
// seen by the returned dispatcher.
func NewDispatcher(reg *Registry, messenger messages.Messenger, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers:  slices.Clone(reg.handlers),
		messenger: messenger,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
}

// Route gives evt to the first handler that matches it and reports whether
// one did. Handler failures, including panics, are logged and answered with
// one error message in the event's conversation; they never reach the
// caller.
func (d *Dispatcher) Route(ctx context.Context, evt Event) bool {
	log := d.log.With().EmbedObject(evt).Logger()
	for _, h := range d.handlers {
		if !d.matches(h, evt, &log) {
			continue
		}
		log.Debug().Str("handler", h.Name()).Msg("Dispatching event")
		if err := d.invoke(ctx, h, evt); err != nil {
			log.Err(err).Str("handler", h.Name()).Msg("Handler failed")
			d.replyError(ctx, evt, &log)
		}
		return true
	}
	log.Debug().Msg("No handler matched event")
	return false
}

// matches treats a panicking predicate as a non-match.
func (d *Dispatcher) matches(h Handler, evt Event, log *zerolog.Logger) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("handler", h.Name()).Any("panic", p).Msg("Handler predicate panicked")
			ok = false
		}
	}()
	return h.Matches(evt)
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, evt Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Error().Bytes("stack", debug.Stack()).Str("handler", h.Name()).Msg("Recovered handler panic")
			err = &HandlerError{Handler: h.Name(), Kind: evt.Kind(), Err: fmt.Errorf("%w: %v", ErrHandlerPanic, p)}
		}
	}()
	if err = h.OnActivity(ctx, evt); err != nil {
		return &HandlerError{Handler: h.Name(), Kind: evt.Kind(), Err: err}
	}
	return nil
}

func (d *Dispatcher) replyError(ctx context.Context, evt Event, log *zerolog.Logger) {
	if d.messenger == nil || evt.StreamID() == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorReplyTimeout)
	defer cancel()
	msg := messages.Template(messages.TemplateHandlerError, messages.HandlerErrorData{
		Reference: evt.EventID().String()[:8],
	})
	if err := d.messenger.SendMessage(ctx, evt.StreamID(), msg); err != nil {
		log.Err(err).Msg("Failed to send handler error message")
	}
}
