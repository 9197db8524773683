// Copyright 2024-2026 Aiku AI

package connector

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
)

// ErrFeedStopped is returned by Deliver after the worker has exited.
var ErrFeedStopped = errors.New("event feed stopped")

// Router is the part of activity.Dispatcher the feed needs.
type Router interface {
	Route(ctx context.Context, evt activity.Event) bool
}

// Feed serialises inbound events. A single worker processes each event to
// completion before taking the next one, so handlers never run
// concurrently with each other.
type Feed struct {
	events  chan activity.Event
	router  Router
	members activity.MembershipListener
	log     zerolog.Logger

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewFeed(queueSize int, router Router, members activity.MembershipListener, log zerolog.Logger) *Feed {
	return &Feed{
		events:  make(chan activity.Event, queueSize),
		router:  router,
		members: members,
		log:     log.With().Str("component", "feed").Logger(),
		stopped: make(chan struct{}),
	}
}

// Deliver queues evt. It blocks while the queue is full until ctx ends or
// the worker stops.
func (f *Feed) Deliver(ctx context.Context, evt activity.Event) error {
	select {
	case <-f.stopped:
		return ErrFeedStopped
	default:
	}
	select {
	case f.events <- evt:
		f.log.Debug().EmbedObject(evt).Int("queued", len(f.events)).Msg("Event queued")
		return nil
	case <-f.stopped:
		return ErrFeedStopped
	case <-ctx.Done():
		return fmt.Errorf("failed to queue event: %w", ctx.Err())
	}
}

// Run processes events until ctx ends. Events still queued at that point
// are dropped. The event being processed sees the cancelled context.
func (f *Feed) Run(ctx context.Context) {
	defer f.stopOnce.Do(func() { close(f.stopped) })
	f.log.Info().Int("queue_size", cap(f.events)).Msg("Event feed started")
	for {
		select {
		case <-ctx.Done():
			f.log.Info().Int("dropped", len(f.events)).Msg("Event feed stopped")
			return
		case evt := <-f.events:
			f.process(ctx, evt)
		}
	}
}

// Done is closed when Run has returned.
func (f *Feed) Done() <-chan struct{} {
	return f.stopped
}

func (f *Feed) process(ctx context.Context, evt activity.Event) {
	defer func() {
		if p := recover(); p != nil {
			f.log.Error().
				EmbedObject(evt).
				Any("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("Recovered panic while processing event")
		}
	}()
	switch e := evt.(type) {
	case *activity.MembershipEvent:
		if f.members != nil {
			f.members.OnUserJoined(ctx, e)
		}
	default:
		f.router.Route(ctx, evt)
	}
}
