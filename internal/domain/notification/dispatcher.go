package notification

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Broadcaster pushes an event to connected realtime subscribers.
type Broadcaster interface {
	Broadcast(e Event)
}

// Dispatcher records domain events and forwards them to the realtime feed.
// Dispatch never returns an error: delivery failure must not fail the
// operation that produced the event.
type Dispatcher struct {
	repo *Repository
	hub  Broadcaster
}

func NewDispatcher(repo *Repository, hub Broadcaster) *Dispatcher {
	return &Dispatcher{repo: repo, hub: hub}
}

func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	if d == nil {
		return
	}

	if d.repo != nil {
		if err := d.repo.Create(ctx, &e); err != nil {
			log.Error().Err(err).
				Str("type", string(e.Type)).
				Str("creator_id", e.CreatorID.String()).
				Msg("Failed to persist notification event")
		}
	}

	if d.hub != nil {
		d.hub.Broadcast(e)
	}

	log.Info().
		Str("type", string(e.Type)).
		Str("creator_id", e.CreatorID.String()).
		Msg("Domain event dispatched")
}
