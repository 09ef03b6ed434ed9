package ports

import (
	"context"

	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// EventSubscriber defines the interface for subscribing to events.
// Handlers are invoked one at a time, in publish order.
type EventSubscriber interface {
	Subscribe(handler func(context.Context, domain.Event))
}
