package ports

import "github.com/sglre6355/sgrmusic/internal/modules/music/domain"

// EventPublisher defines the interface for publishing events asynchronously.
type EventPublisher interface {
	Publish(event domain.Event) error
}
