package ports

import (
	"context"

	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// DescriptionProvider fetches the free-text description of a track.
type DescriptionProvider interface {
	Description(ctx context.Context, track *domain.Track) (string, error)
}
