package ports

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a guild.
var ErrSnapshotNotFound = errors.New("player snapshot not found")

// SnapshotStore persists player snapshots across restarts.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *domain.PlayerSnapshot) error
	Load(ctx context.Context, guildID snowflake.ID) (*domain.PlayerSnapshot, error)
	Delete(ctx context.Context, guildID snowflake.ID) error
	List(ctx context.Context) ([]snowflake.ID, error)
}
