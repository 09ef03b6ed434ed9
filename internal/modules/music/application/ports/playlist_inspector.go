package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// PlaylistInfo is what a slow playlist source reports before loading.
type PlaylistInfo struct {
	Name        string
	TotalTracks int
}

// PlaylistInspector sizes playlists whose loading is expensive.
type PlaylistInspector interface {
	// Inspect returns nil without error when the identifier is not a playlist it handles.
	Inspect(ctx context.Context, identifier string) (*PlaylistInfo, error)
}

// RateLimiter budgets expensive work per guild.
type RateLimiter interface {
	// Allow consumes weight units of the guild's budget and reports whether it fit.
	Allow(guildID snowflake.ID, weight int) bool
}
