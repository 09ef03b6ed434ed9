package ports

import (
	"context"
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// ErrSessionDestroyed is returned when a session was already torn down.
var ErrSessionDestroyed = errors.New("playback session already destroyed")

// PlaybackSession is the external audio session of one guild.
// Track lifecycle notifications are delivered asynchronously as domain events.
type PlaybackSession interface {
	// Play starts the track at the given offset, replacing whatever is playing.
	Play(ctx context.Context, track *domain.Track, start time.Duration) error

	// Stop ends the current track.
	Stop(ctx context.Context) error

	// SetPaused pauses or resumes playback.
	SetPaused(ctx context.Context, paused bool) error

	// SetVolume sets the playback volume.
	SetVolume(ctx context.Context, volume int) error

	// Seek moves playback to an absolute position in the current track.
	Seek(ctx context.Context, position time.Duration) error

	// Position returns the absolute position in the current track.
	Position() time.Duration

	// WatchBoundary calls onBoundary once when playback reaches or jumps past at.
	// A later Play, Stop or WatchBoundary cancels the watch.
	WatchBoundary(at time.Duration, onBoundary func(domain.BoundaryState))

	// Destroy releases the session. Returns ErrSessionDestroyed if already released.
	Destroy(ctx context.Context) error
}

// SessionProvider hands out the playback session of a guild.
type SessionProvider interface {
	Session(guildID snowflake.ID) PlaybackSession
}
