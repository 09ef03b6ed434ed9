package ports

import (
	"context"
	"fmt"

	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// LoadType represents the type of load result.
type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// Severity classifies a load failure.
type Severity string

const (
	// SeverityCommon failures have a message that is safe to show users.
	SeverityCommon Severity = "common"
	// SeveritySuspicious failures may come from a bug or an upstream change.
	SeveritySuspicious Severity = "suspicious"
	// SeverityFault failures are internal errors.
	SeverityFault Severity = "fault"
)

// LoadFailure describes why an identifier could not be resolved.
type LoadFailure struct {
	Severity Severity
	Message  string
	Cause    string
}

// Error implements error.
func (f *LoadFailure) Error() string {
	if f.Cause != "" {
		return fmt.Sprintf("%s load failure: %s: %s", f.Severity, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s load failure: %s", f.Severity, f.Message)
}

// LoadResult represents the result of loading an identifier.
type LoadResult struct {
	Type         LoadType
	Tracks       []*domain.Track
	PlaylistName string
	Failure      *LoadFailure // Set for LoadTypeError
}

// TrackResolver turns identifiers into playable tracks.
type TrackResolver interface {
	// LoadTracks resolves an identifier, which may be a URL or a prefixed search.
	LoadTracks(ctx context.Context, identifier string) (*LoadResult, error)

	// DecodeTrack rebuilds a track from its encoded form.
	DecodeTrack(ctx context.Context, encoded string) (*domain.Track, error)
}
