package domain

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Track represents a resolved, playable audio item.
// Everything except the playback cursor is fixed once the resolver returns it.
type Track struct {
	Identifier string // Source-specific identifier, e.g. a YouTube video ID
	Encoded    string // Lavalink encoded track data
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	ArtworkURL string
	SourceName string // e.g., "youtube", "spotify", "soundcloud"
	IsStream   bool
	IsSeekable bool

	position atomic.Int64
}

// Source returns the parsed TrackSource for this track.
func (t *Track) Source() TrackSource {
	return ParseTrackSource(t.SourceName)
}

// Position returns the playback cursor, i.e. the offset playback starts from
// when the track is dispatched.
func (t *Track) Position() time.Duration {
	return time.Duration(t.position.Load())
}

// SetPosition moves the playback cursor.
func (t *Track) SetPosition(position time.Duration) {
	t.position.Store(int64(position))
}

// Clone returns an independent handle to the same source with the cursor at zero.
func (t *Track) Clone() *Track {
	return &Track{
		Identifier: t.Identifier,
		Encoded:    t.Encoded,
		Title:      t.Title,
		Artist:     t.Artist,
		Duration:   t.Duration,
		URI:        t.URI,
		ArtworkURL: t.ArtworkURL,
		SourceName: t.SourceName,
		IsStream:   t.IsStream,
		IsSeekable: t.IsSeekable,
	}
}

// IsValid returns true if the track has the minimum required fields.
func (t *Track) IsValid() bool {
	return t.Encoded != "" && t.Title != ""
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t *Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}
	return FormatDuration(t.Duration)
}

// FormatDuration formats d as mm:ss, or hh:mm:ss when it spans an hour or more.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
