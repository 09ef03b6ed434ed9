package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// TrackEndReason represents why the playback session ended a track.
type TrackEndReason string

const (
	// TrackEndFinished means the track played to its end.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndLoadFailed means the session could not load the track.
	TrackEndLoadFailed TrackEndReason = "loadFailed"
	// TrackEndStopped means the track was stopped on request.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndReplaced means another track was dispatched over it.
	TrackEndReplaced TrackEndReason = "replaced"
	// TrackEndCleanup means the session was torn down.
	TrackEndCleanup TrackEndReason = "cleanup"
)

// ShouldAdvance returns true if the player should pull the next entry.
func (r TrackEndReason) ShouldAdvance() bool {
	return r == TrackEndFinished || r == TrackEndStopped
}

// BoundaryState is the outcome of a split boundary watch.
type BoundaryState int

const (
	// BoundaryReached means playback arrived at the end of the slice.
	BoundaryReached BoundaryState = iota
	// BoundaryBypassed means playback jumped past the end of the slice, e.g. by seeking.
	BoundaryBypassed
)

// String returns a human-readable representation of the boundary state.
func (s BoundaryState) String() string {
	if s == BoundaryBypassed {
		return "bypassed"
	}
	return "reached"
}

// Event is something the playback session reports about a guild's player.
type Event interface {
	EventGuildID() snowflake.ID
}

// TrackStartedEvent is published when the session starts playing a track.
type TrackStartedEvent struct {
	GuildID snowflake.ID
	Encoded string
}

// EventGuildID implements Event.
func (e TrackStartedEvent) EventGuildID() snowflake.ID { return e.GuildID }

// TrackEndedEvent is published when the session stops playing a track.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Encoded string
	Reason  TrackEndReason
}

// EventGuildID implements Event.
func (e TrackEndedEvent) EventGuildID() snowflake.ID { return e.GuildID }

// TrackExceptionEvent is published when a track errors during playback.
type TrackExceptionEvent struct {
	GuildID  snowflake.ID
	Encoded  string
	Message  string
	Severity string
}

// EventGuildID implements Event.
func (e TrackExceptionEvent) EventGuildID() snowflake.ID { return e.GuildID }

// TrackStuckEvent is published when a track stops producing audio.
type TrackStuckEvent struct {
	GuildID   snowflake.ID
	Encoded   string
	Threshold time.Duration
}

// EventGuildID implements Event.
func (e TrackStuckEvent) EventGuildID() snowflake.ID { return e.GuildID }
