package domain

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// TrackContextID identifies a queued entry. Clones keep the ID of their original.
type TrackContextID int64

// Requester describes the member who asked for a track.
type Requester struct {
	UserID      snowflake.ID
	GuildID     snowflake.ID
	DisplayName string
	AvatarURL   string
}

// Slice bounds a contiguous sub-range of a track.
type Slice struct {
	Start time.Duration
	End   time.Duration
	Title string
}

// TrackContext is a queue entry: a track plus who asked for it and how it is ordered.
type TrackContext struct {
	track     *Track
	requester Requester
	addedAt   time.Time
	id        TrackContextID
	slice     *Slice

	// Mutated by the owning Queue while shuffling.
	priority atomic.Bool
	rand     atomic.Int32
}

// NewTrackContext wraps a resolved track as a queue entry.
func NewTrackContext(track *Track, requester Requester, priority bool) *TrackContext {
	tc := &TrackContext{
		track:     track,
		requester: requester,
		addedAt:   time.Now(),
		id:        TrackContextID(rand.Int64N(math.MaxInt64)),
	}
	tc.priority.Store(priority)
	tc.Randomize()
	return tc
}

// NewSplitTrackContext wraps a sub-range [start, end) of track as its own entry.
// The track cursor is moved to start.
func NewSplitTrackContext(
	track *Track,
	requester Requester,
	start, end time.Duration,
	title string,
) *TrackContext {
	tc := NewTrackContext(track, requester, false)
	tc.slice = &Slice{Start: start, End: end, Title: title}
	track.SetPosition(start)
	return tc
}

// Track returns the underlying track.
func (c *TrackContext) Track() *Track { return c.track }

// Requester returns who queued the entry.
func (c *TrackContext) Requester() Requester { return c.requester }

// RequesterID returns the user ID of the requester.
func (c *TrackContext) RequesterID() snowflake.ID { return c.requester.UserID }

// AddedAt returns when the entry was created.
func (c *TrackContext) AddedAt() time.Time { return c.addedAt }

// ID returns the entry's identifier.
func (c *TrackContext) ID() TrackContextID { return c.id }

// IsPriority reports whether the entry jumps ahead of shuffled entries.
func (c *TrackContext) IsPriority() bool { return c.priority.Load() }

// SetPriority sets the priority flag.
func (c *TrackContext) SetPriority(priority bool) { c.priority.Store(priority) }

// Rand returns the shuffle sort key.
func (c *TrackContext) Rand() int32 { return c.rand.Load() }

func (c *TrackContext) setRand(v int32) { c.rand.Store(v) }

// Randomize draws a fresh shuffle key in [0, MaxInt32) and returns it.
func (c *TrackContext) Randomize() int32 {
	v := rand.Int32N(math.MaxInt32)
	c.rand.Store(v)
	return v
}

// IsSplit reports whether the entry covers only a slice of its track.
func (c *TrackContext) IsSplit() bool { return c.slice != nil }

// Slice returns the bounds of a split entry, or false for whole tracks.
func (c *TrackContext) Slice() (Slice, bool) {
	if c.slice == nil {
		return Slice{}, false
	}
	return *c.slice, true
}

// StartPosition is where playback of this entry begins.
func (c *TrackContext) StartPosition() time.Duration {
	if c.slice != nil {
		return c.slice.Start
	}
	return 0
}

// EffectiveTitle is the slice title for split entries and the track title otherwise.
func (c *TrackContext) EffectiveTitle() string {
	if c.slice != nil {
		return c.slice.Title
	}
	return c.track.Title
}

// EffectiveDuration is the slice length for split entries and the track length otherwise.
func (c *TrackContext) EffectiveDuration() time.Duration {
	if c.slice != nil {
		return c.slice.End - c.slice.Start
	}
	return c.track.Duration
}

// EffectivePosition converts an absolute track position to one relative to the entry.
func (c *TrackContext) EffectivePosition(absolute time.Duration) time.Duration {
	return max(absolute-c.StartPosition(), 0)
}

// Clone returns a new entry over a fresh copy of the track, positioned at the
// entry's start. ID, requester, slice and priority carry over.
func (c *TrackContext) Clone() *TrackContext {
	track := c.track.Clone()
	clone := &TrackContext{
		track:     track,
		requester: c.requester,
		addedAt:   c.addedAt,
		id:        c.id,
	}
	if c.slice != nil {
		s := *c.slice
		clone.slice = &s
		track.SetPosition(s.Start)
	}
	clone.priority.Store(c.IsPriority())
	clone.Randomize()
	return clone
}
