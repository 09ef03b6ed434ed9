package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/disgolink/v3/lavalink"

	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// boundarySlack is how many poll intervals past the boundary still count as
// reaching it rather than jumping past it.
const boundarySlack = 2

// watchBoundary polls position until it reaches at, then calls onBoundary once.
// It returns without calling onBoundary if ctx is cancelled first.
func watchBoundary(
	ctx context.Context,
	interval time.Duration,
	at time.Duration,
	position func() time.Duration,
	onBoundary func(domain.BoundaryState),
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pos := position()
			if pos < at {
				continue
			}
			state := domain.BoundaryReached
			if pos-at > boundarySlack*interval {
				state = domain.BoundaryBypassed
			}
			if ctx.Err() != nil {
				return
			}
			fireBoundary(onBoundary, state)
			return
		}
	}
}

func fireBoundary(onBoundary func(domain.BoundaryState), state domain.BoundaryState) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in boundary handler", "state", state, "panic", r)
		}
	}()
	onBoundary(state)
}

// playhead tracks the playback position of a session between player updates.
// Lavalink reports positions only in periodic player updates, so until the
// first update that follows a dispatch, seek or pause the reported state still
// describes what played before and the position is extrapolated instead.
type playhead struct {
	mu     sync.Mutex
	anchor time.Duration
	since  time.Time
	paused bool
	// stale is the time of the last update received before the anchor was set.
	stale time.Time
}

// set anchors the position after a dispatch or seek.
func (h *playhead) set(position time.Duration, reported lavalink.PlayerState, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.anchor = position
	h.since = now
	h.stale = reported.Time.Time
}

// setPaused freezes or resumes the position at its current value.
func (h *playhead) setPaused(paused bool, reported lavalink.PlayerState, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.anchor = h.positionLocked(reported, now)
	h.since = now
	h.stale = reported.Time.Time
	h.paused = paused
}

// position returns the current position, trusting reported only when fresh.
func (h *playhead) position(reported lavalink.PlayerState, now time.Time) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked(reported, now)
}

// fresh reports whether an update was produced after the anchor was set.
func (h *playhead) fresh(reported lavalink.PlayerState) bool {
	t := reported.Time.Time
	return !t.IsZero() && !t.Equal(h.stale) && !t.Before(h.since)
}

func (h *playhead) positionLocked(reported lavalink.PlayerState, now time.Time) time.Duration {
	base, since := h.anchor, h.since
	if h.fresh(reported) {
		base, since = toDuration(reported.Position), reported.Time.Time
	}
	if h.paused || since.IsZero() {
		return base
	}
	return base + max(now.Sub(since), 0)
}
