package player

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// IsDestroyed reports whether the player was destroyed.
func (p *GuildPlayer) IsDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// IsPaused reports whether playback is paused.
func (p *GuildPlayer) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// IsPlaying reports whether a track is current and not paused.
func (p *GuildPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && !p.paused
}

// IsIdle reports whether nothing is current or queued.
func (p *GuildPlayer) IsIdle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == nil && p.queue.IsEmpty()
}

// Current returns the entry being played, or nil.
func (p *GuildPlayer) Current() *domain.TrackContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// PlayingTrack returns the current entry, or the one that would play next.
func (p *GuildPlayer) PlayingTrack() *domain.TrackContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		return p.current
	}
	return p.queue.Peek()
}

// Volume returns the playback volume.
func (p *GuildPlayer) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Position returns the playback position relative to the start of the current entry.
func (p *GuildPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return 0
	}
	return p.current.EffectivePosition(p.session.Position())
}

// TrackCount returns the number of queued entries plus the current one.
func (p *GuildPlayer) TrackCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.queue.Len()
	if p.current != nil {
		n++
	}
	return n
}

// RemainingTracks returns the current entry followed by the queue in play order.
func (p *GuildPlayer) RemainingTracks() []*domain.TrackContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remainingLocked()
}

func (p *GuildPlayer) remainingLocked() []*domain.TrackContext {
	ordered := p.queue.Ordered()
	if p.current == nil {
		return ordered
	}
	return append([]*domain.TrackContext{p.current}, ordered...)
}

// TracksInRange returns entries [start, end) where index 0 is the current entry.
func (p *GuildPlayer) TracksInRange(start, end int) []*domain.TrackContext {
	p.mu.Lock()
	defer p.mu.Unlock()

	all := p.remainingLocked()
	start = min(max(start, 0), len(all))
	end = min(max(end, start), len(all))
	return all[start:end]
}

// TrackIDsInRange returns the IDs of TracksInRange(start, end).
func (p *GuildPlayer) TrackIDsInRange(start, end int) []domain.TrackContextID {
	return lo.Map(p.TracksInRange(start, end), func(tc *domain.TrackContext, _ int) domain.TrackContextID {
		return tc.ID()
	})
}

// TotalRemainingDuration sums what is left of the current entry and every queued one.
// Streams count as zero.
func (p *GuildPlayer) TotalRemainingDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.queue.Duration()
	if p.current != nil && !p.current.Track().IsStream {
		left := p.current.EffectiveDuration() - p.current.EffectivePosition(p.session.Position())
		total += max(left, 0)
	}
	return total
}

// StreamsCount returns how many remaining entries are live streams.
func (p *GuildPlayer) StreamsCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.queue.StreamsCount()
	if p.current != nil && p.current.Track().IsStream {
		n++
	}
	return n
}

// HistoryRange returns finished entries [start, end), most recent first.
func (p *GuildPlayer) HistoryRange(start, end int) []*domain.TrackContext {
	return p.history.Range(start, end)
}

// HistoryLen returns how many finished entries are remembered.
func (p *GuildPlayer) HistoryLen() int {
	return p.history.Len()
}

// RepeatMode returns the queue's repeat mode.
func (p *GuildPlayer) RepeatMode() domain.RepeatMode {
	return p.queue.RepeatMode()
}

// SetRepeatMode sets the queue's repeat mode.
func (p *GuildPlayer) SetRepeatMode(mode domain.RepeatMode) {
	p.queue.SetRepeatMode(mode)
}

// IsShuffle reports whether shuffle is on.
func (p *GuildPlayer) IsShuffle() bool {
	return p.queue.IsShuffle()
}

// SetShuffle toggles shuffle. Turning it on also drops the current entry's priority.
func (p *GuildPlayer) SetShuffle(shuffle bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue.SetShuffle(shuffle)
	if shuffle && p.current != nil {
		p.current.SetPriority(false)
	}
}

// Reshuffle draws a new shuffled order.
func (p *GuildPlayer) Reshuffle() {
	p.queue.Reshuffle()
}

// VoiceChannelID returns the voice channel the player is connected to.
func (p *GuildPlayer) VoiceChannelID() snowflake.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceChannelID
}

// SetVoiceChannelID records the voice channel the player is connected to.
func (p *GuildPlayer) SetVoiceChannelID(channelID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voiceChannelID = channelID
}

// TextChannelID returns the channel announcements go to.
func (p *GuildPlayer) TextChannelID() snowflake.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textChannelID
}

// SetTextChannelID sets the channel announcements go to.
func (p *GuildPlayer) SetTextChannelID(channelID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textChannelID = channelID
}

// swapNowPlaying records the latest announcement and returns the previous one.
func (p *GuildPlayer) swapNowPlaying(msg *domain.NowPlayingMessage) *domain.NowPlayingMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.nowPlaying
	p.nowPlaying = msg
	return prev
}

// Resume is Play under the name users expect after a pause.
func (p *GuildPlayer) Resume(ctx context.Context) error {
	return p.Play(ctx)
}

// SetPaused pauses or resumes playback.
func (p *GuildPlayer) SetPaused(ctx context.Context, paused bool) error {
	if paused {
		return p.Pause(ctx)
	}
	return p.Resume(ctx)
}
