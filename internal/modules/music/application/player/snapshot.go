package player

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// Snapshot captures the player's state, current entry first.
func (p *GuildPlayer) Snapshot() *domain.PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := &domain.PlayerSnapshot{
		GuildID:        p.guildID,
		VoiceChannelID: p.voiceChannelID,
		TextChannelID:  p.textChannelID,
		Paused:         p.paused,
		Volume:         p.volume,
		RepeatMode:     p.queue.RepeatMode(),
		Shuffle:        p.queue.IsShuffle(),
	}

	if p.current != nil {
		position := p.session.Position().Milliseconds()
		snap.PositionMillis = &position
		snap.Sources = append(snap.Sources, snapshotSource(p.current))
	}
	for _, tc := range p.queue.List() {
		snap.Sources = append(snap.Sources, snapshotSource(tc))
	}
	return snap
}

func snapshotSource(tc *domain.TrackContext) domain.SnapshotSource {
	src := domain.SnapshotSource{
		Encoded:     tc.Track().Encoded,
		RequesterID: tc.RequesterID(),
	}
	if slice, ok := tc.Slice(); ok {
		src.Split = &domain.SnapshotSplit{
			Title:       slice.Title,
			StartMillis: slice.Start.Milliseconds(),
			EndMillis:   slice.End.Milliseconds(),
		}
	}
	return src
}

// Restore rebuilds the queue and settings from a snapshot and resumes playback
// unless the snapshot was paused. Entries that cannot be decoded are dropped.
func (p *GuildPlayer) Restore(
	ctx context.Context,
	snap *domain.PlayerSnapshot,
	users ports.UserInfoProvider,
) error {
	contexts := make([]*domain.TrackContext, 0, len(snap.Sources))
	for i, src := range snap.Sources {
		track, err := p.resolver.DecodeTrack(ctx, src.Encoded)
		if err != nil {
			slog.Warn("failed to decode saved track", "guild", p.guildID, "error", err)
			continue
		}

		requester := domain.Requester{UserID: src.RequesterID, GuildID: p.guildID}
		if users != nil {
			if info, err := users.GetUserInfo(p.guildID, src.RequesterID); err == nil {
				requester.DisplayName = info.DisplayName
				requester.AvatarURL = info.AvatarURL
			}
		}

		var tc *domain.TrackContext
		if src.Split != nil {
			tc = domain.NewSplitTrackContext(
				track,
				requester,
				time.Duration(src.Split.StartMillis)*time.Millisecond,
				time.Duration(src.Split.EndMillis)*time.Millisecond,
				src.Split.Title,
			)
		} else {
			tc = domain.NewTrackContext(track, requester, false)
		}
		if i == 0 && snap.PositionMillis != nil {
			track.SetPosition(time.Duration(*snap.PositionMillis) * time.Millisecond)
		}
		contexts = append(contexts, tc)
	}

	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrPlayerDestroyed
	}
	p.voiceChannelID = snap.VoiceChannelID
	p.textChannelID = snap.TextChannelID
	p.queue.AddAll(contexts)
	p.queue.SetRepeatMode(snap.RepeatMode)
	p.queue.SetShuffle(snap.Shuffle)
	p.mu.Unlock()

	if snap.Volume > 0 && snap.Volume <= MaxVolume {
		if err := p.SetVolume(ctx, snap.Volume); err != nil {
			return fmt.Errorf("failed to restore volume: %w", err)
		}
	}

	if snap.Paused {
		return p.Pause(ctx)
	}
	return p.play(ctx, true)
}
