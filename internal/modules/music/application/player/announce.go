package player

import (
	"log/slog"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// AnnounceTrack returns a PlayHook posting a "Now Playing" message to the
// player's text channel. Nothing is posted while repeating a single track or
// while paused. The previous announcement is deleted.
func AnnounceTrack(notifier ports.NotificationSender) PlayHook {
	return func(p *GuildPlayer, tc *domain.TrackContext) {
		if p.RepeatMode() == domain.RepeatSingle || p.IsPaused() {
			return
		}
		channelID := p.TextChannelID()
		if channelID == 0 {
			return
		}

		messageID, err := notifier.SendNowPlaying(channelID, NowPlayingInfo(tc))
		if err != nil {
			slog.Error("failed to send now playing message", "guild", p.GuildID(), "error", err)
			return
		}

		prev := p.swapNowPlaying(&domain.NowPlayingMessage{ChannelID: channelID, MessageID: messageID})
		if prev == nil {
			return
		}
		if err := notifier.DeleteMessage(prev.ChannelID, prev.MessageID); err != nil {
			slog.Debug("failed to delete previous now playing message", "guild", p.GuildID(), "error", err)
		}
	}
}

// ReportError returns an ErrorHook posting playback errors to the player's text channel.
func ReportError(notifier ports.NotificationSender) ErrorHook {
	return func(p *GuildPlayer, err error) {
		channelID := p.TextChannelID()
		if channelID == 0 {
			return
		}
		if sendErr := notifier.SendError(channelID, err.Error()); sendErr != nil {
			slog.Error("failed to send playback error", "guild", p.GuildID(), "error", sendErr)
		}
	}
}

// NowPlayingInfo builds the announcement payload for an entry.
func NowPlayingInfo(tc *domain.TrackContext) *ports.NowPlayingInfo {
	track := tc.Track()
	requester := tc.Requester()
	duration := track.FormattedDuration()
	if tc.IsSplit() {
		duration = domain.FormatDuration(tc.EffectiveDuration())
	}
	return &ports.NowPlayingInfo{
		Identifier:         track.Identifier,
		Title:              tc.EffectiveTitle(),
		Artist:             track.Artist,
		Duration:           duration,
		URI:                track.URI,
		ArtworkURL:         track.ArtworkURL,
		SourceName:         track.SourceName,
		IsStream:           track.IsStream,
		RequesterID:        requester.UserID,
		RequesterName:      requester.DisplayName,
		RequesterAvatarURL: requester.AvatarURL,
		EnqueuedAt:         tc.AddedAt(),
	}
}
