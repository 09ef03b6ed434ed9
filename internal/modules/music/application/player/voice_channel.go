package player

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID       snowflake.ID
	UserID        snowflake.ID
	TextChannelID snowflake.ID
	// VoiceChannelID is optional; 0 means the user's current channel.
	VoiceChannelID snowflake.ID
}

// VoiceChannelService connects guild players to voice channels.
type VoiceChannelService struct {
	players         *Registry
	voiceConnection ports.VoiceConnection
	voiceState      ports.VoiceStateProvider
	notifier        ports.NotificationSender
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	players *Registry,
	voiceConnection ports.VoiceConnection,
	voiceState ports.VoiceStateProvider,
	notifier ports.NotificationSender,
) *VoiceChannelService {
	return &VoiceChannelService{
		players:         players,
		voiceConnection: voiceConnection,
		voiceState:      voiceState,
		notifier:        notifier,
	}
}

// Join connects the bot to a voice channel and returns the guild's player.
// Joining the channel the player is already in only updates the text channel.
// Moving to another channel keeps the queue.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*GuildPlayer, error) {
	existing := v.players.Get(input.GuildID)

	voiceChannelID := input.VoiceChannelID
	if voiceChannelID == 0 {
		userChannel, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user voice channel: %w", err)
		}
		if userChannel == nil {
			return nil, ErrUserNotInVoice
		}
		voiceChannelID = *userChannel
	}

	if existing != nil && existing.VoiceChannelID() == voiceChannelID {
		existing.SetTextChannelID(input.TextChannelID)
		return existing, nil
	}

	if err := v.voiceConnection.JoinChannel(ctx, input.GuildID, voiceChannelID); err != nil {
		return nil, err
	}

	p := v.players.GetOrCreate(input.GuildID)
	p.SetVoiceChannelID(voiceChannelID)
	p.SetTextChannelID(input.TextChannelID)
	return p, nil
}

// Leave disconnects the bot and destroys the guild's player.
func (v *VoiceChannelService) Leave(ctx context.Context, guildID snowflake.ID) error {
	p := v.players.Get(guildID)
	if p == nil {
		return ErrNotConnected
	}

	v.clearNowPlaying(p)

	if err := v.voiceConnection.LeaveChannel(ctx, guildID); err != nil {
		return err
	}
	return v.players.Destroy(ctx, guildID)
}

// HandleBotVoiceStateChange reacts to the bot being moved or disconnected by
// someone else. newChannelID is nil on disconnect.
func (v *VoiceChannelService) HandleBotVoiceStateChange(
	ctx context.Context,
	guildID snowflake.ID,
	newChannelID *snowflake.ID,
) {
	p := v.players.Get(guildID)
	if p == nil {
		return
	}

	if newChannelID == nil {
		v.clearNowPlaying(p)
		if err := v.players.Destroy(ctx, guildID); err != nil {
			slog.Error("failed to destroy player after disconnect", "guild", guildID, "error", err)
		}
		return
	}

	if *newChannelID != p.VoiceChannelID() {
		p.SetVoiceChannelID(*newChannelID)
	}
}

// HandleUserVoiceStateChange withdraws the skip vote of a user who left the
// player's voice channel.
func (v *VoiceChannelService) HandleUserVoiceStateChange(
	guildID, userID snowflake.ID,
	newChannelID *snowflake.ID,
) {
	p := v.players.Get(guildID)
	if p == nil {
		return
	}
	if newChannelID != nil && *newChannelID == p.VoiceChannelID() {
		return
	}
	p.Votes().Retract(userID)
}

func (v *VoiceChannelService) clearNowPlaying(p *GuildPlayer) {
	msg := p.swapNowPlaying(nil)
	if msg == nil || v.notifier == nil {
		return
	}
	if err := v.notifier.DeleteMessage(msg.ChannelID, msg.MessageID); err != nil {
		slog.Debug("failed to delete now playing message", "guild", p.GuildID(), "error", err)
	}
}
