package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/player"
)

// EventHandlers handles Discord gateway events for the music module.
type EventHandlers struct {
	botID snowflake.ID
	voice *player.VoiceChannelService
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(botID snowflake.ID, voice *player.VoiceChannelService) *EventHandlers {
	return &EventHandlers{
		botID: botID,
		voice: voice,
	}
}

// HandleVoiceStateUpdate tracks the bot being moved or disconnected and
// listeners leaving the player's channel.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}
	userID, err := snowflake.Parse(event.UserID)
	if err != nil {
		slog.Error("failed to parse user ID in voice state update", "error", err)
		return
	}

	// nil means disconnected
	var newChannelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		newChannelID = &id
	}

	if userID == h.botID {
		h.voice.HandleBotVoiceStateChange(context.Background(), guildID, newChannelID)
		return
	}
	h.voice.HandleUserVoiceStateChange(guildID, userID, newChannelID)
}
