package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
)

// VoiceStateProvider answers voice membership questions from the gateway state cache.
type VoiceStateProvider struct {
	session *discordgo.Session
}

var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(session *discordgo.Session) *VoiceStateProvider {
	return &VoiceStateProvider{session: session}
}

func (v *VoiceStateProvider) voiceStates(guildID snowflake.ID) ([]*discordgo.VoiceState, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return nil, err
	}
	return guild.VoiceStates, nil
}

// GetUserVoiceChannel returns the channel userID is connected to, or nil.
func (v *VoiceStateProvider) GetUserVoiceChannel(guildID, userID snowflake.ID) (*snowflake.ID, error) {
	states, err := v.voiceStates(guildID)
	if err != nil {
		return nil, err
	}

	vs, ok := lo.Find(states, func(vs *discordgo.VoiceState) bool {
		return vs.UserID == userID.String() && vs.ChannelID != ""
	})
	if !ok {
		return nil, nil
	}
	channelID, err := snowflake.Parse(vs.ChannelID)
	if err != nil {
		return nil, err
	}
	return &channelID, nil
}

// GetListeners returns the users other than bots connected to channelID.
func (v *VoiceStateProvider) GetListeners(guildID, channelID snowflake.ID) ([]snowflake.ID, error) {
	states, err := v.voiceStates(guildID)
	if err != nil {
		return nil, err
	}

	var listeners []snowflake.ID
	for _, vs := range states {
		if vs.ChannelID != channelID.String() || v.isBot(guildID, vs) {
			continue
		}
		userID, err := snowflake.Parse(vs.UserID)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, userID)
	}
	return listeners, nil
}

// isBot checks the member attached to the voice state, then the member cache.
func (v *VoiceStateProvider) isBot(guildID snowflake.ID, vs *discordgo.VoiceState) bool {
	member := vs.Member
	if member == nil || member.User == nil {
		cached, err := v.session.State.Member(guildID.String(), vs.UserID)
		if err != nil {
			return false
		}
		member = cached
	}
	return member.User != nil && member.User.Bot
}
