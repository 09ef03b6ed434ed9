package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
)

// Ensure DiscordUserInfoProvider implements ports.UserInfoProvider.
var _ ports.UserInfoProvider = (*DiscordUserInfoProvider)(nil)

// DiscordUserInfoProvider resolves member display info, preferring the state
// cache over a REST call.
type DiscordUserInfoProvider struct {
	session *discordgo.Session
}

// NewDiscordUserInfoProvider creates a new DiscordUserInfoProvider.
func NewDiscordUserInfoProvider(session *discordgo.Session) *DiscordUserInfoProvider {
	return &DiscordUserInfoProvider{session: session}
}

// GetUserInfo fetches display info for a user in a guild.
func (p *DiscordUserInfoProvider) GetUserInfo(guildID, userID snowflake.ID) (*ports.UserInfo, error) {
	member, err := p.session.State.Member(guildID.String(), userID.String())
	if err != nil {
		member, err = p.session.GuildMember(guildID.String(), userID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guild member: %w", err)
		}
	}

	return &ports.UserInfo{
		DisplayName: displayName(member),
		AvatarURL:   member.AvatarURL(""),
	}, nil
}

// displayName prefers the guild nickname, then the global name, then the username.
func displayName(member *discordgo.Member) string {
	if member.User == nil {
		return member.Nick
	}
	return lo.CoalesceOrEmpty(member.Nick, member.User.GlobalName, member.User.Username)
}
