package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
	colorInfo    = 0x5865F2
)

// pageSize is the number of entries per queue or history page.
const pageSize = 10

func respondError(r bot.Responder, message string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Title:       "Error",
		Description: message,
		Color:       colorError,
	})
}

func respondSuccess(r bot.Responder, description string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	})
}

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondChoices(s *discordgo.Session, i *discordgo.InteractionCreate, choices []*discordgo.ApplicationCommandOptionChoice) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
}

// writeTrackLine writes a single entry line to the string builder.
// Escapes period to prevent Discord markdown list formatting.
func writeTrackLine(sb *strings.Builder, displayIndex int, tc *domain.TrackContext) {
	track := tc.Track()
	duration := track.FormattedDuration()
	if tc.IsSplit() {
		duration = domain.FormatDuration(tc.EffectiveDuration())
	}

	if track.URI != "" {
		fmt.Fprintf(sb, "%d\\. [%s](%s) `[%s]` <@%d>\n",
			displayIndex, tc.EffectiveTitle(), track.URI, duration, tc.RequesterID())
		return
	}
	fmt.Fprintf(sb, "%d\\. **%s** `[%s]` <@%d>\n",
		displayIndex, tc.EffectiveTitle(), duration, tc.RequesterID())
}

// trackLink renders an entry title as a markdown link when it has a URI.
func trackLink(tc *domain.TrackContext) string {
	if uri := tc.Track().URI; uri != "" {
		return fmt.Sprintf("[%s](%s)", tc.EffectiveTitle(), uri)
	}
	return fmt.Sprintf("**%s**", tc.EffectiveTitle())
}

// paginate returns the [start, end) bounds of page (1-indexed) over total
// entries, clamping page into range. Returns the clamped page and the page count.
func paginate(total, page int) (start, end, current, pages int) {
	pages = max((total+pageSize-1)/pageSize, 1)
	current = min(max(page, 1), pages)
	start = (current - 1) * pageSize
	end = min(start+pageSize, total)
	return start, end, current, pages
}

func getDisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
