package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/player"
	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// maxChoices is Discord's limit on autocomplete choices.
const maxChoices = 25

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	players  *player.Registry
	resolver ports.TrackResolver
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(players *player.Registry, resolver ports.TrackResolver) *AutocompleteHandler {
	return &AutocompleteHandler{
		players:  players,
		resolver: resolver,
	}
}

// HandlePlay handles autocomplete for the query option of /play and /playnext.
func (h *AutocompleteHandler) HandlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" && opt.Focused {
			query = opt.StringValue()
			break
		}
	}

	choices := h.playChoices(context.Background(), query)
	if err := respondChoices(s, i, choices); err != nil {
		slog.Debug("failed to respond to play autocomplete", "error", err)
	}
}

func (h *AutocompleteHandler) playChoices(ctx context.Context, query string) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)

	// Don't search for very short queries or links
	search := domain.NewSearchQuery(query)
	if len([]rune(search.Query)) < 2 || search.IsURL {
		return choices
	}

	result, err := h.resolver.LoadTracks(ctx, search.Identifier())
	if err != nil {
		slog.Debug("failed to search for autocomplete", "query", query, "error", err)
		return choices
	}

	if result.Type == ports.LoadTypePlaylist {
		return append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("📋 %s (%d tracks)", result.PlaylistName, len(result.Tracks)), 100),
			Value: truncate(query, 100),
		})
	}

	for _, track := range result.Tracks {
		if len(choices) == maxChoices {
			break
		}
		if track.URI == "" || len(track.URI) > 100 {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("🎵 %s - %s", track.Title, track.Artist), 100),
			Value: track.URI,
		})
	}
	return choices
}

// HandleSkipPosition handles autocomplete for the from and to options of /skip.
func (h *AutocompleteHandler) HandleSkipPosition(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		slog.Warn("failed to parse guild ID in autocomplete", "error", err, "guildID", i.GuildID)
		return
	}

	if err := respondChoices(s, i, h.positionChoices(guildID)); err != nil {
		slog.Debug("failed to respond to skip autocomplete", "error", err)
	}
}

// positionChoices lists the current track and the head of the queue, 1-indexed
// to match /queue.
func (h *AutocompleteHandler) positionChoices(guildID snowflake.ID) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)

	p := h.players.Get(guildID)
	if p == nil {
		return choices
	}

	for idx, tc := range p.TracksInRange(0, maxChoices) {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%d. %s", idx+1, truncate(tc.EffectiveTitle(), 90)),
			Value: idx + 1,
		})
	}
	return choices
}
