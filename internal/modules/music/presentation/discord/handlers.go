package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music/application/player"
	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// djPermissions lets a member skip tracks they did not request.
const djPermissions = discordgo.PermissionManageChannels | discordgo.PermissionAdministrator

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func parseOptions(options []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	m := make(optionMap, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// interactionIDs are the snowflakes every command handler needs.
type interactionIDs struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

func parseInteractionIDs(i *discordgo.InteractionCreate) (interactionIDs, string) {
	var ids interactionIDs
	var err error

	if ids.guildID, err = snowflake.Parse(i.GuildID); err != nil {
		return ids, "Invalid guild"
	}
	if i.Member == nil || i.Member.User == nil {
		return ids, "Invalid user"
	}
	if ids.userID, err = snowflake.Parse(i.Member.User.ID); err != nil {
		return ids, "Invalid user"
	}
	if ids.channelID, err = snowflake.Parse(i.ChannelID); err != nil {
		return ids, "Invalid text channel"
	}
	return ids, ""
}

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	players    *player.Registry
	voice      *player.VoiceChannelService
	voiceState ports.VoiceStateProvider
	now        func() time.Time
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	players *player.Registry,
	voice *player.VoiceChannelService,
	voiceState ports.VoiceStateProvider,
) *CommandHandlers {
	return &CommandHandlers{
		players:    players,
		voice:      voice,
		voiceState: voiceState,
		now:        time.Now,
	}
}

// connectedPlayer returns the guild's player and points its replies at the
// channel the command came from.
func (h *CommandHandlers) connectedPlayer(ids interactionIDs) *player.GuildPlayer {
	p := h.players.Get(ids.guildID)
	if p != nil {
		p.SetTextChannelID(ids.channelID)
	}
	return p
}

// HandleJoin handles the /join command.
func (h *CommandHandlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}

	var voiceChannelID snowflake.ID
	if opt, ok := parseOptions(i.ApplicationCommandData().Options)["channel"]; ok {
		id, err := snowflake.Parse(opt.ChannelValue(s).ID)
		if err != nil {
			return respondError(r, "Invalid voice channel")
		}
		voiceChannelID = id
	}

	p, err := h.voice.Join(ctx, player.JoinInput{
		GuildID:        ids.guildID,
		UserID:         ids.userID,
		TextChannelID:  ids.channelID,
		VoiceChannelID: voiceChannelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", p.VoiceChannelID()))
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if err := h.voice.Leave(ctx, ids.guildID); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Disconnected.")
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.load(s, i, r, false, false)
}

// HandlePlayNext handles the /playnext command.
func (h *CommandHandlers) HandlePlayNext(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.load(s, i, r, true, false)
}

// HandleSplit handles the /split command.
func (h *CommandHandlers) HandleSplit(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	next := false
	if opt, ok := parseOptions(i.ApplicationCommandData().Options)["next"]; ok {
		next = opt.BoolValue()
	}
	return h.load(s, i, r, next, true)
}

// load joins the caller's channel and hands the query to the player's loader.
// The loader replies in the text channel once the query is resolved.
func (h *CommandHandlers) load(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	priority, split bool,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}

	options := parseOptions(i.ApplicationCommandData().Options)
	var query string
	if opt, ok := options["query"]; ok {
		query = opt.StringValue()
	}
	search := domain.NewSearchQuery(query)
	if !search.IsValid() {
		return respondError(r, "Please provide a URL or search term.")
	}

	var start time.Duration
	if opt, ok := options["start"]; ok {
		position, err := domain.ParseTimestamp(opt.StringValue())
		if err != nil {
			return respondError(r, "Invalid start time. Use a timestamp like `1:30`.")
		}
		start = position
	}

	p, err := h.voice.Join(ctx, player.JoinInput{
		GuildID:       ids.guildID,
		UserID:        ids.userID,
		TextChannelID: ids.channelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	p.Load(domain.LoadRequest{
		Identifier: search.Identifier(),
		Requester: domain.Requester{
			UserID:      ids.userID,
			GuildID:     ids.guildID,
			DisplayName: getDisplayName(i.Member),
			AvatarURL:   i.Member.AvatarURL(""),
		},
		ChannelID: ids.channelID,
		Priority:  priority,
		Split:     split,
		Position:  start,
	})

	return respondSuccess(r, fmt.Sprintf("Searching for `%s`...", truncate(search.Query, 100)))
}

// HandleSkip handles the /skip command. Positions are 1-indexed as shown by
// /queue, with 1 being the current track.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	options := parseOptions(i.ApplicationCommandData().Options)
	from, to := 1, 0
	if opt, ok := options["from"]; ok {
		from = int(opt.IntValue())
	}
	if opt, ok := options["to"]; ok {
		to = int(opt.IntValue())
	}
	if to == 0 {
		to = from
	}
	if from < 1 || to < from {
		return respondError(r, "Invalid range.")
	}

	trackIDs := p.TrackIDsInRange(from-1, to)
	if len(trackIDs) == 0 {
		return respondError(r, "There is nothing to skip in that range.")
	}

	isDJ := i.Member.Permissions&djPermissions != 0
	if !p.CanMemberSkip(ids.userID, isDJ, trackIDs) {
		return respondError(r, "You can only skip tracks you requested. Use /voteskip instead.")
	}

	skipped, err := p.SkipTracks(ctx, trackIDs)
	if err != nil {
		return respondError(r, err.Error())
	}
	if skipped == 1 {
		return respondSuccess(r, "Skipped.")
	}
	return respondSuccess(r, fmt.Sprintf("Skipped `%d` tracks.", skipped))
}

// HandleVoteSkip handles the /voteskip command.
func (h *CommandHandlers) HandleVoteSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	listeners, err := h.voiceState.GetListeners(ids.guildID, p.VoiceChannelID())
	if err != nil {
		return fmt.Errorf("failed to get listeners: %w", err)
	}
	if !slices.Contains(listeners, ids.userID) {
		return respondError(r, "You must be listening to vote.")
	}

	current := p.Current()
	result, err := p.VoteSkip(ctx, ids.userID, listeners, h.now())
	if err != nil {
		return respondError(r, err.Error())
	}
	if result.Skipped {
		return respondSuccess(r, fmt.Sprintf("Vote passed, skipping %s.", trackLink(current)))
	}
	return respondSuccess(r, fmt.Sprintf("Voted to skip. `%d/%d` votes.", result.Votes, result.Needed))
}

// HandleStop handles the /stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	if err := p.Stop(ctx); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Stopped playback and cleared the queue.")
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}
	if p.Current() == nil {
		return respondError(r, player.ErrNotPlaying.Error())
	}
	if p.IsPaused() {
		return respondError(r, "Playback is already paused.")
	}

	if err := p.SetPaused(ctx, true); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}
	if !p.IsPaused() {
		return respondError(r, "Playback is not paused.")
	}

	if err := p.SetPaused(ctx, false); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Resumed playback.")
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	page := 1
	if opt, ok := parseOptions(i.ApplicationCommandData().Options)["page"]; ok {
		page = int(opt.IntValue())
	}

	total := p.TrackCount()
	start, end, page, pages := paginate(total, page)
	footer := &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d", page, pages)}

	embed := &discordgo.MessageEmbed{
		Title:  queueTitle(p),
		Color:  colorInfo,
		Footer: footer,
	}
	if total == 0 {
		embed.Description = "Queue is empty."
		footer.Text += loadingNote(p)
		return respondEmbed(r, embed)
	}

	var sb strings.Builder
	hasCurrent := p.Current() != nil
	for idx, tc := range p.TracksInRange(start, end) {
		position := start + idx
		if position == 0 && hasCurrent {
			sb.WriteString("### Now Playing\n")
		} else if idx == 0 || (position == 1 && hasCurrent) {
			sb.WriteString("### Up Next\n")
		}
		writeTrackLine(&sb, position+1, tc)
	}
	embed.Description = sb.String()

	remaining := domain.FormatDuration(p.TotalRemainingDuration())
	if streams := p.StreamsCount(); streams > 0 {
		remaining += fmt.Sprintf(" + %d streams", streams)
	}
	footer.Text += fmt.Sprintf(" • %d tracks • %s", total, remaining) + loadingNote(p)

	return respondEmbed(r, embed)
}

// loadingNote describes requests still being resolved, or returns "".
func loadingNote(p *player.GuildPlayer) string {
	if !p.Loader().IsLoading() {
		return ""
	}
	return fmt.Sprintf(" • resolving %d more", p.Loader().Pending()+1)
}

func queueTitle(p *player.GuildPlayer) string {
	title := "Queue"
	switch p.RepeatMode() {
	case domain.RepeatSingle:
		title += " \U0001F502" // 🔂
	case domain.RepeatAll:
		title += " \U0001F501" // 🔁
	}
	if p.IsShuffle() {
		title += " \U0001F500" // 🔀
	}
	return title
}

// HandleHistory handles the /history command.
func (h *CommandHandlers) HandleHistory(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	page := 1
	if opt, ok := parseOptions(i.ApplicationCommandData().Options)["page"]; ok {
		page = int(opt.IntValue())
	}

	start, end, page, pages := paginate(p.HistoryLen(), page)
	embed := &discordgo.MessageEmbed{
		Title:  "History",
		Color:  colorInfo,
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d", page, pages)},
	}

	entries := p.HistoryRange(start, end)
	if len(entries) == 0 {
		embed.Description = "Nothing has been played yet."
		return respondEmbed(r, embed)
	}

	var sb strings.Builder
	for idx, tc := range entries {
		writeTrackLine(&sb, start+idx+1, tc)
	}
	embed.Description = sb.String()
	return respondEmbed(r, embed)
}

// HandleNowPlaying handles the /nowplaying command.
func (h *CommandHandlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	current := p.Current()
	if current == nil {
		return respondError(r, player.ErrNotPlaying.Error())
	}

	track := current.Track()
	progress := "LIVE"
	if !track.IsStream {
		progress = fmt.Sprintf("%s / %s",
			domain.FormatDuration(p.Position()),
			domain.FormatDuration(current.EffectiveDuration()),
		)
	}

	state := "Now Playing"
	if p.IsPaused() {
		state = "Paused"
	}

	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: state},
		Description: fmt.Sprintf("%s\n%s\n`%s`", trackLink(current), track.Artist, progress),
		Color:       track.Source().Color(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Requested by", Value: fmt.Sprintf("<@%d>", current.RequesterID()), Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", p.Volume()), Inline: true},
			{Name: "Repeat", Value: p.RepeatMode().String(), Inline: true},
		},
	}
	if track.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
	}
	return respondEmbed(r, embed)
}

// HandleShuffle handles the /shuffle command.
func (h *CommandHandlers) HandleShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	enabled := !p.IsShuffle()
	if opt, ok := parseOptions(i.ApplicationCommandData().Options)["enabled"]; ok {
		enabled = opt.BoolValue()
	}
	p.SetShuffle(enabled)

	if enabled {
		return respondSuccess(r, "Shuffle enabled.")
	}
	return respondSuccess(r, "Shuffle disabled.")
}

// HandleReshuffle handles the /reshuffle command.
func (h *CommandHandlers) HandleReshuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}
	if !p.IsShuffle() {
		return respondError(r, "Shuffle is not enabled.")
	}

	p.Reshuffle()
	return respondSuccess(r, "Reshuffled the queue.")
}

// HandleRepeat handles the /repeat command.
func (h *CommandHandlers) HandleRepeat(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	var mode domain.RepeatMode
	if opt, ok := parseOptions(i.ApplicationCommandData().Options)["mode"]; ok {
		mode = domain.ParseRepeatMode(opt.StringValue())
	}
	p.SetRepeatMode(mode)

	var description string
	switch mode {
	case domain.RepeatSingle:
		description = "Now repeating the current track."
	case domain.RepeatAll:
		description = "Now repeating the queue."
	default:
		description = "Repeat disabled."
	}
	return respondSuccess(r, description)
}

// HandleSeek handles the /seek command.
func (h *CommandHandlers) HandleSeek(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	var raw string
	if opt, ok := parseOptions(i.ApplicationCommandData().Options)["position"]; ok {
		raw = opt.StringValue()
	}
	position, err := domain.ParseTimestamp(raw)
	if err != nil {
		return respondError(r, "Invalid position. Use a timestamp like `1:30`.")
	}

	current := p.Current()
	if current != nil && !current.Track().IsStream && position > current.EffectiveDuration() {
		return respondError(r, "That position is past the end of the track.")
	}

	if err := p.SeekTo(ctx, position); err != nil {
		if errors.Is(err, player.ErrNotPlaying) || errors.Is(err, player.ErrNotSeekable) {
			return respondError(r, err.Error())
		}
		slog.Error("failed to seek", "guild", ids.guildID, "error", err)
		return respondError(r, "Failed to seek.")
	}
	return respondSuccess(r, fmt.Sprintf("Seeked to `%s`.", domain.FormatDuration(position)))
}

// HandleVolume handles the /volume command.
func (h *CommandHandlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, msg := parseInteractionIDs(i)
	if msg != "" {
		return respondError(r, msg)
	}
	p := h.connectedPlayer(ids)
	if p == nil {
		return respondError(r, player.ErrNotConnected.Error())
	}

	level := -1
	if opt, ok := parseOptions(i.ApplicationCommandData().Options)["level"]; ok {
		level = int(opt.IntValue())
	}

	if err := p.SetVolume(ctx, level); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, fmt.Sprintf("Volume set to `%d%%`.", level))
}
