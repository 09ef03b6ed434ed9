package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music/application/player"
	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

const (
	testGuildID   = snowflake.ID(1)
	testUserID    = snowflake.ID(2)
	testChannelID = snowflake.ID(3)
	testVoiceID   = snowflake.ID(10)
)

type fakeSession struct {
	mu      sync.Mutex
	plays   []*domain.Track
	stops   int
	paused  bool
	volume  int
	seeks   []time.Duration
	playing time.Duration
}

func (f *fakeSession) Play(_ context.Context, track *domain.Track, start time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, track)
	f.playing = start
	return nil
}

func (f *fakeSession) Stop(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeSession) SetPaused(_ context.Context, paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = paused
	return nil
}

func (f *fakeSession) SetVolume(_ context.Context, volume int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = volume
	return nil
}

func (f *fakeSession) Seek(_ context.Context, position time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, position)
	f.playing = position
	return nil
}

func (f *fakeSession) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeSession) WatchBoundary(time.Duration, func(domain.BoundaryState)) {}

func (f *fakeSession) Destroy(context.Context) error { return nil }

func (f *fakeSession) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

type fakeSessionProvider struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*fakeSession
}

func (f *fakeSessionProvider) Session(guildID snowflake.ID) ports.PlaybackSession {
	return f.get(guildID)
}

func (f *fakeSessionProvider) get(guildID snowflake.ID) *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[guildID]
	if !ok {
		s = &fakeSession{}
		f.sessions[guildID] = s
	}
	return s
}

type fakeResolver struct {
	mu      sync.Mutex
	results map[string]*ports.LoadResult
	calls   []string
}

func (f *fakeResolver) LoadTracks(_ context.Context, identifier string) (*ports.LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, identifier)
	if result, ok := f.results[identifier]; ok {
		return result, nil
	}
	return &ports.LoadResult{Type: ports.LoadTypeEmpty}, nil
}

func (f *fakeResolver) DecodeTrack(_ context.Context, encoded string) (*domain.Track, error) {
	return &domain.Track{Encoded: encoded, Title: encoded}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) SendNowPlaying(snowflake.ID, *ports.NowPlayingInfo) (snowflake.ID, error) {
	return 1, nil
}

func (f *fakeNotifier) SendMessage(_ snowflake.ID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeNotifier) SendError(_ snowflake.ID, message string) error {
	return f.SendMessage(0, message)
}

func (f *fakeNotifier) DeleteMessage(snowflake.ID, snowflake.ID) error { return nil }

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeVoiceConnection struct {
	joined []snowflake.ID
	left   []snowflake.ID
}

func (f *fakeVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	f.joined = append(f.joined, channelID)
	return nil
}

func (f *fakeVoiceConnection) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	f.left = append(f.left, guildID)
	return nil
}

type fakeVoiceState struct {
	channels  map[snowflake.ID]snowflake.ID
	listeners []snowflake.ID
}

func (f *fakeVoiceState) GetUserVoiceChannel(_, userID snowflake.ID) (*snowflake.ID, error) {
	id, ok := f.channels[userID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (f *fakeVoiceState) GetListeners(_, _ snowflake.ID) ([]snowflake.ID, error) {
	return f.listeners, nil
}

type handlerFixture struct {
	handlers     *CommandHandlers
	autocomplete *AutocompleteHandler
	events       *EventHandlers
	players      *player.Registry
	sessions     *fakeSessionProvider
	resolver     *fakeResolver
	notifier     *fakeNotifier
	connection   *fakeVoiceConnection
	voiceState   *fakeVoiceState
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		sessions:   &fakeSessionProvider{sessions: make(map[snowflake.ID]*fakeSession)},
		resolver:   &fakeResolver{results: make(map[string]*ports.LoadResult)},
		notifier:   &fakeNotifier{},
		connection: &fakeVoiceConnection{},
		voiceState: &fakeVoiceState{channels: make(map[snowflake.ID]snowflake.ID)},
	}
	f.players = player.NewRegistry(
		context.Background(),
		f.sessions,
		player.Deps{Resolver: f.resolver, Notifier: f.notifier},
		player.Config{
			HistorySize:   20,
			DefaultVolume: 100,
			VoteCooldown:  0,
			Loader:        player.LoaderConfig{TrackLimit: 100, AnnounceThreshold: 50},
		},
	)
	voice := player.NewVoiceChannelService(f.players, f.connection, f.voiceState, f.notifier)
	f.handlers = NewCommandHandlers(f.players, voice, f.voiceState)
	f.autocomplete = NewAutocompleteHandler(f.players, f.resolver)
	f.events = NewEventHandlers(snowflake.ID(99), voice)
	return f
}

// playing connects a player and starts the given entries, the first one playing.
func (f *handlerFixture) playing(entries ...*domain.TrackContext) *player.GuildPlayer {
	p := f.players.GetOrCreate(testGuildID)
	p.SetVoiceChannelID(testVoiceID)
	if len(entries) > 0 {
		if err := p.Enqueue(context.Background(), entries...); err != nil {
			panic(err)
		}
	}
	return p
}

func testTrack(id string) *domain.Track {
	return &domain.Track{
		Identifier: id,
		Encoded:    "encoded-" + id,
		Title:      "Track " + id,
		Artist:     "Artist",
		Duration:   3 * time.Minute,
		URI:        "https://www.youtube.com/watch?v=" + id,
		SourceName: "youtube",
		IsSeekable: true,
	}
}

func testEntry(id string, requester snowflake.ID) *domain.TrackContext {
	return domain.NewTrackContext(testTrack(id), domain.Requester{UserID: requester, GuildID: testGuildID}, false)
}

func newInteraction(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID.String(),
			ChannelID: testChannelID.String(),
			Member: &discordgo.Member{
				User: &discordgo.User{ID: testUserID.String(), Username: "tester"},
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func intOption(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func boolOption(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionBoolean,
		Value: value,
	}
}

// responseEmbed returns the single embed of the last response.
func responseEmbed(r *bot.MockResponder) *discordgo.MessageEmbed {
	if r.LastResponse == nil || r.LastResponse.Data == nil || len(r.LastResponse.Data.Embeds) != 1 {
		return nil
	}
	return r.LastResponse.Data.Embeds[0]
}
