package music

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music/application/player"
	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/infrastructure"
	"github.com/sglre6355/sgrmusic/internal/modules/music/presentation/discord"
)

const (
	// snapshotTimeout bounds saving every snapshot on shutdown.
	snapshotTimeout = 10 * time.Second
	// restoreTimeout bounds rejoining and resuming every saved player.
	restoreTimeout = 2 * time.Minute
)

func init() {
	bot.Register(&MusicModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*MusicModule)(nil)
	_ bot.StartableModule    = (*MusicModule)(nil)
)

// MusicModule provides per-guild music playback commands.
type MusicModule struct {
	config *Config

	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler
	eventHandlers   *discord.EventHandlers

	lavalinkAdapter *infrastructure.LavalinkAdapter
	eventBus        *infrastructure.ChannelEventBus
	players         *player.Registry
	snapshots       ports.SnapshotStore
	users           ports.UserInfoProvider
	redis           *redis.Client

	// Context for players and background work
	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *MusicModule) Name() string {
	return "music"
}

// Commands returns the slash commands for this module.
func (m *MusicModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":       m.commandHandlers.HandleJoin,
		"leave":      m.commandHandlers.HandleLeave,
		"play":       m.commandHandlers.HandlePlay,
		"playnext":   m.commandHandlers.HandlePlayNext,
		"split":      m.commandHandlers.HandleSplit,
		"skip":       m.commandHandlers.HandleSkip,
		"voteskip":   m.commandHandlers.HandleVoteSkip,
		"stop":       m.commandHandlers.HandleStop,
		"pause":      m.commandHandlers.HandlePause,
		"resume":     m.commandHandlers.HandleResume,
		"queue":      m.commandHandlers.HandleQueue,
		"history":    m.commandHandlers.HandleHistory,
		"nowplaying": m.commandHandlers.HandleNowPlaying,
		"shuffle":    m.commandHandlers.HandleShuffle,
		"reshuffle":  m.commandHandlers.HandleReshuffle,
		"repeat":     m.commandHandlers.HandleRepeat,
		"seek":       m.commandHandlers.HandleSeek,
		"volume":     m.commandHandlers.HandleVolume,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleInteractionCreate(s, i)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init connects to Lavalink and wires the players to Discord.
func (m *MusicModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil || deps.Session.State == nil || deps.Session.State.User == nil {
		return fmt.Errorf("music module requires a connected Discord session")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	// The bus must exist before the adapter, which publishes to it on connect.
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(
		m.ctx,
		deps.Session,
		infrastructure.LavalinkConfig{
			Address:      m.config.LavalinkAddress,
			Password:     m.config.LavalinkPassword,
			Secure:       m.config.LavalinkSecure,
			PollInterval: m.config.BoundaryPollInterval,
		},
		m.eventBus,
	)
	if err != nil {
		m.cleanup()
		return err
	}
	m.lavalinkAdapter = lavalinkAdapter

	snapshots, err := m.newSnapshotStore()
	if err != nil {
		m.cleanup()
		return err
	}
	m.snapshots = snapshots

	notifier := infrastructure.NewNotifier(deps.Session)
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	m.users = infrastructure.NewDiscordUserInfoProvider(deps.Session)

	playerDeps := player.Deps{
		Resolver: lavalinkAdapter,
		Notifier: notifier,
		Limiter: infrastructure.NewGuildRateLimiter(
			m.config.PlaylistRateLimitTracks,
			m.config.PlaylistRateLimitWindow,
		),
		OnPlay:  player.AnnounceTrack(notifier),
		OnError: player.ReportError(notifier),
	}
	if m.config.SpotifyClientID != "" {
		playerDeps.Inspector = infrastructure.NewSpotifyPlaylistInspector(
			m.ctx,
			m.config.SpotifyClientID,
			m.config.SpotifyClientSecret,
		)
	}
	if m.config.YouTubeAPIKey != "" {
		descriptions, err := infrastructure.NewYouTubeDescriptionProvider(m.ctx, m.config.YouTubeAPIKey)
		if err != nil {
			slog.Warn("youtube descriptions disabled", "error", err)
		} else {
			playerDeps.Descriptions = descriptions
		}
	}

	m.players = player.NewRegistry(m.ctx, lavalinkAdapter, playerDeps, m.config.playerConfig())
	m.eventBus.Subscribe(m.players.HandleEvent)

	voiceChannel := player.NewVoiceChannelService(m.players, lavalinkAdapter, voiceState, notifier)

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		m.cleanup()
		return err
	}
	m.commandHandlers = discord.NewCommandHandlers(m.players, voiceChannel, voiceState)
	m.autocomplete = discord.NewAutocompleteHandler(m.players, lavalinkAdapter)
	m.eventHandlers = discord.NewEventHandlers(botID, voiceChannel)

	slog.Info("music module initialized",
		"lavalink", m.config.LavalinkAddress,
		"spotify", playerDeps.Inspector != nil,
		"youtube_descriptions", playerDeps.Descriptions != nil,
		"redis", m.redis != nil,
	)

	return nil
}

// newSnapshotStore connects to Redis when configured, falling back to memory.
func (m *MusicModule) newSnapshotStore() (ports.SnapshotStore, error) {
	if m.config.RedisAddr == "" {
		return infrastructure.NewMemorySnapshotStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     m.config.RedisAddr,
		Password: m.config.RedisPassword,
		DB:       m.config.RedisDB,
	})
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", m.config.RedisAddr, err)
	}
	m.redis = client
	return infrastructure.NewRedisSnapshotStore(client, m.config.SnapshotTTL), nil
}

// Start resumes the players saved by the previous shutdown. Voice joins need
// the gateway handlers, so this runs after registration and in the background.
func (m *MusicModule) Start() error {
	go func() {
		ctx, cancel := context.WithTimeout(m.ctx, restoreTimeout)
		defer cancel()

		restored, err := m.players.RestoreSnapshots(ctx, m.snapshots, m.lavalinkAdapter, m.users)
		if err != nil {
			slog.Error("failed to restore players", "error", err)
			return
		}
		if restored > 0 {
			slog.Info("restored players", "count", restored)
		}
	}()
	return nil
}

// Shutdown saves every active player and releases module resources.
func (m *MusicModule) Shutdown() error {
	if m.players != nil && m.snapshots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		saved, err := m.players.SaveSnapshots(ctx, m.snapshots)
		cancel()
		if err != nil {
			slog.Error("failed to save player snapshots", "error", err)
		}
		slog.Info("saved player snapshots",
			"count", saved,
			"players", m.players.Count(),
			"playing", m.players.PlayingCount(),
		)
	}

	m.cleanup()
	return nil
}

// cleanup stops background work and closes connections, in reverse order of creation.
func (m *MusicModule) cleanup() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
}

// Event handlers.

func (m *MusicModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

func (m *MusicModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}

func (m *MusicModule) handleInteractionCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete || m.autocomplete == nil {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "play", "playnext", "split":
		m.autocomplete.HandlePlay(s, i)
	case "skip":
		m.autocomplete.HandleSkipPosition(s, i)
	}
}
