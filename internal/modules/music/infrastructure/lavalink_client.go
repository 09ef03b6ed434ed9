package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// defaultPollInterval is used when LavalinkConfig.PollInterval is unset.
const defaultPollInterval = 250 * time.Millisecond

// ErrNoNode is returned when no Lavalink node is available.
var ErrNoNode = errors.New("no available Lavalink node")

// pendingVoiceConnection tracks the state of a pending voice connection.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

// onEvent marks an event as received and signals ready if both events are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds one guild's VoiceStateUpdate and VoiceServerUpdate
// until both have arrived, so Lavalink never sees a partial voice state.
type voiceEventBuffer struct {
	mu sync.Mutex

	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

// setVoiceServer stores voice server data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// drain returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) drain() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID, sessionID, token, endpoint = b.channelID, b.sessionID, b.token, b.endpoint
	*b = voiceEventBuffer{}
	return
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
	// PollInterval is how often split boundaries are checked against the player position.
	PollInterval time.Duration
}

// LavalinkAdapter wraps DisGoLink to resolve tracks, drive per-guild playback
// sessions and join voice channels. Player events are translated to domain
// events and handed to the publisher.
type LavalinkAdapter struct {
	link         disgolink.Client
	session      *discordgo.Session
	botID        snowflake.ID
	publisher    ports.EventPublisher
	pollInterval time.Duration

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	sessionsMu sync.Mutex
	sessions   map[snowflake.ID]*lavalinkSession
}

// Compile-time checks that LavalinkAdapter implements ports interfaces.
var (
	_ ports.TrackResolver   = (*LavalinkAdapter)(nil)
	_ ports.SessionProvider = (*LavalinkAdapter)(nil)
	_ ports.VoiceConnection = (*LavalinkAdapter)(nil)
)

// NewLavalinkAdapter connects to the configured Lavalink node.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
	publisher ports.EventPublisher,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		publisher:    publisher,
		pollInterval: pollInterval,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		sessions:     make(map[snowflake.ID]*lavalinkSession),
	}

	adapter.link = disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)

	node, err := adapter.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// Close disconnects from every Lavalink node.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// JoinChannel connects to a voice channel.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	pending := &pendingVoiceConnection{
		ready: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// LeaveChannel disconnects from the voice channel.
func (c *LavalinkAdapter) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// LoadTracks resolves an identifier on the best available node.
func (c *LavalinkAdapter) LoadTracks(ctx context.Context, identifier string) (*ports.LoadResult, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, ErrNoNode
	}

	result, err := node.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	return convertLoadResult(result), nil
}

// DecodeTrack rebuilds a track from its encoded form.
func (c *LavalinkAdapter) DecodeTrack(ctx context.Context, encoded string) (*domain.Track, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, ErrNoNode
	}

	track, err := node.DecodeTrack(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}
	return convertTrack(*track), nil
}

func convertLoadResult(result *lavalink.LoadResult) *ports.LoadResult {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return &ports.LoadResult{
			Type:   ports.LoadTypeTrack,
			Tracks: []*domain.Track{convertTrack(data)},
		}

	case lavalink.Playlist:
		tracks := make([]*domain.Track, len(data.Tracks))
		for i, track := range data.Tracks {
			tracks[i] = convertTrack(track)
		}
		return &ports.LoadResult{
			Type:         ports.LoadTypePlaylist,
			Tracks:       tracks,
			PlaylistName: data.Info.Name,
		}

	case lavalink.Search:
		tracks := make([]*domain.Track, len(data))
		for i, track := range data {
			tracks[i] = convertTrack(track)
		}
		return &ports.LoadResult{
			Type:   ports.LoadTypeSearch,
			Tracks: tracks,
		}

	case lavalink.Exception:
		return &ports.LoadResult{
			Type: ports.LoadTypeError,
			Failure: &ports.LoadFailure{
				Severity: convertSeverity(data.Severity),
				Message:  data.Message,
				Cause:    data.Cause,
			},
		}

	default:
		return &ports.LoadResult{
			Type: ports.LoadTypeEmpty,
		}
	}
}

func convertTrack(track lavalink.Track) *domain.Track {
	info := track.Info
	return &domain.Track{
		Identifier: info.Identifier,
		Encoded:    track.Encoded,
		Title:      info.Title,
		Artist:     info.Author,
		Duration:   toDuration(info.Length),
		URI:        derefString(info.URI),
		ArtworkURL: derefString(info.ArtworkURL),
		SourceName: info.SourceName,
		IsStream:   info.IsStream,
		IsSeekable: !info.IsStream,
	}
}

func convertSeverity(severity lavalink.Severity) ports.Severity {
	switch severity {
	case lavalink.SeverityCommon:
		return ports.SeverityCommon
	case lavalink.SeveritySuspicious:
		return ports.SeveritySuspicious
	default:
		return ports.SeverityFault
	}
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}

func toDuration(d lavalink.Duration) time.Duration {
	return time.Duration(d) * time.Millisecond
}

func toLavalinkDuration(d time.Duration) lavalink.Duration {
	return lavalink.Duration(d.Milliseconds())
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Session returns the playback session of a guild, creating it on first use.
func (c *LavalinkAdapter) Session(guildID snowflake.ID) ports.PlaybackSession {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()

	s, ok := c.sessions[guildID]
	if !ok {
		s = &lavalinkSession{adapter: c, guildID: guildID}
		c.sessions[guildID] = s
	}
	return s
}

func (c *LavalinkAdapter) forgetSession(s *lavalinkSession) {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	if c.sessions[s.guildID] == s {
		delete(c.sessions, s.guildID)
	}
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := c.voiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		c.forwardVoiceEvents(guildID, buffer)
	}

	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(false)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates of the bot itself.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// Disconnects are forwarded right away; there is no server update to wait for.
	if channelID == nil {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.clearVoiceBuffer(guildID)
		return
	}

	buffer := c.voiceBuffer(guildID)
	if buffer.setVoiceState(channelID, event.SessionID) {
		c.forwardVoiceEvents(guildID, buffer)
	}

	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(true)
	}
}

func (c *LavalinkAdapter) voiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, exists := c.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (c *LavalinkAdapter) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
}

func (c *LavalinkAdapter) forwardVoiceEvents(guildID snowflake.ID, buffer *voiceEventBuffer) {
	channelID, sessionID, token, endpoint := buffer.drain()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (c *LavalinkAdapter) publish(event domain.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish playback event",
			"guild", event.EventGuildID(), "type", fmt.Sprintf("%T", event), "error", err)
	}
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
	c.publish(domain.TrackStartedEvent{
		GuildID: player.GuildID(),
		Encoded: event.Track.Encoded,
	})
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)
	c.publish(domain.TrackEndedEvent{
		GuildID: player.GuildID(),
		Encoded: event.Track.Encoded,
		Reason:  convertEndReason(event.Reason),
	})
}

func (c *LavalinkAdapter) onTrackException(player disgolink.Player, event lavalink.TrackExceptionEvent) {
	c.publish(domain.TrackExceptionEvent{
		GuildID:  player.GuildID(),
		Encoded:  event.Track.Encoded,
		Message:  event.Exception.Message,
		Severity: string(event.Exception.Severity),
	})
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	c.publish(domain.TrackStuckEvent{
		GuildID:   player.GuildID(),
		Encoded:   event.Track.Encoded,
		Threshold: toDuration(event.Threshold),
	})
}

// lavalinkSession drives the Lavalink player of one guild.
type lavalinkSession struct {
	adapter *LavalinkAdapter
	guildID snowflake.ID

	mu        sync.Mutex
	stopWatch context.CancelFunc
	destroyed bool

	head playhead
}

var _ ports.PlaybackSession = (*lavalinkSession)(nil)

func (s *lavalinkSession) player() (disgolink.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, ports.ErrSessionDestroyed
	}
	return s.adapter.link.Player(s.guildID), nil
}

func (s *lavalinkSession) update(ctx context.Context, action string, opts ...lavalink.PlayerUpdateOpt) error {
	player, err := s.player()
	if err != nil {
		return err
	}
	if err := player.Update(ctx, opts...); err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return nil
}

// cancelWatchLocked stops the pending boundary watch, if any. Callers must hold s.mu.
func (s *lavalinkSession) cancelWatchLocked() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}

func (s *lavalinkSession) Play(ctx context.Context, track *domain.Track, start time.Duration) error {
	s.mu.Lock()
	s.cancelWatchLocked()
	s.mu.Unlock()

	opts := []lavalink.PlayerUpdateOpt{lavalink.WithEncodedTrack(track.Encoded)}
	if start > 0 {
		opts = append(opts, lavalink.WithPosition(toLavalinkDuration(start)))
	}
	if err := s.update(ctx, "play track", opts...); err != nil {
		return err
	}
	s.head.set(start, s.reportedState(), time.Now())
	return nil
}

func (s *lavalinkSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.cancelWatchLocked()
	s.mu.Unlock()

	return s.update(ctx, "stop playback", lavalink.WithNullTrack())
}

func (s *lavalinkSession) SetPaused(ctx context.Context, paused bool) error {
	if err := s.update(ctx, "set paused", lavalink.WithPaused(paused)); err != nil {
		return err
	}
	s.head.setPaused(paused, s.reportedState(), time.Now())
	return nil
}

func (s *lavalinkSession) SetVolume(ctx context.Context, volume int) error {
	return s.update(ctx, "set volume", lavalink.WithVolume(volume))
}

func (s *lavalinkSession) Seek(ctx context.Context, position time.Duration) error {
	if err := s.update(ctx, "seek", lavalink.WithPosition(toLavalinkDuration(position))); err != nil {
		return err
	}
	s.head.set(position, s.reportedState(), time.Now())
	return nil
}

// Position estimates the playback position. The state disgolink keeps is only
// refreshed by player updates, so it lags behind every dispatch and seek.
func (s *lavalinkSession) Position() time.Duration {
	return s.head.position(s.reportedState(), time.Now())
}

// reportedState returns the last player update received from Lavalink.
func (s *lavalinkSession) reportedState() lavalink.PlayerState {
	if player := s.adapter.link.ExistingPlayer(s.guildID); player != nil {
		return player.State()
	}
	return lavalink.PlayerState{}
}

func (s *lavalinkSession) WatchBoundary(at time.Duration, onBoundary func(domain.BoundaryState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelWatchLocked()
	if s.destroyed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatch = cancel
	go watchBoundary(ctx, s.adapter.pollInterval, at, s.Position, onBoundary)
}

func (s *lavalinkSession) Destroy(ctx context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ports.ErrSessionDestroyed
	}
	s.destroyed = true
	s.cancelWatchLocked()
	s.mu.Unlock()

	s.adapter.forgetSession(s)

	if player := s.adapter.link.ExistingPlayer(s.guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			return fmt.Errorf("failed to destroy player: %w", err)
		}
	}
	return nil
}
