package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

const (
	// MaxVolume is the highest volume a player accepts.
	MaxVolume = 150

	// maxInflight bounds how many dispatched tracks await an end notification.
	maxInflight = 8

	// maxDispatchAttempts bounds how many entries are tried in a row while the
	// session refuses to play.
	maxDispatchAttempts = 3
)

// PlayHook is called when an announced track starts playing.
type PlayHook func(p *GuildPlayer, tc *domain.TrackContext)

// ErrorHook is called when playback of a track fails.
type ErrorHook func(p *GuildPlayer, err error)

// Config holds the tunables shared by every guild player.
type Config struct {
	HistorySize   int
	DefaultVolume int
	VoteCooldown  time.Duration
	Loader        LoaderConfig
}

// Deps are the collaborators shared by every guild player.
// Inspector, Limiter, Descriptions and the hooks are optional.
type Deps struct {
	Resolver     ports.TrackResolver
	Notifier     ports.NotificationSender
	Inspector    ports.PlaylistInspector
	Limiter      ports.RateLimiter
	Descriptions ports.DescriptionProvider
	OnPlay       PlayHook
	OnError      ErrorHook
}

// GuildPlayer drives playback for one guild: it pulls entries from its queue,
// dispatches them to the playback session and reacts to session notifications.
type GuildPlayer struct {
	ctx      context.Context
	guildID  snowflake.ID
	session  ports.PlaybackSession
	resolver ports.TrackResolver
	queue    *domain.Queue
	history  *domain.History
	votes    *domain.Ballot
	loader   *AudioLoader
	cfg      Config
	onPlay   PlayHook
	onError  ErrorHook

	mu              sync.Mutex
	current         *domain.TrackContext
	inflight        []*domain.TrackContext
	pendingAnnounce *domain.TrackContext
	paused          bool
	volume          int
	volumeSynced    bool
	destroyed       bool
	voiceChannelID  snowflake.ID
	textChannelID   snowflake.ID
	nowPlaying      *domain.NowPlayingMessage
}

// NewGuildPlayer creates a player bound to session. ctx outlives individual
// requests and is used for work the player starts on its own.
func NewGuildPlayer(
	ctx context.Context,
	guildID snowflake.ID,
	session ports.PlaybackSession,
	deps Deps,
	cfg Config,
) *GuildPlayer {
	p := &GuildPlayer{
		ctx:      ctx,
		guildID:  guildID,
		session:  session,
		resolver: deps.Resolver,
		queue:    domain.NewQueue(),
		history:  domain.NewHistory(cfg.HistorySize),
		votes:    domain.NewBallot(),
		cfg:      cfg,
		onPlay:   deps.OnPlay,
		onError:  deps.OnError,
		volume:   cfg.DefaultVolume,
	}
	p.loader = NewAudioLoader(ctx, p, deps, cfg.Loader)
	return p
}

// GuildID returns the guild this player belongs to.
func (p *GuildPlayer) GuildID() snowflake.ID { return p.guildID }

// Queue returns the player's track provider.
func (p *GuildPlayer) Queue() *domain.Queue { return p.queue }

// Loader returns the player's audio loader.
func (p *GuildPlayer) Loader() *AudioLoader { return p.loader }

// Votes returns the skip ballot for the playing track.
func (p *GuildPlayer) Votes() *domain.Ballot { return p.votes }

// Load submits an identifier for asynchronous resolution.
func (p *GuildPlayer) Load(req domain.LoadRequest) {
	p.loader.Submit(req)
}

// Play resumes playback if paused, and starts the next entry if nothing is current.
func (p *GuildPlayer) Play(ctx context.Context) error {
	return p.play(ctx, false)
}

func (p *GuildPlayer) play(ctx context.Context, silent bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrPlayerDestroyed
	}
	if p.paused {
		if err := p.session.SetPaused(ctx, false); err != nil {
			return fmt.Errorf("failed to resume: %w", err)
		}
		p.paused = false
	}
	if p.current == nil {
		return p.loadAndPlayLocked(ctx, silent)
	}
	return nil
}

// Enqueue adds entries to the queue, at the front for priority entries, and
// starts playback unless the player is paused.
func (p *GuildPlayer) Enqueue(ctx context.Context, tcs ...*domain.TrackContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrPlayerDestroyed
	}

	priority := lo.Filter(tcs, func(tc *domain.TrackContext, _ int) bool { return tc.IsPriority() })
	normal := lo.Filter(tcs, func(tc *domain.TrackContext, _ int) bool { return !tc.IsPriority() })
	if len(priority) > 0 {
		p.queue.AddAllFirst(priority)
	}
	if len(normal) > 0 {
		p.queue.AddAll(normal)
	}

	if p.paused || p.current != nil {
		return nil
	}
	return p.loadAndPlayLocked(ctx, false)
}

// Pause pauses playback.
func (p *GuildPlayer) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrPlayerDestroyed
	}
	if err := p.session.SetPaused(ctx, true); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	p.paused = true
	return nil
}

// Stop clears the queue and stops the current track.
func (p *GuildPlayer) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue.Clear()
	p.votes.Clear()
	return p.stopTrackLocked(ctx)
}

// Skip stops the current track so the next one plays. Repeat modes do not bring it back.
func (p *GuildPlayer) Skip(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNotPlaying
	}
	p.queue.Skipped()
	return p.stopTrackLocked(ctx)
}

// SeekTo moves playback to position, relative to the start of the current entry.
func (p *GuildPlayer) SeekTo(ctx context.Context, position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNotPlaying
	}
	if !p.current.Track().IsSeekable {
		return ErrNotSeekable
	}
	return p.session.Seek(ctx, p.current.StartPosition()+max(position, 0))
}

// SetVolume sets the playback volume.
func (p *GuildPlayer) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 || volume > MaxVolume {
		return ErrInvalidVolume
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.session.SetVolume(ctx, volume); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	p.volume = volume
	p.volumeSynced = true
	return nil
}

// Destroy stops playback and releases the session. Destroying twice only logs.
func (p *GuildPlayer) Destroy(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		slog.Warn("player already destroyed", "guild", p.guildID)
		return nil
	}
	p.destroyed = true

	p.queue.Clear()
	p.votes.Clear()
	p.current = nil
	p.inflight = nil
	p.pendingAnnounce = nil

	if err := p.session.Stop(ctx); err != nil {
		slog.Debug("failed to stop track while destroying player", "guild", p.guildID, "error", err)
	}
	if err := p.session.Destroy(ctx); err != nil {
		if errors.Is(err, ports.ErrSessionDestroyed) {
			slog.Warn("playback session already destroyed", "guild", p.guildID)
			return nil
		}
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// OnTrackStart handles the session's notification that a track started.
func (p *GuildPlayer) OnTrackStart(encoded string) {
	p.votes.Clear()

	p.mu.Lock()
	tc := p.pendingAnnounce
	if tc == nil || (encoded != "" && tc.Track().Encoded != encoded) {
		p.mu.Unlock()
		return
	}
	p.pendingAnnounce = nil
	p.mu.Unlock()

	if p.onPlay != nil {
		p.onPlay(p, tc)
	}
}

// OnTrackEnd handles the session's notification that a track ended.
func (p *GuildPlayer) OnTrackEnd(ctx context.Context, encoded string, reason domain.TrackEndReason) {
	p.mu.Lock()
	ended := p.takeInflightLocked(encoded)
	p.mu.Unlock()

	switch reason {
	case domain.TrackEndFinished, domain.TrackEndStopped:
		p.history.Push(ended)
		p.advance(ctx, ended, false)
	case domain.TrackEndLoadFailed:
		title := "unknown track"
		if ended != nil {
			title = ended.EffectiveTitle()
		}
		p.reportError(fmt.Errorf("%w: %s", ErrTrackLoadFailed, title))
		p.advance(ctx, ended, true)
	case domain.TrackEndCleanup:
		slog.Info("track cleaned up", "guild", p.guildID)
	default:
		slog.Warn("unexpected track end reason", "guild", p.guildID, "reason", reason)
	}
}

// advance pulls the next entry unless a newer dispatch already owns playback.
func (p *GuildPlayer) advance(ctx context.Context, ended *domain.TrackContext, skipped bool) {
	p.mu.Lock()
	if p.destroyed || (p.current != nil && p.current != ended) {
		p.mu.Unlock()
		return
	}
	if skipped {
		p.queue.Skipped()
	}
	p.current = nil
	err := p.loadAndPlayLocked(ctx, false)
	p.mu.Unlock()

	if err != nil {
		slog.Error("failed to play next track", "guild", p.guildID, "error", err)
		p.reportError(err)
	}
}

func (p *GuildPlayer) onBoundary(tc *domain.TrackContext, state domain.BoundaryState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != tc {
		slog.Debug("ignoring boundary of a track that is no longer playing",
			"guild", p.guildID, "track", tc.EffectiveTitle(), "state", state)
		return
	}
	if err := p.stopTrackLocked(p.ctx); err != nil {
		slog.Error("failed to stop track at boundary", "guild", p.guildID, "error", err)
	}
}

// loadAndPlayLocked dispatches the next entry. An entry the session refuses is
// dropped as skipped and the following one is tried.
func (p *GuildPlayer) loadAndPlayLocked(ctx context.Context, silent bool) error {
	var errs []error
	for range maxDispatchAttempts {
		tc := p.queue.ProvideNext()
		if tc == nil {
			break
		}
		err := p.playTrackLocked(ctx, tc, silent)
		if err == nil {
			break
		}
		errs = append(errs, err)
		p.queue.Skipped()
	}
	return errors.Join(errs...)
}

func (p *GuildPlayer) playTrackLocked(ctx context.Context, tc *domain.TrackContext, silent bool) error {
	if !p.volumeSynced && p.volume != 100 {
		if err := p.session.SetVolume(ctx, p.volume); err != nil {
			slog.Warn("failed to apply volume", "guild", p.guildID, "error", err)
		}
	}
	p.volumeSynced = true

	track := tc.Track()
	offset := max(track.Position(), tc.StartPosition())

	if err := p.session.Play(ctx, track, offset); err != nil {
		p.current = nil
		return fmt.Errorf("failed to dispatch %q: %w", tc.EffectiveTitle(), err)
	}

	p.current = tc
	track.SetPosition(tc.StartPosition())
	p.inflight = append(p.inflight, tc)
	if len(p.inflight) > maxInflight {
		p.inflight = p.inflight[len(p.inflight)-maxInflight:]
	}

	if slice, ok := tc.Slice(); ok {
		p.session.WatchBoundary(slice.End, func(state domain.BoundaryState) {
			p.onBoundary(tc, state)
		})
	}

	if silent {
		p.pendingAnnounce = nil
	} else {
		p.pendingAnnounce = tc
	}
	return nil
}

func (p *GuildPlayer) stopTrackLocked(ctx context.Context) error {
	p.current = nil
	p.pendingAnnounce = nil
	if err := p.session.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop track: %w", err)
	}
	return nil
}

// takeInflightLocked removes and returns the oldest dispatched entry matching encoded.
func (p *GuildPlayer) takeInflightLocked(encoded string) *domain.TrackContext {
	for i, tc := range p.inflight {
		if encoded == "" || tc.Track().Encoded == encoded {
			p.inflight = append(p.inflight[:i], p.inflight[i+1:]...)
			return tc
		}
	}
	return nil
}

func (p *GuildPlayer) reportError(err error) {
	if p.onError != nil {
		p.onError(p, err)
	}
}
