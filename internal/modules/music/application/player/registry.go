package player

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// Registry owns the guild players. It is safe for concurrent use.
type Registry struct {
	ctx      context.Context
	sessions ports.SessionProvider
	deps     Deps
	cfg      Config

	mu      sync.RWMutex
	players map[snowflake.ID]*GuildPlayer
}

// NewRegistry creates an empty Registry. Players it creates inherit ctx.
func NewRegistry(ctx context.Context, sessions ports.SessionProvider, deps Deps, cfg Config) *Registry {
	return &Registry{
		ctx:      ctx,
		sessions: sessions,
		deps:     deps,
		cfg:      cfg,
		players:  make(map[snowflake.ID]*GuildPlayer),
	}
}

// Get returns the guild's player, or nil if none exists.
func (r *Registry) Get(guildID snowflake.ID) *GuildPlayer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players[guildID]
}

// GetOrCreate returns the guild's player, creating it if needed.
func (r *Registry) GetOrCreate(guildID snowflake.ID) *GuildPlayer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[guildID]; ok {
		return p
	}
	p := NewGuildPlayer(r.ctx, guildID, r.sessions.Session(guildID), r.deps, r.cfg)
	r.players[guildID] = p
	return p
}

// Destroy destroys and forgets the guild's player.
func (r *Registry) Destroy(ctx context.Context, guildID snowflake.ID) error {
	r.mu.Lock()
	p, ok := r.players[guildID]
	delete(r.players, guildID)
	r.mu.Unlock()

	if !ok {
		slog.Warn("attempted to destroy a player that does not exist", "guild", guildID)
		return nil
	}
	return p.Destroy(ctx)
}

// Players returns every live player.
func (r *Registry) Players() []*GuildPlayer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.players)
}

// Count returns the number of live players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// PlayingCount returns how many players are currently playing.
func (r *Registry) PlayingCount() int {
	return lo.CountBy(r.Players(), func(p *GuildPlayer) bool {
		return p.IsPlaying()
	})
}

// HandleEvent routes a playback session event to the guild's player.
func (r *Registry) HandleEvent(ctx context.Context, event domain.Event) {
	p := r.Get(event.EventGuildID())
	if p == nil {
		slog.Debug("dropping event for unknown player", "guild", event.EventGuildID())
		return
	}

	switch e := event.(type) {
	case domain.TrackStartedEvent:
		p.OnTrackStart(e.Encoded)
	case domain.TrackEndedEvent:
		p.OnTrackEnd(ctx, e.Encoded, e.Reason)
	case domain.TrackExceptionEvent:
		slog.Error("track exception",
			"guild", e.GuildID, "severity", e.Severity, "error", e.Message)
	case domain.TrackStuckEvent:
		slog.Error("track stuck", "guild", e.GuildID, "threshold", e.Threshold)
	default:
		slog.Warn("unhandled playback event", "guild", event.EventGuildID())
	}
}
