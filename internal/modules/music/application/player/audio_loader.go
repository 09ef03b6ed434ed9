package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// maxSplitListing caps the length of the chapter list sent after a split.
const maxSplitListing = 1800

// LoaderConfig holds the loader's limits.
type LoaderConfig struct {
	// TrackLimit rejects requests once the player holds this many entries.
	TrackLimit int
	// AnnounceThreshold is the playlist size above which loading is announced.
	AnnounceThreshold int
}

// loadTarget is the player the loader feeds.
type loadTarget interface {
	GuildID() snowflake.ID
	TrackCount() int
	IsPlaying() bool
	IsDestroyed() bool
	Enqueue(ctx context.Context, tcs ...*domain.TrackContext) error
}

// AudioLoader resolves load requests one at a time, in submission order.
// Submit never blocks on resolution: the first request starts a worker that
// drains the pending list and exits once it is empty.
type AudioLoader struct {
	ctx          context.Context
	target       loadTarget
	resolver     ports.TrackResolver
	notifier     ports.NotificationSender
	inspector    ports.PlaylistInspector
	limiter      ports.RateLimiter
	descriptions ports.DescriptionProvider
	cfg          LoaderConfig

	mu      sync.Mutex
	pending []domain.LoadRequest
	loading bool
	wg      sync.WaitGroup
}

// NewAudioLoader creates a loader feeding target.
func NewAudioLoader(ctx context.Context, target loadTarget, deps Deps, cfg LoaderConfig) *AudioLoader {
	return &AudioLoader{
		ctx:          ctx,
		target:       target,
		resolver:     deps.Resolver,
		notifier:     deps.Notifier,
		inspector:    deps.Inspector,
		limiter:      deps.Limiter,
		descriptions: deps.Descriptions,
		cfg:          cfg,
	}
}

// Submit queues a request for resolution.
func (l *AudioLoader) Submit(req domain.LoadRequest) {
	l.mu.Lock()
	l.pending = append(l.pending, req)
	if l.loading {
		l.mu.Unlock()
		return
	}
	l.loading = true
	l.wg.Add(1)
	l.mu.Unlock()

	go l.drain()
}

// IsLoading reports whether a request is being resolved.
func (l *AudioLoader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Pending returns the number of requests waiting behind the current one.
func (l *AudioLoader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Wait blocks until every submitted request has been handled.
func (l *AudioLoader) Wait() {
	l.wg.Wait()
}

func (l *AudioLoader) drain() {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		if len(l.pending) == 0 {
			l.loading = false
			l.mu.Unlock()
			return
		}
		req := l.pending[0]
		l.pending = l.pending[1:]
		l.mu.Unlock()

		l.process(req)
	}
}

func (l *AudioLoader) process(req domain.LoadRequest) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while loading track",
				"guild", l.target.GuildID(), "identifier", req.Identifier, "panic", r)
			l.replyError(req, "Something went wrong while loading that. Please try again.")
		}
	}()

	if l.target.IsDestroyed() {
		slog.Debug("dropping load request for destroyed player",
			"guild", l.target.GuildID(), "identifier", req.Identifier)
		return
	}
	if !l.admit(req) {
		return
	}
	if l.cfg.TrackLimit > 0 && l.target.TrackCount() >= l.cfg.TrackLimit {
		l.replyError(req, fmt.Sprintf("You can't add tracks to a queue with more than %d tracks!", l.cfg.TrackLimit))
		return
	}

	result, err := l.resolver.LoadTracks(l.ctx, req.Identifier)
	if err != nil {
		l.loadFailed(req, err)
		return
	}

	switch result.Type {
	case ports.LoadTypeTrack, ports.LoadTypeSearch:
		if len(result.Tracks) == 0 {
			l.replyError(req, fmt.Sprintf("No results for `%s`.", req.Identifier))
			return
		}
		l.trackLoaded(req, result.Tracks[0])
	case ports.LoadTypePlaylist:
		l.playlistLoaded(req, result)
	case ports.LoadTypeEmpty:
		l.replyError(req, fmt.Sprintf("No results for `%s`.", req.Identifier))
	case ports.LoadTypeError:
		failure := result.Failure
		if failure == nil {
			failure = &ports.LoadFailure{Severity: ports.SeverityFault, Message: "unknown error"}
		}
		l.loadFailed(req, failure)
	default:
		slog.Warn("unexpected load result type",
			"guild", l.target.GuildID(), "identifier", req.Identifier, "type", result.Type)
		l.replyError(req, fmt.Sprintf("No results for `%s`.", req.Identifier))
	}
}

// admit applies the slow playlist gate. Returns false if the request was rejected.
func (l *AudioLoader) admit(req domain.LoadRequest) bool {
	if l.inspector == nil {
		return true
	}

	info, err := l.inspector.Inspect(l.ctx, req.Identifier)
	if err != nil {
		slog.Warn("failed to inspect playlist", "guild", l.target.GuildID(), "error", err)
		return true
	}
	if info == nil {
		return true
	}

	if l.limiter != nil && !l.limiter.Allow(l.target.GuildID(), info.TotalTracks) {
		l.replyError(req, "You are loading playlists too quickly. Please wait a moment and try again.")
		return false
	}
	if info.TotalTracks > l.cfg.AnnounceThreshold {
		l.reply(req, fmt.Sprintf(
			"Loading playlist **%s** with `%d` tracks. This may take a while, please be patient.",
			info.Name, info.TotalTracks,
		))
	}
	return true
}

func (l *AudioLoader) trackLoaded(req domain.LoadRequest, track *domain.Track) {
	if req.Split {
		l.splitLoaded(req, track)
		return
	}

	wasPlaying := l.target.IsPlaying()
	track.SetPosition(req.Position)
	tc := domain.NewTrackContext(track, req.Requester, req.Priority)

	if err := l.target.Enqueue(l.ctx, tc); err != nil {
		l.enqueueFailed(req, err)
		return
	}

	if req.Quiet {
		return
	}
	switch {
	case !wasPlaying:
		l.reply(req, fmt.Sprintf("**%s** will now play.", tc.EffectiveTitle()))
	case req.Priority:
		l.reply(req, fmt.Sprintf("**%s** has been added to the front of the queue.", tc.EffectiveTitle()))
	default:
		l.reply(req, fmt.Sprintf("**%s** has been added to the queue.", tc.EffectiveTitle()))
	}
}

func (l *AudioLoader) playlistLoaded(req domain.LoadRequest, result *ports.LoadResult) {
	if req.Split {
		l.replyError(req, "Playlists can't be split, only single videos.")
		return
	}

	contexts := make([]*domain.TrackContext, 0, len(result.Tracks))
	for _, track := range result.Tracks {
		contexts = append(contexts, domain.NewTrackContext(track, req.Requester, req.Priority))
	}
	if len(contexts) == 0 {
		l.replyError(req, fmt.Sprintf("Playlist **%s** is empty.", result.PlaylistName))
		return
	}

	if err := l.target.Enqueue(l.ctx, contexts...); err != nil {
		l.enqueueFailed(req, err)
		return
	}
	l.reply(req, fmt.Sprintf("Found and added `%d` songs from playlist **%s**.", len(contexts), result.PlaylistName))
}

func (l *AudioLoader) splitLoaded(req domain.LoadRequest, track *domain.Track) {
	if !track.Source().SupportsSplit() || l.descriptions == nil {
		l.replyError(req, "Only YouTube videos can be split.")
		return
	}

	description, err := l.descriptions.Description(l.ctx, track)
	if err != nil {
		slog.Error("failed to fetch track description",
			"guild", l.target.GuildID(), "track", track.Identifier, "error", err)
		l.replyError(req, "Couldn't fetch the video description to split it.")
		return
	}

	contexts, err := domain.NewSplitTrackContexts(track, req.Requester, domain.ParseChapters(description))
	if errors.Is(err, domain.ErrNotSplittable) {
		l.replyError(req, "Couldn't find enough timestamps in the description to split this video.")
		return
	}
	if err != nil {
		l.loadFailed(req, err)
		return
	}
	for _, tc := range contexts {
		tc.SetPriority(req.Priority)
	}

	if err := l.target.Enqueue(l.ctx, contexts...); err != nil {
		l.enqueueFailed(req, err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The following tracks were added:\n")
	for _, tc := range contexts {
		fmt.Fprintf(&b, "`[%s]` **%s**\n", domain.FormatDuration(tc.EffectiveDuration()), tc.EffectiveTitle())
	}
	if b.Len() > maxSplitListing {
		l.reply(req, fmt.Sprintf("Added `%d` tracks from **%s**.", len(contexts), track.Title))
		return
	}
	l.reply(req, b.String())
}

func (l *AudioLoader) loadFailed(req domain.LoadRequest, err error) {
	var failure *ports.LoadFailure
	if errors.As(err, &failure) && failure.Severity == ports.SeverityCommon {
		l.replyError(req, fmt.Sprintf("Error occurred when loading info for `%s`: %s", req.Identifier, failure.Message))
		return
	}

	slog.Error("error while loading track",
		"guild", l.target.GuildID(), "identifier", req.Identifier, "error", err)
	l.replyError(req, fmt.Sprintf("Suspicious error when loading info for `%s`.", req.Identifier))
}

func (l *AudioLoader) enqueueFailed(req domain.LoadRequest, err error) {
	slog.Error("failed to enqueue loaded tracks",
		"guild", l.target.GuildID(), "identifier", req.Identifier, "error", err)
	l.replyError(req, "Loaded the track, but couldn't start playing it.")
}

func (l *AudioLoader) reply(req domain.LoadRequest, message string) {
	if l.notifier == nil || req.ChannelID == 0 {
		return
	}
	if err := l.notifier.SendMessage(req.ChannelID, message); err != nil {
		slog.Warn("failed to send load reply", "guild", l.target.GuildID(), "error", err)
	}
}

func (l *AudioLoader) replyError(req domain.LoadRequest, message string) {
	if l.notifier == nil || req.ChannelID == 0 {
		return
	}
	if err := l.notifier.SendError(req.ChannelID, message); err != nil {
		slog.Warn("failed to send load error", "guild", l.target.GuildID(), "error", err)
	}
}
