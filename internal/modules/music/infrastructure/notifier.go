package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// Embed colors.
const (
	colorRed     = 0xE74C3C
	colorNeutral = 0x2B2D31
)

const (
	artworkProbeTimeout = 8 * time.Second
	// maxArtworkCache bounds the remembered artwork lookups; the cache is
	// reset when full.
	maxArtworkCache = 512
)

// youTubeQualities are tried best first.
var youTubeQualities = []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"}

// Notifier posts player announcements and loader replies to text channels.
type Notifier struct {
	session *discordgo.Session
	artwork *artworkResolver
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{
		session: session,
		artwork: newArtworkResolver(&http.Client{Timeout: 5 * time.Second}),
	}
}

// SendNowPlaying posts the now-playing embed and returns its message ID.
func (n *Notifier) SendNowPlaying(
	channelID snowflake.ID,
	info *ports.NowPlayingInfo,
) (snowflake.ID, error) {
	embed := nowPlayingEmbed(info)

	ctx, cancel := context.WithTimeout(context.Background(), artworkProbeTimeout)
	defer cancel()
	if url := n.artwork.resolve(ctx, info); url != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: url}
	}

	msg, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	if err != nil {
		return 0, fmt.Errorf("failed to send now playing: %w", err)
	}
	return snowflake.Parse(msg.ID)
}

func nowPlayingEmbed(info *ports.NowPlayingInfo) *discordgo.MessageEmbed {
	source := domain.ParseTrackSource(info.SourceName)

	length := info.Duration
	if info.IsStream {
		length = "🔴 LIVE"
	}

	return &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    "Now Playing",
			IconURL: source.IconURL(),
		},
		Title:     info.Title,
		URL:       info.URI,
		Color:     source.Color(),
		Timestamp: info.EnqueuedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: info.Artist, Inline: true},
			{Name: "Length", Value: length, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    "Requested by " + info.RequesterName,
			IconURL: info.RequesterAvatarURL,
		},
	}
}

// SendMessage posts a neutral reply.
func (n *Notifier) SendMessage(channelID snowflake.ID, message string) error {
	return n.send(channelID, message, colorNeutral)
}

// SendError posts an error reply.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	return n.send(channelID, message, colorRed)
}

func (n *Notifier) send(channelID snowflake.ID, message string, color int) error {
	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), &discordgo.MessageEmbed{
		Description: message,
		Color:       color,
	})
	return err
}

// DeleteMessage deletes a message from the channel.
func (n *Notifier) DeleteMessage(channelID snowflake.ID, messageID snowflake.ID) error {
	return n.session.ChannelMessageDelete(channelID.String(), messageID.String())
}

// artworkResolver finds the best artwork URL that actually exists and
// remembers the answer per track, so repeats do not probe again.
type artworkResolver struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]string
}

func newArtworkResolver(client *http.Client) *artworkResolver {
	return &artworkResolver{
		client: client,
		cache:  make(map[string]string),
	}
}

func (a *artworkResolver) resolve(ctx context.Context, info *ports.NowPlayingInfo) string {
	key := info.SourceName + ":" + info.Identifier

	a.mu.Lock()
	url, ok := a.cache[key]
	a.mu.Unlock()
	if ok {
		return url
	}

	url = info.ArtworkURL
	for _, candidate := range artworkCandidates(info) {
		if a.exists(ctx, candidate) {
			url = candidate
			break
		}
	}

	// Only remember answers that were not cut short.
	if ctx.Err() == nil {
		a.mu.Lock()
		if len(a.cache) >= maxArtworkCache {
			clear(a.cache)
		}
		a.cache[key] = url
		a.mu.Unlock()
	}
	return url
}

// artworkCandidates lists higher resolution alternatives to the reported
// artwork, best first. The reported artwork is the fallback and is not listed.
func artworkCandidates(info *ports.NowPlayingInfo) []string {
	switch domain.ParseTrackSource(info.SourceName) {
	case domain.TrackSourceYouTube:
		if info.Identifier == "" {
			return nil
		}
		candidates := make([]string, 0, len(youTubeQualities))
		for _, quality := range youTubeQualities {
			candidates = append(candidates,
				fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", info.Identifier, quality))
		}
		return candidates
	case domain.TrackSourceTwitch:
		upscaled := strings.Replace(info.ArtworkURL, "440x248", "1280x720", 1)
		if upscaled == info.ArtworkURL {
			return nil
		}
		return []string{upscaled}
	default:
		return nil
	}
}

func (a *artworkResolver) exists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
