package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// ErrVideoNotFound is returned when the YouTube API has no video for the identifier.
var ErrVideoNotFound = errors.New("video not found")

// YouTubeDescriptionProvider fetches video descriptions from the YouTube Data API.
type YouTubeDescriptionProvider struct {
	service *youtube.Service
}

// Ensure YouTubeDescriptionProvider implements ports.DescriptionProvider.
var _ ports.DescriptionProvider = (*YouTubeDescriptionProvider)(nil)

// NewYouTubeDescriptionProvider creates a provider authenticated by API key.
// Extra client options are appended after the key.
func NewYouTubeDescriptionProvider(
	ctx context.Context,
	apiKey string,
	opts ...option.ClientOption,
) (*YouTubeDescriptionProvider, error) {
	service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &YouTubeDescriptionProvider{service: service}, nil
}

// Description returns the description of the track's video.
func (p *YouTubeDescriptionProvider) Description(ctx context.Context, track *domain.Track) (string, error) {
	resp, err := p.service.Videos.List([]string{"snippet"}).
		Id(track.Identifier).
		Fields("items(id,snippet/description)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch video %s: %w", track.Identifier, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, track.Identifier)
	}
	return resp.Items[0].Snippet.Description, nil
}
