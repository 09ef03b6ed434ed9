package infrastructure

import (
	"context"
	"fmt"
	"regexp"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
)

// spotifyPlaylistPattern matches playlist links and URIs and captures the playlist ID.
var spotifyPlaylistPattern = regexp.MustCompile(
	`^(?:https?://open\.spotify\.com/(?:intl-[a-z]{2}/)?playlist/|spotify:playlist:)([A-Za-z0-9]{22})`,
)

// SpotifyPlaylistInspector looks up the size of Spotify playlists before they
// are loaded, so large ones can be announced and metered.
type SpotifyPlaylistInspector struct {
	client *spotify.Client
}

// Ensure SpotifyPlaylistInspector implements ports.PlaylistInspector.
var _ ports.PlaylistInspector = (*SpotifyPlaylistInspector)(nil)

// NewSpotifyPlaylistInspector authenticates with the client credentials flow.
func NewSpotifyPlaylistInspector(ctx context.Context, clientID, clientSecret string) *SpotifyPlaylistInspector {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return &SpotifyPlaylistInspector{client: spotify.New(config.Client(ctx))}
}

// Inspect returns the name and size of a Spotify playlist, or nil if identifier
// is not a Spotify playlist.
func (i *SpotifyPlaylistInspector) Inspect(ctx context.Context, identifier string) (*ports.PlaylistInfo, error) {
	id, ok := spotifyPlaylistID(identifier)
	if !ok {
		return nil, nil
	}

	playlist, err := i.client.GetPlaylist(ctx, id, spotify.Fields("name,tracks.total"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spotify playlist %s: %w", id, err)
	}

	return &ports.PlaylistInfo{
		Name:        playlist.Name,
		TotalTracks: int(playlist.Tracks.Total),
	}, nil
}

func spotifyPlaylistID(identifier string) (spotify.ID, bool) {
	m := spotifyPlaylistPattern.FindStringSubmatch(identifier)
	if m == nil {
		return "", false
	}
	return spotify.ID(m[1]), true
}
