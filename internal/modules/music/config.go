package music

import (
	"fmt"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/player"
)

// Config holds the music module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE"   envDefault:"false"`

	QueueTrackLimit      int           `env:"QUEUE_TRACK_LIMIT"      envDefault:"10000"`
	HistorySize          int           `env:"HISTORY_SIZE"           envDefault:"20"`
	DefaultVolume        int           `env:"DEFAULT_VOLUME"         envDefault:"100"`
	VoteSkipCooldown     time.Duration `env:"VOTE_SKIP_COOLDOWN"     envDefault:"2s"`
	BoundaryPollInterval time.Duration `env:"BOUNDARY_POLL_INTERVAL" envDefault:"250ms"`

	SlowPlaylistAnnounceThreshold int           `env:"SLOW_PLAYLIST_ANNOUNCE_THRESHOLD" envDefault:"50"`
	PlaylistRateLimitTracks       int           `env:"PLAYLIST_RATE_LIMIT_TRACKS"       envDefault:"1000"`
	PlaylistRateLimitWindow       time.Duration `env:"PLAYLIST_RATE_LIMIT_WINDOW"       envDefault:"2m"`

	// Optional; playlists are not inspected before loading without them.
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`

	// Optional; split falls back to the description Lavalink reports.
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`

	// Snapshots go to Redis when RedisAddr is set, otherwise they live in memory.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"     envDefault:"0"`
	SnapshotTTL   time.Duration `env:"SNAPSHOT_TTL" envDefault:"24h"`
}

// Validate checks value ranges env.Parse cannot express.
func (c *Config) Validate() error {
	switch {
	case c.QueueTrackLimit <= 0:
		return fmt.Errorf("QUEUE_TRACK_LIMIT must be positive, got %d", c.QueueTrackLimit)
	case c.HistorySize < 0:
		return fmt.Errorf("HISTORY_SIZE must not be negative, got %d", c.HistorySize)
	case c.DefaultVolume < 0 || c.DefaultVolume > player.MaxVolume:
		return fmt.Errorf("DEFAULT_VOLUME must be between 0 and %d, got %d", player.MaxVolume, c.DefaultVolume)
	case c.BoundaryPollInterval <= 0:
		return fmt.Errorf("BOUNDARY_POLL_INTERVAL must be positive, got %s", c.BoundaryPollInterval)
	case c.PlaylistRateLimitTracks <= 0 || c.PlaylistRateLimitWindow <= 0:
		return fmt.Errorf("playlist rate limit must be positive, got %d per %s",
			c.PlaylistRateLimitTracks, c.PlaylistRateLimitWindow)
	case (c.SpotifyClientID == "") != (c.SpotifyClientSecret == ""):
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}
	return nil
}

// playerConfig converts the module configuration into player settings.
func (c *Config) playerConfig() player.Config {
	return player.Config{
		HistorySize:   c.HistorySize,
		DefaultVolume: c.DefaultVolume,
		VoteCooldown:  c.VoteSkipCooldown,
		Loader: player.LoaderConfig{
			TrackLimit:        c.QueueTrackLimit,
			AnnounceThreshold: c.SlowPlaylistAnnounceThreshold,
		},
	}
}
