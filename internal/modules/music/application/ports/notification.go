package ports

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// NowPlayingInfo contains information for the "Now Playing" notification.
type NowPlayingInfo struct {
	Identifier         string // Unique identifier (e.g., YouTube video ID)
	Title              string
	Artist             string
	Duration           string
	URI                string
	ArtworkURL         string
	SourceName         string // e.g., "youtube", "spotify", "soundcloud"
	IsStream           bool
	RequesterID        snowflake.ID
	RequesterName      string
	RequesterAvatarURL string
	EnqueuedAt         time.Time
}

// NotificationSender defines the interface for sending notifications to Discord channels.
type NotificationSender interface {
	// SendNowPlaying sends a "Now Playing" embed to the channel and returns the message ID.
	SendNowPlaying(channelID snowflake.ID, info *NowPlayingInfo) (messageID snowflake.ID, err error)

	// SendMessage sends a plain reply to the channel.
	SendMessage(channelID snowflake.ID, message string) error

	// SendError sends an error message embed to the channel.
	SendError(channelID snowflake.ID, message string) error

	// DeleteMessage deletes a message from the channel.
	DeleteMessage(channelID snowflake.ID, messageID snowflake.ID) error
}
