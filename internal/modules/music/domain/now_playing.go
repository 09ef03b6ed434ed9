package domain

import "github.com/disgoorg/snowflake/v2"

// NowPlayingMessage stores the channel and message ID for a "Now Playing" message.
// Both values are needed for deletion since the text channel may change between tracks.
type NowPlayingMessage struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}
