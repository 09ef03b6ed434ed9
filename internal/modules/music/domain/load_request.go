package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// LoadRequest asks the loader to resolve an identifier into queue entries.
type LoadRequest struct {
	Identifier string
	Requester  Requester
	ChannelID  snowflake.ID // Where replies go

	Priority bool // Queue at the front
	Quiet    bool // Suppress the reply for single tracks
	Split    bool // Expand the track into one entry per chapter

	Position time.Duration // Playback offset for the resolved track
}
