package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// PlayerSnapshot is the persisted state of a guild player.
type PlayerSnapshot struct {
	GuildID        snowflake.ID     `json:"guild_id"`
	VoiceChannelID snowflake.ID     `json:"vc"`
	TextChannelID  snowflake.ID     `json:"tc"`
	Paused         bool             `json:"is_paused"`
	Volume         int              `json:"volume"`
	RepeatMode     RepeatMode       `json:"repeat_mode"`
	Shuffle        bool             `json:"shuffle"`
	PositionMillis *int64           `json:"position,omitempty"`
	Sources        []SnapshotSource `json:"sources"`
}

// SnapshotSource is one persisted entry; the playing one comes first.
type SnapshotSource struct {
	Encoded     string         `json:"message"`
	RequesterID snowflake.ID   `json:"user"`
	Split       *SnapshotSplit `json:"split,omitempty"`
}

// SnapshotSplit persists the bounds of a split entry.
type SnapshotSplit struct {
	Title       string `json:"title"`
	StartMillis int64  `json:"start_pos"`
	EndMillis   int64  `json:"end_pos"`
}
