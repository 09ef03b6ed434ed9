package player

import "errors"

// Errors returned by player operations.
var (
	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrNotSeekable is returned when seeking within a track that does not support it.
	ErrNotSeekable = errors.New("the current track cannot be seeked")

	// ErrPlayerDestroyed is returned when operating on a destroyed player.
	ErrPlayerDestroyed = errors.New("player has been destroyed")

	// ErrInvalidVolume is returned for volumes outside the supported range.
	ErrInvalidVolume = errors.New("volume must be between 0 and 150")

	// ErrTrackLoadFailed is reported when the session could not load a dispatched track.
	ErrTrackLoadFailed = errors.New("track failed to load, skipping")

	// ErrVoteCooldown is returned when a skip vote arrives too soon after the last one.
	ErrVoteCooldown = errors.New("please wait a moment before voting again")
)

// Errors returned by voice channel operations.
var (
	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNotConnected is returned when the bot is not connected to a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")
)
