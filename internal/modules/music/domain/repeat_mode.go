package domain

// RepeatMode controls what the queue hands out once a track has been provided.
type RepeatMode int

const (
	RepeatOff    RepeatMode = iota // Default: consume the queue once
	RepeatSingle                   // Replay the last provided track indefinitely
	RepeatAll                      // Re-append each provided track to the back of the queue
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatSingle:
		return "single"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// ParseRepeatMode converts a string to domain.RepeatMode.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "single", "track":
		return RepeatSingle
	case "all", "queue":
		return RepeatAll
	default:
		return RepeatOff
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m RepeatMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RepeatMode) UnmarshalText(text []byte) error {
	*m = ParseRepeatMode(string(text))
	return nil
}
