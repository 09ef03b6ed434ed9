package bot

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
}

// LoadConfig loads configuration from environment variables, after applying
// a .env file from the working directory if one exists. Variables already set
// in the environment take precedence over the file.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn" or "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
