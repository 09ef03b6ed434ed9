package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sglre6355/sgrmusic/internal/bot"
	_ "github.com/sglre6355/sgrmusic/internal/modules/music"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/sgrmusic
var version = "dev"

func main() {
	cfg, err := bot.LoadConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// LoadConfig has already validated the level.
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("starting sgrmusic", "version", version, "log_level", level.String())

	b := bot.NewBot(cfg)
	b.LoadModules()

	if err := b.Start(); err != nil {
		slog.Error("failed to start bot", "error", err)
		_ = b.Stop()
		os.Exit(1)
	}

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		slog.Error("failed to shutdown", "error", err)
	}

	slog.Info("completed bot shutdown")
}
