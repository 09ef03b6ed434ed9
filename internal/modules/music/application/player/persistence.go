package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
)

// SaveSnapshots stores a snapshot of every player that has something to
// resume. It returns the number of players saved.
func (r *Registry) SaveSnapshots(ctx context.Context, store ports.SnapshotStore) (int, error) {
	var errs []error
	saved := 0
	for _, p := range r.Players() {
		if p.IsDestroyed() || p.PlayingTrack() == nil {
			continue
		}
		if err := store.Save(ctx, p.Snapshot()); err != nil {
			errs = append(errs, fmt.Errorf("guild %d: %w", p.GuildID(), err))
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// RestoreSnapshots rejoins the voice channel of every stored snapshot and
// resumes its player. Snapshots are deleted once consumed, restored or not.
// It returns the number of players restored.
func (r *Registry) RestoreSnapshots(
	ctx context.Context,
	store ports.SnapshotStore,
	voice ports.VoiceConnection,
	users ports.UserInfoProvider,
) (int, error) {
	guildIDs, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	restored := 0
	for _, guildID := range guildIDs {
		snap, err := store.Load(ctx, guildID)
		if err != nil {
			if !errors.Is(err, ports.ErrSnapshotNotFound) {
				slog.Warn("failed to load snapshot", "guild", guildID, "error", err)
			}
			continue
		}
		if err := store.Delete(ctx, guildID); err != nil {
			slog.Warn("failed to delete snapshot", "guild", guildID, "error", err)
		}
		if len(snap.Sources) == 0 {
			continue
		}

		if err := voice.JoinChannel(ctx, guildID, snap.VoiceChannelID); err != nil {
			slog.Warn("failed to rejoin voice channel",
				"guild", guildID, "channel", snap.VoiceChannelID, "error", err)
			continue
		}

		p := r.GetOrCreate(guildID)
		if err := p.Restore(ctx, snap, users); err != nil {
			slog.Error("failed to restore player", "guild", guildID, "error", err)
			_ = voice.LeaveChannel(ctx, guildID)
			_ = r.Destroy(ctx, guildID)
			continue
		}
		slog.Info("restored player", "guild", guildID, "tracks", len(snap.Sources))
		restored++
	}
	return restored, nil
}
