package infrastructure

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// MemorySnapshotStore is an in-memory implementation of ports.SnapshotStore.
// Snapshots only survive a module restart, not a process restart.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[snowflake.ID]domain.PlayerSnapshot
}

// Ensure MemorySnapshotStore implements ports.SnapshotStore.
var _ ports.SnapshotStore = (*MemorySnapshotStore)(nil)

// NewMemorySnapshotStore creates a new MemorySnapshotStore.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		snapshots: make(map[snowflake.ID]domain.PlayerSnapshot),
	}
}

// Save stores a copy of the snapshot.
func (s *MemorySnapshotStore) Save(_ context.Context, snapshot *domain.PlayerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *snapshot
	stored.Sources = append([]domain.SnapshotSource(nil), snapshot.Sources...)
	s.snapshots[snapshot.GuildID] = stored
	return nil
}

// Load returns the snapshot of a guild, or ports.ErrSnapshotNotFound.
func (s *MemorySnapshotStore) Load(_ context.Context, guildID snowflake.ID) (*domain.PlayerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[guildID]
	if !ok {
		return nil, ports.ErrSnapshotNotFound
	}
	return &snapshot, nil
}

// Delete removes the snapshot of a guild.
func (s *MemorySnapshotStore) Delete(_ context.Context, guildID snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, guildID)
	return nil
}

// List returns the guilds that have a snapshot stored.
func (s *MemorySnapshotStore) List(_ context.Context) ([]snowflake.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Keys(s.snapshots), nil
}
