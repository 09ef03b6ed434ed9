package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

const (
	snapshotKeyPrefix = "sgrmusic:snapshot:"
	snapshotIndexKey  = "sgrmusic:snapshots"
)

// RedisSnapshotStore keeps player snapshots as JSON values, with a set of
// guild IDs as the index.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// Ensure RedisSnapshotStore implements ports.SnapshotStore.
var _ ports.SnapshotStore = (*RedisSnapshotStore)(nil)

// NewRedisSnapshotStore creates a store on client. Snapshots expire after ttl;
// zero keeps them until deleted.
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func snapshotKey(guildID snowflake.ID) string {
	return snapshotKeyPrefix + guildID.String()
}

// Save stores the snapshot, replacing any previous one of the guild.
func (s *RedisSnapshotStore) Save(ctx context.Context, snapshot *domain.PlayerSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, snapshotKey(snapshot.GuildID), data, s.ttl)
		pipe.SAdd(ctx, snapshotIndexKey, snapshot.GuildID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot of a guild, or ports.ErrSnapshotNotFound.
func (s *RedisSnapshotStore) Load(ctx context.Context, guildID snowflake.ID) (*domain.PlayerSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(guildID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot domain.PlayerSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// Delete removes the snapshot of a guild.
func (s *RedisSnapshotStore) Delete(ctx context.Context, guildID snowflake.ID) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, snapshotKey(guildID))
		pipe.SRem(ctx, snapshotIndexKey, guildID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the guilds that have a snapshot stored.
func (s *RedisSnapshotStore) List(ctx context.Context) ([]snowflake.ID, error) {
	members, err := s.client.SMembers(ctx, snapshotIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	guildIDs := make([]snowflake.ID, 0, len(members))
	for _, member := range members {
		guildID, err := snowflake.Parse(member)
		if err != nil {
			return nil, fmt.Errorf("invalid guild ID %q in snapshot index: %w", member, err)
		}
		guildIDs = append(guildIDs, guildID)
	}
	return guildIDs, nil
}
