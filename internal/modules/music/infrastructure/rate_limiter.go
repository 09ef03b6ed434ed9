package infrastructure

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
)

// GuildRateLimiter meters playlist loading per guild. Each guild gets a token
// bucket holding limit tracks that refills over window.
type GuildRateLimiter struct {
	limit  int
	every  rate.Limit
	now    func() time.Time
	mu     sync.Mutex
	guilds map[snowflake.ID]*rate.Limiter
}

// Ensure GuildRateLimiter implements ports.RateLimiter.
var _ ports.RateLimiter = (*GuildRateLimiter)(nil)

// NewGuildRateLimiter creates a limiter allowing limit tracks per window per guild.
// A non-positive limit disables limiting.
func NewGuildRateLimiter(limit int, window time.Duration) *GuildRateLimiter {
	every := rate.Inf
	if limit > 0 && window > 0 {
		every = rate.Limit(float64(limit) / window.Seconds())
	}
	return &GuildRateLimiter{
		limit:  limit,
		every:  every,
		now:    time.Now,
		guilds: make(map[snowflake.ID]*rate.Limiter),
	}
}

// Allow charges weight tracks to the guild's bucket. A weight above the bucket
// size is charged as a full bucket.
func (l *GuildRateLimiter) Allow(guildID snowflake.ID, weight int) bool {
	if l.limit <= 0 || weight <= 0 {
		return true
	}
	return l.limiter(guildID).AllowN(l.now(), min(weight, l.limit))
}

func (l *GuildRateLimiter) limiter(guildID snowflake.ID) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.guilds[guildID]
	if !ok {
		lim = rate.NewLimiter(l.every, l.limit)
		l.guilds[guildID] = lim
	}
	return lim
}
