package domain

import (
	"math"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Ballot collects skip votes for the playing track of one player.
type Ballot struct {
	mu       sync.Mutex
	voters   map[snowflake.ID]struct{}
	lastVote time.Time
}

// NewBallot creates an empty Ballot.
func NewBallot() *Ballot {
	return &Ballot{voters: make(map[snowflake.ID]struct{})}
}

// Vote records a vote unless a previous vote happened within cooldown.
// Returns false if the vote was rejected for cooldown.
func (b *Ballot) Vote(userID snowflake.ID, now time.Time, cooldown time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.lastVote.IsZero() && now.Sub(b.lastVote) < cooldown {
		return false
	}
	b.lastVote = now
	b.voters[userID] = struct{}{}
	return true
}

// Retract removes a user's vote.
func (b *Ballot) Retract(userID snowflake.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.voters, userID)
}

// Count returns how many of the given listeners have voted.
func (b *Ballot) Count(listeners []snowflake.ID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, id := range listeners {
		if _, ok := b.voters[id]; ok {
			n++
		}
	}
	return n
}

// Clear discards all votes.
func (b *Ballot) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.voters)
	b.lastVote = time.Time{}
}

// SkipThreshold is the fraction of listeners needed to skip. Small rooms need
// everyone to agree.
func SkipThreshold(listeners int) float64 {
	if listeners < 3 {
		return 1.0
	}
	return 0.5
}

// VotesNeeded returns how many votes skip the track in a room of listeners.
func VotesNeeded(listeners int) int {
	return int(math.Ceil(float64(listeners) * SkipThreshold(listeners)))
}
