package player

import (
	"context"
	"slices"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// SkipTracks removes the given entries from the queue and, if one of them is
// current, skips it last. Returns how many entries were skipped.
func (p *GuildPlayer) SkipTracks(ctx context.Context, ids []domain.TrackContextID) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	skipCurrent := p.current != nil && slices.Contains(ids, p.current.ID())
	queued := ids
	if skipCurrent {
		queued = lo.Without(ids, p.current.ID())
	}

	n := p.queue.RemoveByIDs(queued)
	if !skipCurrent {
		return n, nil
	}

	p.queue.Skipped()
	if err := p.stopTrackLocked(ctx); err != nil {
		return n, err
	}
	return n + 1, nil
}

// CanMemberSkip reports whether userID may skip every entry in ids.
// DJs may always skip.
func (p *GuildPlayer) CanMemberSkip(userID snowflake.ID, isDJ bool, ids []domain.TrackContextID) bool {
	if isDJ {
		return true
	}

	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	if current != nil && slices.Contains(ids, current.ID()) && current.RequesterID() != userID {
		return false
	}
	return p.queue.IsUserOwner(userID, ids)
}

// VoteResult reports the outcome of a skip vote.
type VoteResult struct {
	Votes   int
	Needed  int
	Skipped bool
}

// VoteSkip records userID's vote against the current track and skips it once
// enough of listeners agree.
func (p *GuildPlayer) VoteSkip(
	ctx context.Context,
	userID snowflake.ID,
	listeners []snowflake.ID,
	now time.Time,
) (*VoteResult, error) {
	if p.Current() == nil {
		return nil, ErrNotPlaying
	}
	if !p.votes.Vote(userID, now, p.cfg.VoteCooldown) {
		return nil, ErrVoteCooldown
	}

	result := &VoteResult{
		Votes:  p.votes.Count(listeners),
		Needed: domain.VotesNeeded(len(listeners)),
	}
	if result.Votes < result.Needed {
		return result, nil
	}

	if err := p.Skip(ctx); err != nil {
		return nil, err
	}
	p.votes.Clear()
	result.Skipped = true
	return result, nil
}
