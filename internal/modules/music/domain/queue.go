package domain

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"
)

// Queue is the track provider of a guild player.
// Entries are kept in natural (insertion) order. While shuffle is on, a cached
// effective ordering is derived from each entry's rand key and rebuilt lazily
// after any mutation. A single mutex guards entries, cache and modes together.
type Queue struct {
	mu       sync.Mutex
	entries  []*TrackContext
	shuffled []*TrackContext
	dirty    bool
	shuffle  bool
	repeat   RepeatMode
	last     *TrackContext
}

// NewQueue creates a new empty Queue.
func NewQueue() *Queue {
	return &Queue{
		entries: make([]*TrackContext, 0),
		dirty:   true,
	}
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// IsEmpty returns true if nothing is queued.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// List returns a copy of the entries in natural order.
func (q *Queue) List() []*TrackContext {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.entries)
}

// Ordered returns a copy of the entries in effective (play) order.
func (q *Queue) Ordered() []*TrackContext {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.orderedLocked())
}

// Add appends an entry.
func (q *Queue) Add(tc *TrackContext) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, tc)
	q.dirty = true
}

// AddAll appends entries, preserving their order.
func (q *Queue) AddAll(tcs []*TrackContext) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, tcs...)
	q.dirty = true
}

// AddFirst places an entry at the head of the queue. Its shuffle key is set to
// the minimum so it also sorts first while shuffled.
func (q *Queue) AddFirst(tc *TrackContext) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.addFirstLocked(tc)
}

// AddAllFirst places entries at the head of the queue, keeping their relative order.
func (q *Queue) AddAllFirst(tcs []*TrackContext) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(tcs) - 1; i >= 0; i-- {
		q.addFirstLocked(tcs[i])
	}
}

func (q *Queue) addFirstLocked(tc *TrackContext) {
	tc.setRand(math.MinInt32)
	q.entries = slices.Insert(q.entries, 0, tc)
	q.dirty = true
}

// Clear removes every entry and forgets the last provided track.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = q.entries[:0:0]
	q.last = nil
	q.dirty = true
}

// Remove deletes the given entry. Returns false if it was not queued.
func (q *Queue) Remove(tc *TrackContext) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(tc)
}

// RemoveAll deletes every given entry that is queued and returns how many were removed.
func (q *Queue) RemoveAll(tcs []*TrackContext) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, tc := range tcs {
		if q.removeLocked(tc) {
			n++
		}
	}
	return n
}

// RemoveByIDs deletes every entry whose ID is in ids and returns how many were removed.
func (q *Queue) RemoveByIDs(ids []TrackContextID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	before := len(q.entries)
	q.entries = slices.DeleteFunc(q.entries, func(tc *TrackContext) bool {
		return slices.Contains(ids, tc.ID())
	})
	removed := before - len(q.entries)
	if removed > 0 {
		q.dirty = true
	}
	return removed
}

func (q *Queue) removeLocked(tc *TrackContext) bool {
	i := slices.Index(q.entries, tc)
	if i < 0 {
		return false
	}
	q.entries = slices.Delete(q.entries, i, i+1)
	q.dirty = true
	return true
}

// Peek returns the entry ProvideNext would hand out, without consuming it.
func (q *Queue) Peek() *TrackContext {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.repeat == RepeatSingle && q.last != nil {
		return q.last
	}
	if ordered := q.orderedLocked(); len(ordered) > 0 {
		return ordered[0]
	}
	if q.repeat == RepeatAll && q.last != nil {
		return q.last
	}
	return nil
}

// ProvideNext returns the next entry to play, or nil if there is none.
//   - RepeatSingle: a clone of the last provided entry, the queue is untouched
//   - RepeatAll: the last provided entry is re-appended as a non-priority clone
//     before the head is consumed
//   - otherwise the head of the effective order is consumed
func (q *Queue) ProvideNext() *TrackContext {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.repeat == RepeatSingle && q.last != nil {
		return q.last.Clone()
	}

	if q.repeat == RepeatAll && q.last != nil {
		clone := q.last.Clone()
		clone.SetPriority(false)
		if q.shuffle {
			clone.setRand(math.MaxInt32)
		}
		q.entries = append(q.entries, clone)
		q.dirty = true
	}

	ordered := q.orderedLocked()
	if len(ordered) == 0 {
		q.last = nil
		return nil
	}

	next := ordered[0]
	q.removeLocked(next)
	q.last = next
	return next
}

// Skipped forgets the last provided entry so repeat modes do not bring it back.
func (q *Queue) Skipped() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.last = nil
}

// LastProvided returns the most recently provided entry.
func (q *Queue) LastProvided() *TrackContext {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last
}

// IsShuffle reports whether shuffle is on.
func (q *Queue) IsShuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuffle
}

// SetShuffle toggles shuffle. Turning it on clears every priority flag.
func (q *Queue) SetShuffle(shuffle bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shuffle = shuffle
	if shuffle {
		for _, tc := range q.entries {
			tc.SetPriority(false)
		}
	}
	q.dirty = true
}

// Reshuffle draws new shuffle keys for every entry and clears priority flags.
func (q *Queue) Reshuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, tc := range q.entries {
		tc.SetPriority(false)
		tc.Randomize()
	}
	q.dirty = true
}

// RepeatMode returns the current repeat mode.
func (q *Queue) RepeatMode() RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.repeat
}

// SetRepeatMode sets the repeat mode.
func (q *Queue) SetRepeatMode(mode RepeatMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = mode
}

// At returns the entry at index in effective order, or nil if out of range.
func (q *Queue) At(index int) *TrackContext {
	q.mu.Lock()
	defer q.mu.Unlock()
	ordered := q.orderedLocked()
	if index < 0 || index >= len(ordered) {
		return nil
	}
	return ordered[index]
}

// Range returns entries [start, end) in effective order. start is floored at
// zero, end at start, and both are capped at the queue length.
func (q *Queue) Range(start, end int) []*TrackContext {
	q.mu.Lock()
	defer q.mu.Unlock()
	ordered := q.orderedLocked()

	start = min(max(start, 0), len(ordered))
	end = min(max(end, start), len(ordered))
	return slices.Clone(ordered[start:end])
}

// Duration sums the effective durations of all non-stream entries.
func (q *Queue) Duration() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return lo.SumBy(q.entries, func(tc *TrackContext) time.Duration {
		if tc.Track().IsStream {
			return 0
		}
		return tc.EffectiveDuration()
	})
}

// StreamsCount returns how many queued entries are live streams.
func (q *Queue) StreamsCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return lo.CountBy(q.entries, func(tc *TrackContext) bool {
		return tc.Track().IsStream
	})
}

// IsUserOwner reports whether every queued entry whose ID is in ids was requested by userID.
func (q *Queue) IsUserOwner(userID snowflake.ID, ids []TrackContextID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, tc := range q.entries {
		if slices.Contains(ids, tc.ID()) && tc.RequesterID() != userID {
			return false
		}
	}
	return true
}

// orderedLocked returns the effective order. Callers must hold q.mu and must
// not modify the returned slice.
func (q *Queue) orderedLocked() []*TrackContext {
	if !q.shuffle {
		return q.entries
	}
	if !q.dirty {
		return q.shuffled
	}

	ordered := slices.Clone(q.entries)
	slices.SortStableFunc(ordered, func(a, b *TrackContext) int {
		if a.IsPriority() != b.IsPriority() {
			if a.IsPriority() {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Rand(), b.Rand())
	})

	// Respace keys evenly so later inserts at MinInt32/MaxInt32 land at the ends.
	n := len(ordered)
	for i, tc := range ordered {
		if tc.IsPriority() {
			tc.setRand(math.MinInt32)
			continue
		}
		tc.setRand(spacedRand(i, n))
	}

	q.shuffled = ordered
	q.dirty = false
	return ordered
}

func spacedRand(i, n int) int32 {
	step := 1.0 / float64(n+1)
	return int32(math.Round((float64(i)*step + step) * math.MaxInt32))
}
