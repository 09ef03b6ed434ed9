package domain

import (
	"slices"
	"sync"
)

// History is a bounded record of finished entries. The oldest entry is evicted
// once capacity is reached.
type History struct {
	mu       sync.Mutex
	entries  []*TrackContext
	capacity int
}

// NewHistory creates an empty History holding at most capacity entries.
func NewHistory(capacity int) *History {
	return &History{
		entries:  make([]*TrackContext, 0, capacity),
		capacity: capacity,
	}
}

// Push records a finished entry.
func (h *History) Push(tc *TrackContext) {
	if tc == nil || h.capacity <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) >= h.capacity {
		h.entries = slices.Delete(h.entries, 0, len(h.entries)-h.capacity+1)
	}
	h.entries = append(h.entries, tc)
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Range returns entries [start, end) counted from the most recent one.
// Bounds are clamped to the recorded entries.
func (h *History) Range(start, end int) []*TrackContext {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	start = min(max(start, 0), n)
	end = min(max(end, start), n)

	result := make([]*TrackContext, 0, end-start)
	for i := start; i < end; i++ {
		result = append(result, h.entries[n-1-i])
	}
	return result
}

// Clear forgets every recorded entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
}
