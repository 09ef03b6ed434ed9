package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	chapterLinePattern = regexp.MustCompile(`(.*?)[( \[]*((?:\d?\d:)?\d?\d:\d\d)[) \]]*(.*)`)
	timestampPattern   = regexp.MustCompile(`^(\d?\d)(?::([0-5]?\d))?(?::([0-5]?\d))?$`)
)

// Chapter is a timestamped title found in a track description.
type Chapter struct {
	Start time.Duration
	Title string
}

// ParseChapters extracts "timestamp title" pairs from free text, one per line.
// The title is whichever side of the timestamp holds more text.
func ParseChapters(description string) []Chapter {
	var chapters []Chapter
	for _, m := range chapterLinePattern.FindAllStringSubmatch(description, -1) {
		start, err := ParseTimestamp(m[2])
		if err != nil {
			continue
		}
		title := m[1]
		if len(m[3]) > len(title) {
			title = m[3]
		}
		chapters = append(chapters, Chapter{
			Start: start,
			Title: strings.Trim(title, " \t-–—:|"),
		})
	}
	return chapters
}

// ParseTimestamp parses "ss", "mm:ss" or "hh:mm:ss".
func ParseTimestamp(s string) (time.Duration, error) {
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, ErrInvalidTimestamp
	}

	var parts []int
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			return 0, ErrInvalidTimestamp
		}
		parts = append(parts, n)
	}

	var total time.Duration
	for _, p := range parts {
		total = total*60 + time.Duration(p)
	}
	return total * time.Second, nil
}

// NewSplitTrackContexts turns a track into one split entry per chapter. Each
// slice ends where the next begins, and the last ends with the track.
func NewSplitTrackContexts(
	track *Track,
	requester Requester,
	chapters []Chapter,
) ([]*TrackContext, error) {
	if len(chapters) < 2 {
		return nil, ErrNotSplittable
	}

	contexts := make([]*TrackContext, 0, len(chapters))
	for i, ch := range chapters {
		end := track.Duration
		if i+1 < len(chapters) {
			end = chapters[i+1].Start
		}
		if ch.Start >= end || ch.Start >= track.Duration {
			return nil, ErrNotSplittable
		}
		contexts = append(contexts, NewSplitTrackContext(track.Clone(), requester, ch.Start, end, ch.Title))
	}
	return contexts, nil
}
