package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"45", 45 * time.Second, false},
		{"1:30", 90 * time.Second, false},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second, false},
		{"1:75", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimestamp) {
					t.Errorf("expected ErrInvalidTimestamp, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseChapters(t *testing.T) {
	description := "Tracklist:\n" +
		"0:00 Intro\n" +
		"(1:30) Verse - the long one\n" +
		"Bridge [3:00]\n" +
		"no timestamp here\n"

	chapters := ParseChapters(description)

	expected := []Chapter{
		{Start: 0, Title: "Intro"},
		{Start: 90 * time.Second, Title: "Verse - the long one"},
		{Start: 3 * time.Minute, Title: "Bridge"},
	}
	if len(chapters) != len(expected) {
		t.Fatalf("expected %d chapters, got %d: %v", len(expected), len(chapters), chapters)
	}
	for i, want := range expected {
		if chapters[i] != want {
			t.Errorf("chapter %d: expected %+v, got %+v", i, want, chapters[i])
		}
	}
}

func TestNewSplitTrackContexts(t *testing.T) {
	track := testTrack(1)
	track.Duration = 4 * time.Minute
	chapters := ParseChapters("0:00 A\n1:30 B\n3:00 C")

	contexts, err := NewSplitTrackContexts(track, Requester{UserID: 9}, chapters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []struct {
		title      string
		start, end time.Duration
	}{
		{"A", 0, 90 * time.Second},
		{"B", 90 * time.Second, 3 * time.Minute},
		{"C", 3 * time.Minute, 4 * time.Minute},
	}
	if len(contexts) != len(expected) {
		t.Fatalf("expected %d contexts, got %d", len(expected), len(contexts))
	}

	var total time.Duration
	for i, want := range expected {
		tc := contexts[i]
		slice, ok := tc.Slice()
		if !ok {
			t.Fatalf("context %d: expected split", i)
		}
		if slice.Title != want.title || slice.Start != want.start || slice.End != want.end {
			t.Errorf("context %d: expected %+v, got %+v", i, want, slice)
		}
		if tc.Track().Position() != want.start {
			t.Errorf("context %d: expected cursor %v, got %v", i, want.start, tc.Track().Position())
		}
		if tc.RequesterID() != 9 {
			t.Errorf("context %d: expected requester 9", i)
		}
		total += tc.EffectiveDuration()
	}
	if total != track.Duration {
		t.Errorf("expected slices to cover %v, got %v", track.Duration, total)
	}
}

func TestNewSplitTrackContexts_TooFewChapters(t *testing.T) {
	track := testTrack(1)

	tests := []struct {
		name     string
		chapters []Chapter
	}{
		{"none", nil},
		{"one", []Chapter{{Start: 0, Title: "only"}}},
		{"past the end", []Chapter{{Start: 0, Title: "a"}, {Start: time.Hour, Title: "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitTrackContexts(track, Requester{}, tt.chapters)
			if !errors.Is(err, ErrNotSplittable) {
				t.Errorf("expected ErrNotSplittable, got %v", err)
			}
		})
	}
}
