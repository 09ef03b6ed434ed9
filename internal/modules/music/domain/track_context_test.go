package domain

import (
	"testing"
	"time"
)

func TestNewTrackContext(t *testing.T) {
	track := testTrack(1)
	requester := Requester{UserID: 42, DisplayName: "alice"}

	tc := NewTrackContext(track, requester, true)

	if tc.Track() != track {
		t.Error("expected context to wrap the given track")
	}
	if tc.RequesterID() != 42 {
		t.Errorf("expected requester 42, got %d", tc.RequesterID())
	}
	if !tc.IsPriority() {
		t.Error("expected priority flag to be set")
	}
	if tc.ID() < 0 {
		t.Errorf("expected non-negative ID, got %d", tc.ID())
	}
	if tc.Rand() < 0 {
		t.Errorf("expected non-negative rand, got %d", tc.Rand())
	}
	if tc.IsSplit() {
		t.Error("expected whole-track context")
	}
	if tc.EffectiveDuration() != track.Duration {
		t.Errorf("expected %v, got %v", track.Duration, tc.EffectiveDuration())
	}
	if tc.AddedAt().IsZero() {
		t.Error("expected AddedAt to be set")
	}
}

func TestNewSplitTrackContext(t *testing.T) {
	track := testTrack(1)
	track.Duration = 10 * time.Minute

	tc := NewSplitTrackContext(track, Requester{}, 2*time.Minute, 5*time.Minute, "Chapter")

	if !tc.IsSplit() {
		t.Fatal("expected split context")
	}
	if tc.EffectiveTitle() != "Chapter" {
		t.Errorf("expected title 'Chapter', got %q", tc.EffectiveTitle())
	}
	if tc.EffectiveDuration() != 3*time.Minute {
		t.Errorf("expected 3m, got %v", tc.EffectiveDuration())
	}
	if tc.StartPosition() != 2*time.Minute {
		t.Errorf("expected start 2m, got %v", tc.StartPosition())
	}
	if track.Position() != 2*time.Minute {
		t.Errorf("expected cursor at 2m, got %v", track.Position())
	}
	if got := tc.EffectivePosition(3 * time.Minute); got != time.Minute {
		t.Errorf("expected effective position 1m, got %v", got)
	}
	if got := tc.EffectivePosition(time.Minute); got != 0 {
		t.Errorf("expected effective position floored at 0, got %v", got)
	}
}

func TestTrackContext_Clone(t *testing.T) {
	tests := []struct {
		name          string
		ctx           func() *TrackContext
		expectedStart time.Duration
	}{
		{
			name: "whole track",
			ctx: func() *TrackContext {
				tc := NewTrackContext(testTrack(1), Requester{UserID: 7}, true)
				tc.Track().SetPosition(time.Minute)
				return tc
			},
			expectedStart: 0,
		},
		{
			name: "split track",
			ctx: func() *TrackContext {
				track := testTrack(1)
				track.Duration = 10 * time.Minute
				tc := NewSplitTrackContext(track, Requester{UserID: 7}, 4*time.Minute, 6*time.Minute, "part")
				track.SetPosition(5 * time.Minute)
				return tc
			},
			expectedStart: 4 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.ctx()
			clone := original.Clone()

			if clone == original || clone.Track() == original.Track() {
				t.Fatal("expected a new context over a new track")
			}
			if clone.ID() != original.ID() {
				t.Error("expected clone to keep the ID")
			}
			if clone.RequesterID() != original.RequesterID() {
				t.Error("expected clone to keep the requester")
			}
			if clone.IsPriority() != original.IsPriority() {
				t.Error("expected clone to keep the priority flag")
			}
			if clone.Track().Position() != tt.expectedStart {
				t.Errorf("expected cursor at %v, got %v", tt.expectedStart, clone.Track().Position())
			}
			if clone.EffectiveTitle() != original.EffectiveTitle() {
				t.Errorf("expected title %q, got %q", original.EffectiveTitle(), clone.EffectiveTitle())
			}
			if clone.EffectiveDuration() != original.EffectiveDuration() {
				t.Errorf("expected duration %v, got %v", original.EffectiveDuration(), clone.EffectiveDuration())
			}
		})
	}
}

func TestTrack_FormattedDuration(t *testing.T) {
	tests := []struct {
		name     string
		track    *Track
		expected string
	}{
		{"seconds", &Track{Duration: 45 * time.Second}, "00:45"},
		{"minutes", &Track{Duration: 3*time.Minute + 5*time.Second}, "03:05"},
		{"hours", &Track{Duration: time.Hour + 2*time.Minute + 3*time.Second}, "01:02:03"},
		{"stream", &Track{IsStream: true, Duration: time.Hour}, "LIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.FormattedDuration(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestTrack_IsValid(t *testing.T) {
	if (&Track{Title: "x"}).IsValid() {
		t.Error("expected track without encoded data to be invalid")
	}
	if !testTrack(1).IsValid() {
		t.Error("expected test track to be valid")
	}
}
