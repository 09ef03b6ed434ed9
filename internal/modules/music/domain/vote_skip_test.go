package domain

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func TestBallot_Vote(t *testing.T) {
	b := NewBallot()
	now := time.Now()
	listeners := []snowflake.ID{1, 2, 3, 4}

	if !b.Vote(1, now, 2*time.Second) {
		t.Fatal("expected first vote to count")
	}
	if b.Vote(2, now.Add(time.Second), 2*time.Second) {
		t.Error("expected vote within cooldown to be rejected")
	}
	if !b.Vote(2, now.Add(3*time.Second), 2*time.Second) {
		t.Error("expected vote after cooldown to count")
	}
	if got := b.Count(listeners); got != 2 {
		t.Errorf("expected 2 votes, got %d", got)
	}

	b.Retract(1)
	if got := b.Count(listeners); got != 1 {
		t.Errorf("expected 1 vote after retract, got %d", got)
	}
	if got := b.Count([]snowflake.ID{1, 3}); got != 0 {
		t.Errorf("expected votes of absent listeners to be ignored, got %d", got)
	}

	b.Clear()
	if got := b.Count(listeners); got != 0 {
		t.Errorf("expected no votes after clear, got %d", got)
	}
}

func TestVotesNeeded(t *testing.T) {
	tests := []struct {
		listeners int
		expected  int
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 2},
		{5, 3},
	}

	for _, tt := range tests {
		if got := VotesNeeded(tt.listeners); got != tt.expected {
			t.Errorf("VotesNeeded(%d): expected %d, got %d", tt.listeners, tt.expected, got)
		}
	}
}
