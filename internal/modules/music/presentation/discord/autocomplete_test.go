package discord

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

func TestAutocomplete_PlayChoices(t *testing.T) {
	f := newHandlerFixture()
	f.resolver.results["ytsearch:never gonna"] = &ports.LoadResult{
		Type:   ports.LoadTypeSearch,
		Tracks: []*domain.Track{testTrack("a"), testTrack("b")},
	}
	f.resolver.results["ytsearch:mix"] = &ports.LoadResult{
		Type:         ports.LoadTypePlaylist,
		PlaylistName: "Mix",
		Tracks:       []*domain.Track{testTrack("a"), testTrack("b"), testTrack("c")},
	}

	tests := []struct {
		name       string
		query      string
		wantNames  []string
		wantValues []string
	}{
		{name: "short query", query: "n"},
		{name: "url", query: "https://youtu.be/abc"},
		{name: "no results", query: "nothing"},
		{
			name:       "search results",
			query:      "never gonna",
			wantNames:  []string{"🎵 Track a - Artist", "🎵 Track b - Artist"},
			wantValues: []string{"https://www.youtube.com/watch?v=a", "https://www.youtube.com/watch?v=b"},
		},
		{
			name:       "playlist",
			query:      "mix",
			wantNames:  []string{"📋 Mix (3 tracks)"},
			wantValues: []string{"mix"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			choices := f.autocomplete.playChoices(context.Background(), tt.query)

			if len(choices) != len(tt.wantNames) {
				t.Fatalf("expected %d choices, got %d", len(tt.wantNames), len(choices))
			}
			for i, choice := range choices {
				if choice.Name != tt.wantNames[i] {
					t.Errorf("choice %d: expected name %q, got %q", i, tt.wantNames[i], choice.Name)
				}
				if choice.Value != tt.wantValues[i] {
					t.Errorf("choice %d: expected value %q, got %v", i, tt.wantValues[i], choice.Value)
				}
			}
		})
	}
}

func TestAutocomplete_PositionChoices(t *testing.T) {
	f := newHandlerFixture()

	if choices := f.autocomplete.positionChoices(testGuildID); len(choices) != 0 {
		t.Errorf("expected no choices without a player, got %d", len(choices))
	}

	f.playing(testEntry("a", testUserID), testEntry("b", testUserID))
	choices := f.autocomplete.positionChoices(testGuildID)

	want := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "1. Track a", Value: 1},
		{Name: "2. Track b", Value: 2},
	}
	if len(choices) != len(want) {
		t.Fatalf("expected %d choices, got %d", len(want), len(choices))
	}
	for i := range want {
		if choices[i].Name != want[i].Name || choices[i].Value != want[i].Value {
			t.Errorf("choice %d: expected %+v, got %+v", i, want[i], choices[i])
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	got := truncate(strings.Repeat("あ", 120), 100)
	if n := len([]rune(got)); n != 100 {
		t.Errorf("expected 100 runes, got %d", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
}
