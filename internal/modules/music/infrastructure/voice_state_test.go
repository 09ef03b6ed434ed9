package infrastructure

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

func newStateSession(t *testing.T) *discordgo.Session {
	t.Helper()

	state := discordgo.NewState()
	guild := &discordgo.Guild{
		ID: "1",
		VoiceStates: []*discordgo.VoiceState{
			{GuildID: "1", UserID: "10", ChannelID: "100"},
			{GuildID: "1", UserID: "11", ChannelID: "100"},
			{GuildID: "1", UserID: "12", ChannelID: "200"},
			{
				GuildID:   "1",
				UserID:    "99",
				ChannelID: "100",
				Member:    &discordgo.Member{User: &discordgo.User{ID: "99", Bot: true}},
			},
		},
	}
	if err := state.GuildAdd(guild); err != nil {
		t.Fatalf("failed to add guild: %v", err)
	}
	members := []*discordgo.Member{
		{GuildID: "1", Nick: "Ally", User: &discordgo.User{ID: "10", Username: "alice", GlobalName: "Alice"}},
		{GuildID: "1", User: &discordgo.User{ID: "11", Username: "bob", GlobalName: "Bobby"}},
		{GuildID: "1", User: &discordgo.User{ID: "12", Username: "carol"}},
	}
	for _, m := range members {
		if err := state.MemberAdd(m); err != nil {
			t.Fatalf("failed to add member: %v", err)
		}
	}
	return &discordgo.Session{State: state}
}

func TestVoiceStateProvider_GetUserVoiceChannel(t *testing.T) {
	provider := NewVoiceStateProvider(newStateSession(t))
	voiceChannel := snowflake.ID(200)

	tests := []struct {
		name   string
		userID snowflake.ID
		want   *snowflake.ID
	}{
		{name: "connected", userID: 12, want: &voiceChannel},
		{name: "not connected", userID: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.GetUserVoiceChannel(1, tt.userID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("expected channel %d, got %d", *tt.want, *got)
			}
		})
	}
}

func TestVoiceStateProvider_GetListenersSkipsBots(t *testing.T) {
	provider := NewVoiceStateProvider(newStateSession(t))

	listeners, err := provider.GetListeners(1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listeners) != 2 || listeners[0] != 10 || listeners[1] != 11 {
		t.Errorf("expected listeners [10 11], got %v", listeners)
	}
}

func TestVoiceStateProvider_UnknownGuild(t *testing.T) {
	provider := NewVoiceStateProvider(newStateSession(t))

	if _, err := provider.GetListeners(2, 100); err == nil {
		t.Error("expected error for unknown guild")
	}
}

func TestDiscordUserInfoProvider_DisplayName(t *testing.T) {
	provider := NewDiscordUserInfoProvider(newStateSession(t))

	tests := []struct {
		userID snowflake.ID
		want   string
	}{
		{userID: 10, want: "Ally"},
		{userID: 11, want: "Bobby"},
		{userID: 12, want: "carol"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			info, err := provider.GetUserInfo(1, tt.userID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.DisplayName != tt.want {
				t.Errorf("expected %q, got %q", tt.want, info.DisplayName)
			}
		})
	}
}
