package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the music module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "join",
			Description: "Join a voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Voice channel to join (defaults to your current channel)",
					Required:    false,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildVoice,
						discordgo.ChannelTypeGuildStageVoice,
					},
				},
			},
		},
		{
			Name:        "leave",
			Description: "Leave the voice channel and clear the queue",
		},
		{
			Name:        "play",
			Description: "Play a track from URL or search",
			Options: []*discordgo.ApplicationCommandOption{
				queryOption(),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "start",
					Description: "Timestamp to start from, e.g. 1:30",
					Required:    false,
				},
			},
		},
		{
			Name:        "playnext",
			Description: "Add a track to the front of the queue",
			Options:     []*discordgo.ApplicationCommandOption{queryOption()},
		},
		{
			Name:        "split",
			Description: "Split a YouTube video into its chapters and queue them",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "YouTube URL or search term",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "next",
					Description: "Play the chapters before the rest of the queue",
					Required:    false,
				},
			},
		},
		{
			Name:        "skip",
			Description: "Skip the current track or a range of queued tracks",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionInteger,
					Name:         "from",
					Description:  "First position to skip (1 is the current track)",
					Required:     false,
					MinValue:     floatPtr(1),
					Autocomplete: true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionInteger,
					Name:         "to",
					Description:  "Last position to skip (defaults to from)",
					Required:     false,
					MinValue:     floatPtr(1),
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "voteskip",
			Description: "Vote to skip the current track",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "queue",
			Description: "Show the queue",
			Options:     []*discordgo.ApplicationCommandOption{pageOption()},
		},
		{
			Name:        "history",
			Description: "Show recently played tracks",
			Options:     []*discordgo.ApplicationCommandOption{pageOption()},
		},
		{
			Name:        "nowplaying",
			Description: "Show the current track",
		},
		{
			Name:        "shuffle",
			Description: "Toggle shuffle (or set it explicitly)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Whether shuffle should be on",
					Required:    false,
				},
			},
		},
		{
			Name:        "reshuffle",
			Description: "Draw a new shuffled order",
		},
		{
			Name:        "repeat",
			Description: "Set the repeat mode",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Repeat mode to set",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Off", Value: "off"},
						{Name: "Single", Value: "single"},
						{Name: "All", Value: "all"},
					},
				},
			},
		},
		{
			Name:        "seek",
			Description: "Jump to a position in the current track",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "position",
					Description: "Timestamp, e.g. 1:30 or 1:02:03",
					Required:    true,
				},
			},
		},
		{
			Name:        "volume",
			Description: "Set the playback volume",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume from 0 to 150",
					Required:    true,
					MinValue:    floatPtr(0),
					MaxValue:    150,
				},
			},
		},
	}
}

func queryOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "query",
		Description:  "URL or search term",
		Required:     true,
		Autocomplete: true,
	}
}

func pageOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "page",
		Description: "Page number",
		Required:    false,
		MinValue:    floatPtr(1),
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
