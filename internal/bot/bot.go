package bot

import (
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config   *Config
	session  *discordgo.Session
	modules  []Module
	handlers map[string]InteractionHandler
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: make(map[string]InteractionHandler),
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start loads module configuration, connects to Discord, initializes the
// modules and registers their commands.
func (b *Bot) Start() error {
	if err := b.loadModuleConfigs(); err != nil {
		return fmt.Errorf("failed to load module configuration: %w", err)
	}

	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	b.session = session

	// Modules need the bot user, which is only known once connected.
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	b.buildHandlerMap()
	b.session.AddHandler(b.handleInteraction)
	b.registerEventHandlers()

	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.startModules()

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// loadModuleConfigs calls LoadConfig on every ConfigurableModule.
func (b *Bot) loadModuleConfigs() error {
	for _, mod := range b.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return fmt.Errorf("%s module: %w", mod.Name(), err)
		}
		slog.Debug("loaded module configuration", "module", mod.Name())
	}
	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session: b.session,
	}

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	slog.Info("initialized modules", "modules", b.moduleNames())

	return nil
}

// startModules runs Start on every StartableModule. Failures are logged, the
// bot keeps serving commands.
func (b *Bot) startModules() {
	for _, mod := range b.modules {
		startable, ok := mod.(StartableModule)
		if !ok {
			continue
		}
		if err := startable.Start(); err != nil {
			slog.Warn("failed to start module", "module", mod.Name(), "error", err)
		}
	}
}

func (b *Bot) moduleNames() []string {
	return lo.Map(b.modules, func(mod Module, _ int) string { return mod.Name() })
}

// buildHandlerMap builds the command name to handler mapping.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		for name := range mod.CommandHandlers() {
			if _, exists := b.handlers[name]; exists {
				slog.Warn("command handler overridden", "command", name, "module", mod.Name())
			}
		}
		maps.Copy(b.handlers, mod.CommandHandlers())
	}
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	return lo.FlatMap(b.modules, func(mod Module, _ int) []*discordgo.ApplicationCommand {
		return mod.Commands()
	})
}

// registerCommands overwrites the global command set with the modules' commands.
func (b *Bot) registerCommands() error {
	commands := b.collectCommands()

	registered, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID,
		"", // Empty string registers commands globally
		commands,
	)
	if err != nil {
		return fmt.Errorf("failed to register %d commands: %w", len(commands), err)
	}
	slog.Debug("registered commands", "count", len(registered))

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction routes incoming interactions to the appropriate handler.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	handler, ok := b.handlers[cmdName]
	if !ok {
		slog.Warn("found no handler for command", "command", cmdName)
		b.respondWithEmbed(s, i, "Unknown Command", "This command is not recognized.", colorYellow)
		return
	}

	if err := b.runHandler(handler, s, i); err != nil {
		slog.Error("failed to handle command", "command", cmdName, "error", err)
		b.respondWithEmbed(s, i, "Error", "An error occurred while processing your command.",
			colorRed)
	}
}

// runHandler invokes handler, turning a panic into an error.
func (b *Bot) runHandler(
	handler InteractionHandler,
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("command handler panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(s, i, NewDiscordResponder(s, i.Interaction))
}

// respondWithEmbed sends an embed response to an interaction.
func (b *Bot) respondWithEmbed(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	title, description string,
	color int,
) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}
