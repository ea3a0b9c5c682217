package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aliasqar1/tets/internal/api"
	"github.com/aliasqar1/tets/internal/common"
	"github.com/aliasqar1/tets/internal/contest"
	"github.com/aliasqar1/tets/internal/listener"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// handlerTimeout bounds the work done for one gateway event
const handlerTimeout = 15 * time.Second

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildInvites

// Config contains configuration for Bot
type Config struct {
	Token         string
	ApplicationId string
	// GuildId registers commands in one guild; empty registers them globally
	GuildId      string
	RemoveOnStop bool
	Catalog      *common.Catalog
}

// Handlers are the core services gateway events are routed to
type Handlers struct {
	Service   *api.CommunityService
	Listener  *listener.CommunityListener
	Collector *contest.Collector
}

// Bot owns the gateway session and routes its events into the core
type Bot struct {
	session  *discordgo.Session
	adapter  *Adapter
	prompter *Prompter

	applicationId string
	guildId       string
	removeOnStop  bool

	service   *api.CommunityService
	listener  *listener.CommunityListener
	collector *contest.Collector

	ctx       context.Context
	commands  []*discordgo.ApplicationCommand
	ready     chan struct{}
	readyOnce sync.Once
}

// New creates the session and its platform adapter. Handlers must be bound
// before Open.
func New(cfg Config) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("discord token is required")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = intents
	session.StateEnabled = true

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = common.DefaultCatalog()
	}
	adapter := NewAdapter(session, catalog)

	return &Bot{
		session:       session,
		adapter:       adapter,
		prompter:      NewPrompter(adapter),
		applicationId: cfg.ApplicationId,
		guildId:       cfg.GuildId,
		removeOnStop:  cfg.RemoveOnStop,
		ctx:           context.Background(),
		ready:         make(chan struct{}),
	}, nil
}

// Platform returns the adapter the core talks to
func (b *Bot) Platform() *Adapter {
	return b.adapter
}

// Prompter returns the contest prompt sink bound to this session
func (b *Bot) Prompter() *Prompter {
	return b.prompter
}

func (b *Bot) Bind(h Handlers) {
	b.service = h.Service
	b.listener = h.Listener
	b.collector = h.Collector
}

// Ready is closed once the gateway has delivered its first Ready event
func (b *Bot) Ready() <-chan struct{} {
	return b.ready
}

// Open connects to the gateway and registers the slash commands
func (b *Bot) Open(ctx context.Context) error {
	if b.service == nil || b.listener == nil || b.collector == nil {
		return errors.New("handlers must be bound before opening the session")
	}
	b.ctx = ctx
	b.registerHandlers()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	zap.L().Info("Connected to Discord", zap.String("user", b.session.State.User.Username))

	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

// Close removes the registered commands when configured to and closes the session
func (b *Bot) Close() error {
	if b.removeOnStop {
		b.removeCommands()
	}
	return b.session.Close()
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onReactionAdd)
	b.session.AddHandler(b.onReactionRemove)
	b.session.AddHandler(b.onMemberAdd)
	b.session.AddHandler(b.onMemberRemove)
	b.session.AddHandler(b.onInteraction)
}

func (b *Bot) appId() string {
	if b.applicationId != "" {
		return b.applicationId
	}
	return b.session.State.User.ID
}

func (b *Bot) registerCommands() error {
	definitions := commandDefinitions()
	registered := make([]*discordgo.ApplicationCommand, 0, len(definitions))

	for _, cmd := range definitions {
		created, err := b.session.ApplicationCommandCreate(b.appId(), b.guildId, cmd)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registered = append(registered, created)
	}

	b.commands = registered
	zap.L().Info("Slash commands registered",
		zap.Int("count", len(registered)),
		zap.String("guild_id", b.guildId))
	return nil
}

func (b *Bot) removeCommands() {
	for _, cmd := range b.commands {
		if err := b.session.ApplicationCommandDelete(b.appId(), b.guildId, cmd.ID); err != nil {
			zap.L().Error("Failed to remove command", zap.String("name", cmd.Name), zap.Error(err))
		}
	}
}

// eventContext bounds the handling of one event and ends with the bot's context
func (b *Bot) eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, handlerTimeout)
}
