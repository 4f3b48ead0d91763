// Package bot wires the gateway events to the command dispatcher, the
// content filter, and the interactive confirmation flow.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"warden-bot/internal/command"
	"warden-bot/internal/discord"
	"warden-bot/internal/filter"
	"warden-bot/internal/modlog"
	"warden-bot/internal/settings"
)

const (
	componentEmbedStub    = "embed:stub"
	componentApplyConfirm = "apply:yes:"
	componentApplyCancel  = "apply:no:"
)

type Options struct {
	ConfirmTTL       time.Duration
	PresenceInterval time.Duration
}

type Bot struct {
	logger   *zap.Logger
	session  discord.Session
	registry *command.Registry
	settings *settings.Store
	modlog   *modlog.Logger
	filter   *filter.Module

	confirms         *confirmStore
	presenceInterval time.Duration

	gateway *discordgo.Session
	stop    chan struct{}
	startup sync.Once
}

func New(logger *zap.Logger, session discord.Session, store *settings.Store, log *modlog.Logger, filterModule *filter.Module, opts Options) (*Bot, error) {
	if opts.ConfirmTTL <= 0 {
		opts.ConfirmTTL = 10 * time.Minute
	}
	if opts.PresenceInterval <= 0 {
		opts.PresenceInterval = 30 * time.Minute
	}

	b := &Bot{
		logger:           logger,
		session:          session,
		registry:         command.NewRegistry(logger),
		settings:         store,
		modlog:           log,
		filter:           filterModule,
		confirms:         newConfirmStore(opts.ConfirmTTL),
		presenceInterval: opts.PresenceInterval,
		stop:             make(chan struct{}),
	}
	if err := b.registerCommands(); err != nil {
		return nil, err
	}
	return b, nil
}

// Start attaches the event handlers and opens the gateway connection.
func (b *Bot) Start(gateway *discordgo.Session) error {
	b.gateway = gateway
	gateway.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	gateway.AddHandler(b.onReady)
	gateway.AddHandler(b.onMessageCreate)
	gateway.AddHandler(b.onInteractionCreate)

	return gateway.Open()
}

func (b *Bot) Close() error {
	close(b.stop)
	if b.gateway != nil {
		return b.gateway.Close()
	}
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("gateway ready",
		zap.String("user", r.User.Username),
		zap.Int("guilds", b.session.GuildCount()))

	// Ready fires again on every re-identify; the sync and the presence
	// loop must only start once.
	b.startup.Do(func() {
		if err := b.syncCommands(); err != nil {
			b.logger.Error("sync application commands", zap.Error(err))
		}
		go b.runPresenceLoop()
	})
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.HandleMessage(context.Background(), m.Message)
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.HandleInteraction(context.Background(), i.Interaction)
}

// HandleMessage runs the content filter and then the prefix-command
// fallback against one inbound message. Messages from service accounts
// are ignored entirely.
func (b *Bot) HandleMessage(ctx context.Context, msg *discordgo.Message) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if b.filter.HandleMessage(ctx, msg) {
		return
	}

	prefix := b.settings.Prefix()
	if prefix == "" || !strings.HasPrefix(msg.Content, prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(msg.Content, prefix))
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	if _, ok := b.registry.Lookup(name); !ok {
		// Not every prefixed message is a command.
		return
	}

	perms, err := b.session.UserChannelPermissions(msg.Author.ID, msg.ChannelID)
	if err != nil {
		b.logger.Error("resolve channel permissions",
			zap.String("user_id", msg.Author.ID),
			zap.String("channel_id", msg.ChannelID),
			zap.Error(err))
		return
	}

	inv := &command.Invocation{
		GuildID:     msg.GuildID,
		ChannelID:   msg.ChannelID,
		ActorID:     msg.Author.ID,
		Permissions: perms,
	}
	res := b.registry.Dispatch(ctx, name, fields[1:], inv)
	if res.Reply == nil {
		return
	}
	b.sendToChannel(msg.ChannelID, res.Reply)
}

// HandleInteraction routes slash-command invocations and component clicks.
func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleSlashCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, i)
	}
}

func (b *Bot) handleSlashCommand(ctx context.Context, i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	desc, ok := b.registry.Lookup(data.Name)
	if !ok {
		// A stale registration on the platform side can still deliver an
		// invocation for a command this build no longer has.
		b.logger.Warn("interaction for unregistered command", zap.String("command", data.Name))
		b.respond(i, &command.Reply{Content: "Unknown Command.", Ephemeral: true})
		return
	}

	inv := &command.Invocation{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	}
	if i.Member != nil && i.Member.User != nil {
		inv.ActorID = i.Member.User.ID
		inv.Permissions = i.Member.Permissions
	} else if i.User != nil {
		inv.ActorID = i.User.ID
	}

	raw := command.RawFromOptions(desc.Params, data.Options)
	res := b.registry.Dispatch(ctx, data.Name, raw, inv)
	if res.Reply == nil {
		return
	}
	b.respond(i, res.Reply)
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.Interaction) {
	customID := i.MessageComponentData().CustomID
	switch {
	case customID == componentEmbedStub:
		b.respond(i, &command.Reply{
			Content:   "Button Clicked! (Feature Under Development)",
			Ephemeral: true,
		})
	case strings.HasPrefix(customID, componentApplyConfirm):
		b.handleApplyChoice(ctx, i, strings.TrimPrefix(customID, componentApplyConfirm), true)
	case strings.HasPrefix(customID, componentApplyCancel):
		b.handleApplyChoice(ctx, i, strings.TrimPrefix(customID, componentApplyCancel), false)
	default:
		b.logger.Warn("unhandled component", zap.String("custom_id", customID))
	}
}

func (b *Bot) handleApplyChoice(_ context.Context, i *discordgo.Interaction, sessionID string, confirm bool) {
	actor := interactionUser(i)

	switch b.confirms.Resolve(sessionID, actor, confirm) {
	case confirmAccepted:
		b.respond(i, &command.Reply{
			Content:   "Application Process Started. Please Check Your DMs For Questions.",
			Ephemeral: true,
		})
		b.sendApplicationQuestions(i, actor)
	case confirmDeclined:
		b.respond(i, &command.Reply{Content: "Application Cancelled.", Ephemeral: true})
	case confirmForeign:
		b.respond(i, &command.Reply{Content: "This Confirmation Is Not For You.", Ephemeral: true})
	case confirmAlreadyResolved:
		b.respond(i, &command.Reply{Content: "This Application Has Already Been Resolved.", Ephemeral: true})
	default:
		b.respond(i, &command.Reply{Content: "This Confirmation Has Expired.", Ephemeral: true})
	}
}

func (b *Bot) sendApplicationQuestions(i *discordgo.Interaction, userID string) {
	questions := b.settings.Questions()
	body := "**MOD APPLICATION**\n" + strings.Join(questions, "\n")

	channel, err := b.session.UserChannelCreate(userID)
	if err == nil {
		_, err = b.session.ChannelMessageSend(channel.ID, body)
	}
	if err != nil {
		// The choice interaction already got its reply; the DM failure goes
		// out as a follow-up to the same interaction.
		if _, ferr := b.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
			Content: "Failed To DM You. Error: " + err.Error(),
			Flags:   discordgo.MessageFlagsEphemeral,
		}); ferr != nil {
			b.logger.Error("send DM-failure followup", zap.Error(ferr))
		}
	}
}

func (b *Bot) respond(i *discordgo.Interaction, reply *command.Reply) {
	data := &discordgo.InteractionResponseData{
		Content:    reply.Content,
		Embeds:     reply.Embeds,
		Components: reply.Components,
	}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error("respond to interaction", zap.Error(err))
	}
}

func (b *Bot) sendToChannel(channelID string, reply *command.Reply) {
	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    reply.Content,
		Embeds:     reply.Embeds,
		Components: reply.Components,
	})
	if err != nil {
		b.logger.Error("send channel reply", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func interactionUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
