package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"warden-bot/internal/command"
	"warden-bot/internal/modlog"
)

const (
	defaultReason = "No Reason Provided"
	banPageSize   = 1000
)

func (b *Bot) handlePrefix(_ context.Context, inv *command.Invocation) (*command.Reply, error) {
	prefix := inv.Args.String("prefixes")
	b.settings.SetPrefix(prefix)
	return &command.Reply{Content: "Prefix Updated To: " + prefix, Ephemeral: true}, nil
}

func (b *Bot) handlePing(_ context.Context, _ *command.Invocation) (*command.Reply, error) {
	latency := b.session.HeartbeatLatency().Milliseconds()
	return &command.Reply{Content: fmt.Sprintf("Pong! Latency: %dms", latency)}, nil
}

func (b *Bot) handleBan(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	target := inv.Args.String("member")
	reason := reasonOrDefault(inv.Args)

	if err := b.session.GuildBanCreateWithReason(inv.GuildID, target, reason, 0); err != nil {
		return nil, &command.RemoteError{Op: "ban", Err: err}
	}
	b.modlog.Log(ctx, modlog.Event{
		GuildID: inv.GuildID, Actor: inv.ActorID, Action: "ban",
		Target: mention(target), Reason: reason,
	})
	return &command.Reply{Content: fmt.Sprintf("%s Has Been Banned. Reason: %s", mention(target), reason)}, nil
}

func (b *Bot) handleTimeout(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	target := inv.Args.String("member")
	seconds := inv.Args.Int("duration")
	reason := reasonOrDefault(inv.Args)

	until := time.Now().Add(time.Duration(seconds) * time.Second)
	if err := b.session.GuildMemberTimeout(inv.GuildID, target, &until); err != nil {
		return nil, &command.RemoteError{Op: "timeout", Err: err}
	}
	b.modlog.Log(ctx, modlog.Event{
		GuildID: inv.GuildID, Actor: inv.ActorID, Action: "timeout",
		Target: mention(target), Reason: fmt.Sprintf("%ds: %s", seconds, reason),
	})
	return &command.Reply{
		Content: fmt.Sprintf("%s Has Been Timed Out For %d Seconds. Reason: %s", mention(target), seconds, reason),
	}, nil
}

func (b *Bot) handleKick(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	target := inv.Args.String("member")
	reason := reasonOrDefault(inv.Args)

	if err := b.session.GuildMemberDeleteWithReason(inv.GuildID, target, reason); err != nil {
		return nil, &command.RemoteError{Op: "kick", Err: err}
	}
	b.modlog.Log(ctx, modlog.Event{
		GuildID: inv.GuildID, Actor: inv.ActorID, Action: "kick",
		Target: mention(target), Reason: reason,
	})
	return &command.Reply{Content: fmt.Sprintf("%s Has Been Kicked. Reason: %s", mention(target), reason)}, nil
}

func (b *Bot) handleUnban(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	target := inv.Args.String("user_id")

	// The ban list comes back in pages of at most 1000 entries.
	afterID := ""
	for {
		bans, err := b.session.GuildBans(inv.GuildID, banPageSize, "", afterID)
		if err != nil {
			return nil, &command.RemoteError{Op: "list bans", Err: err}
		}
		for _, entry := range bans {
			if entry.User == nil || entry.User.ID != target {
				continue
			}
			if err := b.session.GuildBanDelete(inv.GuildID, target); err != nil {
				return nil, &command.RemoteError{Op: "unban", Err: err}
			}
			b.modlog.Log(ctx, modlog.Event{
				GuildID: inv.GuildID, Actor: inv.ActorID, Action: "unban", Target: mention(target),
			})
			return &command.Reply{Content: "Unbanned " + mention(target)}, nil
		}
		if len(bans) < banPageSize {
			break
		}
		last := bans[len(bans)-1]
		if last.User == nil {
			break
		}
		afterID = last.User.ID
	}
	return &command.Reply{Content: "User Not Found In Ban List.", Ephemeral: true}, nil
}

func (b *Bot) handleDM(_ context.Context, inv *command.Invocation) (*command.Reply, error) {
	target := inv.Args.String("user")
	message := inv.Args.String("message")

	channel, err := b.session.UserChannelCreate(target)
	if err != nil {
		return nil, &command.RemoteError{Op: "open DM channel", Err: err}
	}
	if _, err := b.session.ChannelMessageSend(channel.ID, message); err != nil {
		return nil, &command.RemoteError{Op: "send DM", Err: err}
	}
	return &command.Reply{Content: "Message Sent To " + mention(target)}, nil
}

func (b *Bot) handleEmbed(_ context.Context, inv *command.Invocation) (*command.Reply, error) {
	embed, err := embedFromJSON(inv.Args.String("json_code"))
	if err != nil {
		return nil, err
	}

	targetChannel := inv.ChannelID
	if inv.Args.Has("channel") {
		targetChannel = inv.Args.String("channel")
	}

	_, err = b.session.ChannelMessageSendComplex(targetChannel, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Enter JSON Code",
					Style:    discordgo.PrimaryButton,
					CustomID: componentEmbedStub,
				},
			}},
		},
	})
	if err != nil {
		return nil, &command.RemoteError{Op: "send embed", Err: err}
	}
	return &command.Reply{Content: fmt.Sprintf("Embed Sent In <#%s>", targetChannel)}, nil
}

func (b *Bot) handleApply(_ context.Context, inv *command.Invocation) (*command.Reply, error) {
	sessionID := b.confirms.Offer(inv.ActorID)
	return &command.Reply{
		Content:   "Are You Sure You Would Like To Apply For Mod? **Note: We Will Only Choose People Who Are Serious About This Job**",
		Ephemeral: true,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Yes",
					Style:    discordgo.SuccessButton,
					CustomID: componentApplyConfirm + sessionID,
				},
				discordgo.Button{
					Label:    "No",
					Style:    discordgo.DangerButton,
					CustomID: componentApplyCancel + sessionID,
				},
			}},
		},
	}, nil
}

func (b *Bot) handlePurge(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	count := inv.Args.Int("count")
	if count <= 0 {
		return nil, &command.ArgumentError{Param: "count", Reason: "must be greater than zero"}
	}

	// Only the "bot" filter token is recognized; anything else is ignored.
	botOnly := false
	if inv.Args.Has("filters") {
		for _, token := range strings.Split(inv.Args.String("filters"), ",") {
			if strings.TrimSpace(strings.ToLower(token)) == "bot" {
				botOnly = true
			}
		}
	}

	messages, err := b.session.ChannelMessages(inv.ChannelID, int(count), "", "", "")
	if err != nil {
		return nil, &command.RemoteError{Op: "list messages", Err: err}
	}

	var ids []string
	for _, msg := range messages {
		if botOnly && (msg.Author == nil || !msg.Author.Bot) {
			continue
		}
		ids = append(ids, msg.ID)
	}

	if len(ids) > 0 {
		if err := b.session.ChannelMessagesBulkDelete(inv.ChannelID, ids); err != nil {
			return nil, &command.RemoteError{Op: "purge", Err: err}
		}
	}
	b.modlog.Log(ctx, modlog.Event{
		GuildID: inv.GuildID, Actor: inv.ActorID, Action: "purge",
		Target: fmt.Sprintf("<#%s>", inv.ChannelID),
		Reason: fmt.Sprintf("%d messages", len(ids)),
	})
	return &command.Reply{Content: fmt.Sprintf("Purged %d Messages.", len(ids)), Ephemeral: true}, nil
}

func (b *Bot) handleFlip(_ context.Context, inv *command.Invocation) (*command.Reply, error) {
	target := inv.Args.String("user")
	choice := strings.ToUpper(inv.Args.String("choice"))

	result := "HEADS"
	if rand.Intn(2) == 1 {
		result = "TAILS"
	}
	return &command.Reply{
		Content: fmt.Sprintf("%s %s 50%% Or %s 50%%? Result: %s", mention(target), choice, result, result),
	}, nil
}

func (b *Bot) handleVacation(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	duration := inv.Args.String("time")
	reason := inv.Args.String("reason")

	b.modlog.Log(ctx, modlog.Event{
		GuildID: inv.GuildID, Actor: inv.ActorID, Action: "vacation",
		Reason: fmt.Sprintf("%s: %s", duration, reason),
	})
	return &command.Reply{
		Content: fmt.Sprintf("%s Is Now On Vacation For %s. Reason: %s", mention(inv.ActorID), duration, reason),
	}, nil
}

func (b *Bot) handlePromote(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	target := inv.Args.String("member")
	roleID := inv.Args.String("role")

	if err := b.session.GuildMemberRoleAdd(inv.GuildID, target, roleID); err != nil {
		return nil, &command.RemoteError{Op: "promote", Err: err}
	}
	b.modlog.Log(ctx, modlog.Event{
		GuildID: inv.GuildID, Actor: inv.ActorID, Action: "promote",
		Target: mention(target), Reason: "role " + roleMention(roleID),
	})
	return &command.Reply{Content: fmt.Sprintf("%s Has Been Promoted With %s", mention(target), roleMention(roleID))}, nil
}

func (b *Bot) handleDemote(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	target := inv.Args.String("member")

	roleID := inv.Args.String("role")
	if roleID == "" {
		var reply *command.Reply
		var err error
		roleID, reply, err = b.highestRole(inv.GuildID, target)
		if reply != nil || err != nil {
			return reply, err
		}
	}

	if err := b.session.GuildMemberRoleRemove(inv.GuildID, target, roleID); err != nil {
		return nil, &command.RemoteError{Op: "demote", Err: err}
	}
	b.modlog.Log(ctx, modlog.Event{
		GuildID: inv.GuildID, Actor: inv.ActorID, Action: "demote",
		Target: mention(target), Reason: "removed role " + roleMention(roleID),
	})
	return &command.Reply{Content: fmt.Sprintf("%s Has Been Demoted And %s Removed", mention(target), roleMention(roleID))}, nil
}

// highestRole resolves the member's highest-positioned role. A member with
// no roles gets the fixed "no roles" reply instead of an error.
func (b *Bot) highestRole(guildID, userID string) (string, *command.Reply, error) {
	member, err := b.session.GuildMember(guildID, userID)
	if err != nil {
		return "", nil, &command.RemoteError{Op: "fetch member", Err: err}
	}
	if len(member.Roles) == 0 {
		return "", &command.Reply{Content: "User Has No Roles To Remove.", Ephemeral: true}, nil
	}

	roles, err := b.session.GuildRoles(guildID)
	if err != nil {
		return "", nil, &command.RemoteError{Op: "list roles", Err: err}
	}
	positions := make(map[string]int, len(roles))
	for _, role := range roles {
		positions[role.ID] = role.Position
	}

	best := member.Roles[0]
	for _, id := range member.Roles[1:] {
		if positions[id] > positions[best] {
			best = id
		}
	}
	return best, nil, nil
}

func (b *Bot) handleInvite(_ context.Context, _ *command.Invocation) (*command.Reply, error) {
	user, err := b.session.GetBotUser()
	if err != nil {
		return nil, &command.RemoteError{Op: "fetch bot user", Err: err}
	}
	link := fmt.Sprintf(
		"https://discord.com/api/oauth2/authorize?client_id=%s&permissions=8&scope=bot%%20applications.commands",
		user.ID)
	return &command.Reply{Content: "Invite Me Using This Link: " + link}, nil
}

func (b *Bot) handleSettings(_ context.Context, _ *command.Invocation) (*command.Reply, error) {
	snap := b.settings.Snapshot()
	embed := &discordgo.MessageEmbed{
		Title: "Bot Settings",
		Color: 0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Prefix", Value: snap.Prefix},
			{Name: "Mod Mail Channel", Value: channelOrNotSet(snap.ModMailChannel)},
			{Name: "Logging Channel", Value: channelOrNotSet(snap.LogChannel)},
			{Name: "Application Questions", Value: strings.Join(snap.Questions, "\n")},
		},
	}
	return &command.Reply{Embeds: []*discordgo.MessageEmbed{embed}, Ephemeral: true}, nil
}

func (b *Bot) handleModMail(_ context.Context, inv *command.Invocation) (*command.Reply, error) {
	channelID := b.settings.ModMailChannel()
	if channelID == "" {
		return nil, &command.NotConfiguredError{What: "Mod Mail Channel"}
	}
	message := fmt.Sprintf("Mod Mail From %s: %s", mention(inv.ActorID), inv.Args.String("message"))
	if _, err := b.session.ChannelMessageSend(channelID, message); err != nil {
		return nil, &command.RemoteError{Op: "relay mod mail", Err: err}
	}
	return &command.Reply{Content: "Your Message Has Been Sent To The Mods.", Ephemeral: true}, nil
}

func (b *Bot) handleFeedback(_ context.Context, inv *command.Invocation) (*command.Reply, error) {
	message := inv.Args.String("message")
	b.logger.Info("feedback received",
		zap.String("user_id", inv.ActorID),
		zap.String("message", message))

	if channelID := b.settings.LogChannel(); channelID != "" {
		line := fmt.Sprintf("Feedback from %s: %s", mention(inv.ActorID), message)
		if _, err := b.session.ChannelMessageSend(channelID, line); err != nil {
			b.logger.Warn("forward feedback", zap.Error(err))
		}
	}
	return &command.Reply{Content: "Thank You For Your Feedback!", Ephemeral: true}, nil
}

func (b *Bot) handleHelp(_ context.Context, _ *command.Invocation) (*command.Reply, error) {
	var lines []string
	for _, desc := range b.registry.Descriptors() {
		usage := "/" + desc.Name
		for _, p := range desc.Params {
			usage += " [" + p.Name + "]"
		}
		lines = append(lines, usage+" - "+desc.Description)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Bot Help",
		Description: strings.Join(lines, "\n"),
		Color:       0x2ecc71,
	}
	return &command.Reply{Embeds: []*discordgo.MessageEmbed{embed}, Ephemeral: true}, nil
}

func reasonOrDefault(args command.Args) string {
	if args.Has("reason") {
		return args.String("reason")
	}
	return defaultReason
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

func roleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

func channelOrNotSet(channelID string) string {
	if channelID == "" {
		return "Not Set"
	}
	return "<#" + channelID + ">"
}
