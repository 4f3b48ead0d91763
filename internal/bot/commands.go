package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"warden-bot/internal/command"
)

func (b *Bot) registerCommands() error {
	descriptors := []*command.Descriptor{
		{
			Name:        "prefix",
			Description: "Set The Bot Prefix",
			Params: []command.Param{
				{Name: "prefixes", Type: command.TypeString, Description: "New command prefix", Required: true},
			},
			Handler: b.handlePrefix,
		},
		{
			Name:        "ping",
			Description: "Check The Bot Latency",
			Handler:     b.handlePing,
		},
		{
			Name:        "ban",
			Description: "Ban A Member",
			Permission:  discordgo.PermissionBanMembers,
			Params: []command.Param{
				{Name: "member", Type: command.TypeUser, Description: "Member to ban", Required: true},
				{Name: "reason", Type: command.TypeString, Description: "Reason for the ban", Rest: true},
			},
			Handler: b.handleBan,
		},
		{
			Name:        "timeout",
			Description: "Timeout A Member",
			Permission:  discordgo.PermissionModerateMembers,
			Params: []command.Param{
				{Name: "member", Type: command.TypeUser, Description: "Member to time out", Required: true},
				{Name: "duration", Type: command.TypeInt, Description: "Duration in seconds", Required: true},
				{Name: "reason", Type: command.TypeString, Description: "Reason for the timeout", Rest: true},
			},
			Handler: b.handleTimeout,
		},
		{
			Name:        "kick",
			Description: "Kick A Member",
			Permission:  discordgo.PermissionKickMembers,
			Params: []command.Param{
				{Name: "member", Type: command.TypeUser, Description: "Member to kick", Required: true},
				{Name: "reason", Type: command.TypeString, Description: "Reason for the kick", Rest: true},
			},
			Handler: b.handleKick,
		},
		{
			Name:        "unban",
			Description: "Unban A Member",
			Permission:  discordgo.PermissionBanMembers,
			Params: []command.Param{
				{Name: "user_id", Type: command.TypeUser, Description: "User to unban", Required: true},
			},
			Handler: b.handleUnban,
		},
		{
			Name:        "dm",
			Description: "Send A Direct Message To A User",
			Params: []command.Param{
				{Name: "user", Type: command.TypeUser, Description: "Recipient", Required: true},
				{Name: "message", Type: command.TypeString, Description: "Message to send", Required: true, Rest: true},
			},
			Handler: b.handleDM,
		},
		{
			Name:        "embed",
			Description: "Send An Embed With JSON Code",
			Params: []command.Param{
				{Name: "json_code", Type: command.TypeString, Description: "Embed document as JSON", Required: true},
				{Name: "channel", Type: command.TypeChannel, Description: "Target channel"},
			},
			Handler: b.handleEmbed,
		},
		{
			Name:        "apply",
			Description: "Apply For Mod",
			Handler:     b.handleApply,
		},
		{
			Name:        "purge",
			Description: "Purge Messages",
			Permission:  discordgo.PermissionManageMessages,
			Params: []command.Param{
				{Name: "count", Type: command.TypeInt, Description: "How many recent messages to scan", Required: true},
				{Name: "filters", Type: command.TypeString, Description: "Comma-separated filter tokens"},
			},
			Handler: b.handlePurge,
		},
		{
			Name:        "flip",
			Description: "Flip A Coin",
			Params: []command.Param{
				{Name: "user", Type: command.TypeUser, Description: "Player", Required: true},
				{Name: "choice", Type: command.TypeString, Description: "Heads or tails", Required: true},
			},
			Handler: b.handleFlip,
		},
		{
			Name:        "vacation",
			Description: "Only For Mods: Go On Vacation",
			Permission:  discordgo.PermissionManageMessages,
			Params: []command.Param{
				{Name: "time", Type: command.TypeString, Description: "How long", Required: true},
				{Name: "reason", Type: command.TypeString, Description: "Why", Required: true, Rest: true},
			},
			Handler: b.handleVacation,
		},
		{
			Name:        "promote",
			Description: "Promote A User",
			Permission:  discordgo.PermissionManageRoles,
			Params: []command.Param{
				{Name: "member", Type: command.TypeUser, Description: "Member to promote", Required: true},
				{Name: "role", Type: command.TypeRole, Description: "Role to grant", Required: true},
			},
			Handler: b.handlePromote,
		},
		{
			Name:        "demote",
			Description: "Demote A User",
			Permission:  discordgo.PermissionManageRoles,
			Params: []command.Param{
				{Name: "member", Type: command.TypeUser, Description: "Member to demote", Required: true},
				{Name: "role", Type: command.TypeRole, Description: "Role to remove"},
			},
			Handler: b.handleDemote,
		},
		{
			Name:        "invite",
			Description: "Get The Bot Invite Link",
			Handler:     b.handleInvite,
		},
		{
			Name:        "settings",
			Description: "Display Bot Settings",
			Handler:     b.handleSettings,
		},
		{
			Name:        "modmail",
			Description: "Send A Message To Mods",
			Params: []command.Param{
				{Name: "message", Type: command.TypeString, Description: "Message for the mods", Required: true, Rest: true},
			},
			Handler: b.handleModMail,
		},
		{
			Name:        "feedback",
			Description: "Send Feedback About The Bot",
			Params: []command.Param{
				{Name: "message", Type: command.TypeString, Description: "Your feedback", Required: true, Rest: true},
			},
			Handler: b.handleFeedback,
		},
		{
			Name:        "help",
			Description: "Display Help Information",
			Handler:     b.handleHelp,
		},
	}

	for _, desc := range descriptors {
		if err := b.registry.Register(desc); err != nil {
			return err
		}
	}
	return nil
}

// applicationCommands converts the registry into the payloads the remote
// platform expects for slash-command registration.
func (b *Bot) applicationCommands() []*discordgo.ApplicationCommand {
	descriptors := b.registry.Descriptors()
	commands := make([]*discordgo.ApplicationCommand, 0, len(descriptors))

	for _, desc := range descriptors {
		cmd := &discordgo.ApplicationCommand{
			Name:        desc.Name,
			Description: desc.Description,
		}
		if desc.Permission != 0 {
			perm := desc.Permission
			cmd.DefaultMemberPermissions = &perm
		}
		for _, p := range desc.Params {
			cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
				Type:        optionType(p.Type),
				Name:        p.Name,
				Description: p.Description,
				Required:    p.Required,
			})
		}
		commands = append(commands, cmd)
	}
	return commands
}

func optionType(t command.ParamType) discordgo.ApplicationCommandOptionType {
	switch t {
	case command.TypeInt:
		return discordgo.ApplicationCommandOptionInteger
	case command.TypeUser:
		return discordgo.ApplicationCommandOptionUser
	case command.TypeRole:
		return discordgo.ApplicationCommandOptionRole
	case command.TypeChannel:
		return discordgo.ApplicationCommandOptionChannel
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

// syncCommands reconciles the registry against what the platform already
// has: matching names are edited in place, new ones are created, and
// commands no longer in the registry are deleted.
func (b *Bot) syncCommands() error {
	user, err := b.session.GetBotUser()
	if err != nil {
		return err
	}
	commands := b.applicationCommands()

	existing, err := b.session.ApplicationCommands(user.ID, "")
	if err != nil {
		b.logger.Warn("list application commands, creating from scratch", zap.Error(err))
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(user.ID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{}, len(commands))
	created, updated := 0, 0
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(user.ID, "", current.ID, cmd); err != nil {
				b.logger.Error("edit application command",
					zap.String("command", cmd.Name), zap.Error(err))
				continue
			}
			updated++
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(user.ID, "", cmd); err != nil {
			b.logger.Error("create application command",
				zap.String("command", cmd.Name), zap.Error(err))
			continue
		}
		created++
	}

	removed := 0
	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		if err := b.session.ApplicationCommandDelete(user.ID, "", cmd.ID); err != nil {
			b.logger.Error("delete stale application command",
				zap.String("command", cmd.Name), zap.Error(err))
			continue
		}
		removed++
	}

	b.logger.Info("application commands synced",
		zap.Int("created", created), zap.Int("updated", updated), zap.Int("removed", removed))
	return nil
}
