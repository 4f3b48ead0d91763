package discord

import (
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Session is the subset of the Discord API the bot talks to. Keeping it
// behind an interface lets tests substitute a FakeSession for the live
// gateway connection.
type Session interface {
	GetBotUser() (*discordgo.User, error)
	GuildCount() int
	HeartbeatLatency() time.Duration
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)

	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)

	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error

	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
	GuildBans(guildID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.GuildBan, error)
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)

	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UpdateWatchStatus(idle int, name string) error

	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// LiveSession implements Session over a real discordgo session.
type LiveSession struct {
	session *discordgo.Session
}

func NewLiveSession(session *discordgo.Session) *LiveSession {
	return &LiveSession{session: session}
}

func (s *LiveSession) GetBotUser() (*discordgo.User, error) {
	if s.session.State != nil && s.session.State.User != nil {
		return s.session.State.User, nil
	}
	user, err := s.session.User("@me")
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("bot user unavailable")
	}
	return user, nil
}

func (s *LiveSession) GuildCount() int {
	if s.session.State == nil {
		return 0
	}
	return len(s.session.State.Guilds)
}

func (s *LiveSession) HeartbeatLatency() time.Duration {
	return s.session.HeartbeatLatency()
}

func (s *LiveSession) UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error) {
	return s.session.UserChannelPermissions(userID, channelID, fetchOptions...)
}

func (s *LiveSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return s.session.InteractionRespond(interaction, resp, options...)
}

func (s *LiveSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return s.session.FollowupMessageCreate(interaction, wait, data, options...)
}

func (s *LiveSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return s.session.ChannelMessageSend(channelID, content, options...)
}

func (s *LiveSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return s.session.ChannelMessageSendComplex(channelID, data, options...)
}

func (s *LiveSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	return s.session.ChannelMessageDelete(channelID, messageID, options...)
}

func (s *LiveSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	return s.session.ChannelMessages(channelID, limit, beforeID, afterID, aroundID, options...)
}

func (s *LiveSession) ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error {
	return s.session.ChannelMessagesBulkDelete(channelID, messages, options...)
}

func (s *LiveSession) GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error {
	return s.session.GuildBanCreateWithReason(guildID, userID, reason, days, options...)
}

func (s *LiveSession) GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error {
	return s.session.GuildBanDelete(guildID, userID, options...)
}

func (s *LiveSession) GuildBans(guildID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.GuildBan, error) {
	return s.session.GuildBans(guildID, limit, beforeID, afterID, options...)
}

func (s *LiveSession) GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error {
	return s.session.GuildMemberDeleteWithReason(guildID, userID, reason, options...)
}

func (s *LiveSession) GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error {
	return s.session.GuildMemberTimeout(guildID, userID, until, options...)
}

func (s *LiveSession) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	return s.session.GuildMember(guildID, userID, options...)
}

func (s *LiveSession) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	return s.session.GuildMemberRoleAdd(guildID, userID, roleID, options...)
}

func (s *LiveSession) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	return s.session.GuildMemberRoleRemove(guildID, userID, roleID, options...)
}

func (s *LiveSession) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return s.session.GuildRoles(guildID, options...)
}

func (s *LiveSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return s.session.UserChannelCreate(recipientID, options...)
}

func (s *LiveSession) UpdateWatchStatus(idle int, name string) error {
	return s.session.UpdateWatchStatus(idle, name)
}

func (s *LiveSession) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	return s.session.ApplicationCommandCreate(appID, guildID, cmd, options...)
}

func (s *LiveSession) ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	return s.session.ApplicationCommandEdit(appID, guildID, cmdID, cmd, options...)
}

func (s *LiveSession) ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	return s.session.ApplicationCommands(appID, guildID, options...)
}

func (s *LiveSession) ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error {
	return s.session.ApplicationCommandDelete(appID, guildID, cmdID, options...)
}
