package discord

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// FakeSession is a programmable stub for the Session interface. Each method
// has a corresponding Func field that tests can set; unset methods succeed
// with zero values. Every call is recorded in a trace so tests can assert on
// which remote operations ran, and how often.
type FakeSession struct {
	mu    sync.Mutex
	trace []string

	GetBotUserFunc             func() (*discordgo.User, error)
	GuildCountFunc             func() int
	HeartbeatLatencyFunc       func() time.Duration
	UserChannelPermissionsFunc func(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)

	InteractionRespondFunc    func(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreateFunc func(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)

	ChannelMessageSendFunc        func(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplexFunc func(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDeleteFunc      func(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessagesFunc           func(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDeleteFunc func(channelID string, messages []string, options ...discordgo.RequestOption) error

	GuildBanCreateWithReasonFunc    func(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildBanDeleteFunc              func(guildID, userID string, options ...discordgo.RequestOption) error
	GuildBansFunc                   func(guildID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.GuildBan, error)
	GuildMemberDeleteWithReasonFunc func(guildID, userID, reason string, options ...discordgo.RequestOption) error
	GuildMemberTimeoutFunc          func(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
	GuildMemberFunc                 func(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAddFunc          func(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemoveFunc       func(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildRolesFunc                  func(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)

	UserChannelCreateFunc func(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UpdateWatchStatusFunc func(idle int, name string) error

	ApplicationCommandCreateFunc func(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEditFunc   func(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandsFunc      func(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDeleteFunc func(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

func NewFakeSession() *FakeSession {
	return &FakeSession{trace: []string{}}
}

func (f *FakeSession) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeSession) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Calls counts how many times the named method was invoked.
func (f *FakeSession) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, step := range f.trace {
		if step == method {
			count++
		}
	}
	return count
}

func (f *FakeSession) GetBotUser() (*discordgo.User, error) {
	f.record("GetBotUser")
	if f.GetBotUserFunc != nil {
		return f.GetBotUserFunc()
	}
	return &discordgo.User{ID: "bot", Username: "warden"}, nil
}

func (f *FakeSession) GuildCount() int {
	f.record("GuildCount")
	if f.GuildCountFunc != nil {
		return f.GuildCountFunc()
	}
	return 0
}

func (f *FakeSession) HeartbeatLatency() time.Duration {
	f.record("HeartbeatLatency")
	if f.HeartbeatLatencyFunc != nil {
		return f.HeartbeatLatencyFunc()
	}
	return 0
}

func (f *FakeSession) UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error) {
	f.record("UserChannelPermissions")
	if f.UserChannelPermissionsFunc != nil {
		return f.UserChannelPermissionsFunc(userID, channelID, fetchOptions...)
	}
	return 0, nil
}

func (f *FakeSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.record("InteractionRespond")
	if f.InteractionRespondFunc != nil {
		return f.InteractionRespondFunc(interaction, resp, options...)
	}
	return nil
}

func (f *FakeSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("FollowupMessageCreate")
	if f.FollowupMessageCreateFunc != nil {
		return f.FollowupMessageCreateFunc(interaction, wait, data, options...)
	}
	return &discordgo.Message{}, nil
}

func (f *FakeSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("ChannelMessageSend")
	if f.ChannelMessageSendFunc != nil {
		return f.ChannelMessageSendFunc(channelID, content, options...)
	}
	return &discordgo.Message{ID: "sent", ChannelID: channelID, Content: content}, nil
}

func (f *FakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("ChannelMessageSendComplex")
	if f.ChannelMessageSendComplexFunc != nil {
		return f.ChannelMessageSendComplexFunc(channelID, data, options...)
	}
	return &discordgo.Message{ID: "sent", ChannelID: channelID}, nil
}

func (f *FakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.record("ChannelMessageDelete")
	if f.ChannelMessageDeleteFunc != nil {
		return f.ChannelMessageDeleteFunc(channelID, messageID, options...)
	}
	return nil
}

func (f *FakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.record("ChannelMessages")
	if f.ChannelMessagesFunc != nil {
		return f.ChannelMessagesFunc(channelID, limit, beforeID, afterID, aroundID, options...)
	}
	return nil, nil
}

func (f *FakeSession) ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error {
	f.record("ChannelMessagesBulkDelete")
	if f.ChannelMessagesBulkDeleteFunc != nil {
		return f.ChannelMessagesBulkDeleteFunc(channelID, messages, options...)
	}
	return nil
}

func (f *FakeSession) GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error {
	f.record("GuildBanCreateWithReason")
	if f.GuildBanCreateWithReasonFunc != nil {
		return f.GuildBanCreateWithReasonFunc(guildID, userID, reason, days, options...)
	}
	return nil
}

func (f *FakeSession) GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error {
	f.record("GuildBanDelete")
	if f.GuildBanDeleteFunc != nil {
		return f.GuildBanDeleteFunc(guildID, userID, options...)
	}
	return nil
}

func (f *FakeSession) GuildBans(guildID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.GuildBan, error) {
	f.record("GuildBans")
	if f.GuildBansFunc != nil {
		return f.GuildBansFunc(guildID, limit, beforeID, afterID, options...)
	}
	return nil, nil
}

func (f *FakeSession) GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error {
	f.record("GuildMemberDeleteWithReason")
	if f.GuildMemberDeleteWithReasonFunc != nil {
		return f.GuildMemberDeleteWithReasonFunc(guildID, userID, reason, options...)
	}
	return nil
}

func (f *FakeSession) GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error {
	f.record("GuildMemberTimeout")
	if f.GuildMemberTimeoutFunc != nil {
		return f.GuildMemberTimeoutFunc(guildID, userID, until, options...)
	}
	return nil
}

func (f *FakeSession) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.record("GuildMember")
	if f.GuildMemberFunc != nil {
		return f.GuildMemberFunc(guildID, userID, options...)
	}
	return &discordgo.Member{User: &discordgo.User{ID: userID}}, nil
}

func (f *FakeSession) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.record("GuildMemberRoleAdd")
	if f.GuildMemberRoleAddFunc != nil {
		return f.GuildMemberRoleAddFunc(guildID, userID, roleID, options...)
	}
	return nil
}

func (f *FakeSession) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.record("GuildMemberRoleRemove")
	if f.GuildMemberRoleRemoveFunc != nil {
		return f.GuildMemberRoleRemoveFunc(guildID, userID, roleID, options...)
	}
	return nil
}

func (f *FakeSession) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.record("GuildRoles")
	if f.GuildRolesFunc != nil {
		return f.GuildRolesFunc(guildID, options...)
	}
	return nil, nil
}

func (f *FakeSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.record("UserChannelCreate")
	if f.UserChannelCreateFunc != nil {
		return f.UserChannelCreateFunc(recipientID, options...)
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *FakeSession) UpdateWatchStatus(idle int, name string) error {
	f.record("UpdateWatchStatus")
	if f.UpdateWatchStatusFunc != nil {
		return f.UpdateWatchStatusFunc(idle, name)
	}
	return nil
}

func (f *FakeSession) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.record("ApplicationCommandCreate")
	if f.ApplicationCommandCreateFunc != nil {
		return f.ApplicationCommandCreateFunc(appID, guildID, cmd, options...)
	}
	return &discordgo.ApplicationCommand{ID: cmd.Name + "-id", Name: cmd.Name}, nil
}

func (f *FakeSession) ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.record("ApplicationCommandEdit")
	if f.ApplicationCommandEditFunc != nil {
		return f.ApplicationCommandEditFunc(appID, guildID, cmdID, cmd, options...)
	}
	return cmd, nil
}

func (f *FakeSession) ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.record("ApplicationCommands")
	if f.ApplicationCommandsFunc != nil {
		return f.ApplicationCommandsFunc(appID, guildID, options...)
	}
	return nil, nil
}

func (f *FakeSession) ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error {
	f.record("ApplicationCommandDelete")
	if f.ApplicationCommandDeleteFunc != nil {
		return f.ApplicationCommandDeleteFunc(appID, guildID, cmdID, options...)
	}
	return nil
}
