package bot

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"warden-bot/internal/discord"
	"warden-bot/internal/filter"
	"warden-bot/internal/modlog"
	"warden-bot/internal/settings"
	"warden-bot/internal/storage"
)

type testRig struct {
	bot       *Bot
	session   *discord.FakeSession
	store     *storage.Store
	settings  *settings.Store
	responses []*discordgo.InteractionResponse
}

func newTestRig(t *testing.T, cfg *settings.Store) *testRig {
	t.Helper()
	if cfg == nil {
		cfg = settings.New("!", "", "", nil, nil)
	}

	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	session := discord.NewFakeSession()
	log := modlog.New(zap.NewNop(), store, cfg, session)
	filterModule := filter.New(zap.NewNop(), session, cfg, log, 5*time.Millisecond)

	b, err := New(zap.NewNop(), session, cfg, log, filterModule, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rig := &testRig{bot: b, session: session, store: store, settings: cfg}
	session.InteractionRespondFunc = func(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
		rig.responses = append(rig.responses, resp)
		return nil
	}
	return rig
}

func (r *testRig) slash(name string, perms int64, options ...*discordgo.ApplicationCommandInteractionDataOption) {
	r.bot.HandleInteraction(context.Background(), &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g1",
		ChannelID: "chan-1",
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "mod-1"},
			Permissions: perms,
		},
		Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
	})
}

func (r *testRig) click(customID, userID string) {
	r.bot.HandleInteraction(context.Background(), &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "g1",
		ChannelID: "chan-1",
		Member: &discordgo.Member{
			User: &discordgo.User{ID: userID},
		},
		Data: discordgo.MessageComponentInteractionData{CustomID: customID},
	})
}

func (r *testRig) lastResponse(t *testing.T) *discordgo.InteractionResponseData {
	t.Helper()
	if len(r.responses) == 0 {
		t.Fatal("no interaction response was sent")
	}
	return r.responses[len(r.responses)-1].Data
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value,
	}
}

func userOption(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: id,
	}
}

func intOption(name string, value float64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: value,
	}
}

func TestPingReportsLatency(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.session.HeartbeatLatencyFunc = func() time.Duration { return 42 * time.Millisecond }

	rig.slash("ping", 0)

	resp := rig.lastResponse(t)
	if !strings.Contains(resp.Content, "42ms") {
		t.Errorf("response = %q, want latency value", resp.Content)
	}
}

func TestBanWithoutPermission(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.slash("ban", 0, userOption("member", "900"))

	resp := rig.lastResponse(t)
	if resp.Content != "You Do Not Have Permission To Use This Command." {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("GuildBanCreateWithReason") != 0 {
		t.Errorf("ban calls = %d, want 0", rig.session.Calls("GuildBanCreateWithReason"))
	}
}

func TestBanWithPermission(t *testing.T) {
	rig := newTestRig(t, nil)
	var gotReason string
	rig.session.GuildBanCreateWithReasonFunc = func(guildID, userID, reason string, days int, _ ...discordgo.RequestOption) error {
		if guildID != "g1" || userID != "900" {
			t.Errorf("ban(%s, %s)", guildID, userID)
		}
		gotReason = reason
		return nil
	}

	rig.slash("ban", discordgo.PermissionBanMembers, userOption("member", "900"))

	resp := rig.lastResponse(t)
	if !strings.Contains(resp.Content, "Has Been Banned") {
		t.Errorf("response = %q", resp.Content)
	}
	if gotReason != "No Reason Provided" {
		t.Errorf("reason = %q, want default", gotReason)
	}

	events, err := rig.store.ListEvents(context.Background(), "g1", time.Time{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Action != "ban" {
		t.Errorf("events = %+v", events)
	}
}

func TestFilteredMessageNeverReachesCommands(t *testing.T) {
	cfg := settings.New("!", "", "", nil, []string{"spam"})
	rig := newTestRig(t, cfg)

	rig.bot.HandleMessage(context.Background(), &discordgo.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		GuildID:   "g1",
		Content:   "!ping this is SPAM now",
		Author:    &discordgo.User{ID: "user-1"},
	})

	if rig.session.Calls("ChannelMessageDelete") == 0 {
		t.Error("message was not deleted")
	}
	// The notice is the only send; no command dispatch happened.
	if rig.session.Calls("ChannelMessageSendComplex") != 0 {
		t.Error("command reply was sent for a filtered message")
	}

	events, err := rig.store.ListEvents(context.Background(), "g1", time.Time{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Action != "content_filter_delete" {
		t.Errorf("events = %+v", events)
	}
}

func TestPurgeBotFilter(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.session.ChannelMessagesFunc = func(channelID string, limit int, _, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
		if limit != 5 {
			t.Errorf("limit = %d, want 5", limit)
		}
		return []*discordgo.Message{
			{ID: "m1", Author: &discordgo.User{ID: "b1", Bot: true}},
			{ID: "m2", Author: &discordgo.User{ID: "h1"}},
			{ID: "m3", Author: &discordgo.User{ID: "b2", Bot: true}},
			{ID: "m4", Author: &discordgo.User{ID: "h2"}},
			{ID: "m5", Author: &discordgo.User{ID: "b3", Bot: true}},
		}, nil
	}
	var deleted []string
	rig.session.ChannelMessagesBulkDeleteFunc = func(_ string, messages []string, _ ...discordgo.RequestOption) error {
		deleted = messages
		return nil
	}

	rig.slash("purge", discordgo.PermissionManageMessages,
		intOption("count", 5), stringOption("filters", "bot"))

	if len(deleted) != 3 {
		t.Fatalf("deleted = %v, want the 3 bot messages", deleted)
	}
	resp := rig.lastResponse(t)
	if !strings.Contains(resp.Content, "Purged 3 Messages.") {
		t.Errorf("response = %q", resp.Content)
	}
}

func TestPurgeRejectsNonPositiveCount(t *testing.T) {
	rig := newTestRig(t, nil)

	for _, count := range []float64{0, -3} {
		rig.slash("purge", discordgo.PermissionManageMessages, intOption("count", count))

		resp := rig.lastResponse(t)
		if !strings.Contains(resp.Content, "Invalid Argument `count`") {
			t.Errorf("count=%v response = %q", count, resp.Content)
		}
	}
	if rig.session.Calls("ChannelMessages") != 0 {
		t.Error("message listing attempted for an invalid count")
	}
	if rig.session.Calls("ChannelMessagesBulkDelete") != 0 {
		t.Error("bulk delete attempted for an invalid count")
	}
}

func applyButtons(t *testing.T, resp *discordgo.InteractionResponseData) (yesID, noID string) {
	t.Helper()
	if len(resp.Components) != 1 {
		t.Fatalf("components = %+v", resp.Components)
	}
	row, ok := resp.Components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("component = %T, want ActionsRow", resp.Components[0])
	}
	if len(row.Components) != 2 {
		t.Fatalf("row = %+v", row)
	}
	yes, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("first button = %T", row.Components[0])
	}
	no, ok := row.Components[1].(discordgo.Button)
	if !ok {
		t.Fatalf("second button = %T", row.Components[1])
	}
	return yes.CustomID, no.CustomID
}

func TestApplyCancel(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.slash("apply", 0)
	_, noID := applyButtons(t, rig.lastResponse(t))

	rig.click(noID, "mod-1")

	resp := rig.lastResponse(t)
	if resp.Content != "Application Cancelled." {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("UserChannelCreate") != 0 {
		t.Error("cancellation must not open a DM channel")
	}
}

func TestApplyConfirmSendsQuestions(t *testing.T) {
	rig := newTestRig(t, nil)
	var dmBody string
	rig.session.ChannelMessageSendFunc = func(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
		dmBody = content
		return &discordgo.Message{ID: "dm-msg"}, nil
	}

	rig.slash("apply", 0)
	yesID, _ := applyButtons(t, rig.lastResponse(t))

	rig.click(yesID, "mod-1")

	resp := rig.lastResponse(t)
	if !strings.Contains(resp.Content, "Check Your DMs") {
		t.Errorf("response = %q", resp.Content)
	}
	if !strings.Contains(dmBody, "MOD APPLICATION") {
		t.Errorf("dm body = %q", dmBody)
	}
	for _, q := range rig.settings.Questions() {
		if !strings.Contains(dmBody, q) {
			t.Errorf("dm body missing question %q", q)
		}
	}
}

func TestApplySecondClickIsIgnored(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.slash("apply", 0)
	yesID, _ := applyButtons(t, rig.lastResponse(t))

	rig.click(yesID, "mod-1")
	dmsAfterFirst := rig.session.Calls("UserChannelCreate")

	rig.click(yesID, "mod-1")

	resp := rig.lastResponse(t)
	if resp.Content != "This Application Has Already Been Resolved." {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("UserChannelCreate") != dmsAfterFirst {
		t.Error("second click re-fired the DM action")
	}
}

func TestApplyForeignClick(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.slash("apply", 0)
	yesID, _ := applyButtons(t, rig.lastResponse(t))

	rig.click(yesID, "someone-else")

	resp := rig.lastResponse(t)
	if resp.Content != "This Confirmation Is Not For You." {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("UserChannelCreate") != 0 {
		t.Error("foreign click must not trigger the DM")
	}
}

func TestUnbanNotFound(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.session.GuildBansFunc = func(_ string, _ int, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.GuildBan, error) {
		return []*discordgo.GuildBan{
			{User: &discordgo.User{ID: "other-user"}},
		}, nil
	}

	rig.slash("unban", discordgo.PermissionBanMembers, userOption("user_id", "900"))

	resp := rig.lastResponse(t)
	if resp.Content != "User Not Found In Ban List." {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("GuildBanDelete") != 0 {
		t.Error("no unban call expected when the user is not in the ban list")
	}
}

func TestUnbanFirstMatch(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.session.GuildBansFunc = func(_ string, _ int, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.GuildBan, error) {
		return []*discordgo.GuildBan{
			{User: &discordgo.User{ID: "other-user"}},
			{User: &discordgo.User{ID: "900"}},
		}, nil
	}

	rig.slash("unban", discordgo.PermissionBanMembers, userOption("user_id", "900"))

	resp := rig.lastResponse(t)
	if !strings.Contains(resp.Content, "Unbanned") {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("GuildBanDelete") != 1 {
		t.Errorf("unban calls = %d, want 1", rig.session.Calls("GuildBanDelete"))
	}
}

func TestUnbanScansBeyondFirstPage(t *testing.T) {
	rig := newTestRig(t, nil)

	fullPage := make([]*discordgo.GuildBan, 1000)
	for i := range fullPage {
		fullPage[i] = &discordgo.GuildBan{User: &discordgo.User{ID: strconv.Itoa(100000 + i)}}
	}
	var afterIDs []string
	rig.session.GuildBansFunc = func(_ string, _ int, _, afterID string, _ ...discordgo.RequestOption) ([]*discordgo.GuildBan, error) {
		afterIDs = append(afterIDs, afterID)
		if afterID == "" {
			return fullPage, nil
		}
		return []*discordgo.GuildBan{
			{User: &discordgo.User{ID: "900"}},
		}, nil
	}

	rig.slash("unban", discordgo.PermissionBanMembers, userOption("user_id", "900"))

	resp := rig.lastResponse(t)
	if !strings.Contains(resp.Content, "Unbanned") {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("GuildBanDelete") != 1 {
		t.Errorf("unban calls = %d, want 1", rig.session.Calls("GuildBanDelete"))
	}
	wantAfter := fullPage[len(fullPage)-1].User.ID
	if len(afterIDs) != 2 || afterIDs[0] != "" || afterIDs[1] != wantAfter {
		t.Errorf("afterIDs = %v, want [\"\" %s]", afterIDs, wantAfter)
	}
}

func TestDemoteRemovesHighestRole(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.session.GuildMemberFunc = func(_, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
		return &discordgo.Member{
			User:  &discordgo.User{ID: userID},
			Roles: []string{"role-low", "role-high", "role-mid"},
		}, nil
	}
	rig.session.GuildRolesFunc = func(_ string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
		return []*discordgo.Role{
			{ID: "role-low", Position: 1},
			{ID: "role-mid", Position: 5},
			{ID: "role-high", Position: 9},
		}, nil
	}
	var removed string
	rig.session.GuildMemberRoleRemoveFunc = func(_, _, roleID string, _ ...discordgo.RequestOption) error {
		removed = roleID
		return nil
	}

	rig.slash("demote", discordgo.PermissionManageRoles, userOption("member", "900"))

	if removed != "role-high" {
		t.Errorf("removed = %q, want role-high", removed)
	}
}

func TestDemoteNoRoles(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.session.GuildMemberFunc = func(_, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
		return &discordgo.Member{User: &discordgo.User{ID: userID}}, nil
	}

	rig.slash("demote", discordgo.PermissionManageRoles, userOption("member", "900"))

	resp := rig.lastResponse(t)
	if resp.Content != "User Has No Roles To Remove." {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("GuildMemberRoleRemove") != 0 {
		t.Error("no role removal expected")
	}
}

func TestModMailNotConfigured(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.slash("modmail", 0, stringOption("message", "help please"))

	resp := rig.lastResponse(t)
	if resp.Content != "Mod Mail Channel Not Configured." {
		t.Errorf("response = %q", resp.Content)
	}
}

func TestModMailRelay(t *testing.T) {
	cfg := settings.New("!", "mail-chan", "", nil, nil)
	rig := newTestRig(t, cfg)
	var relayed string
	rig.session.ChannelMessageSendFunc = func(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
		relayed = channelID + "|" + content
		return &discordgo.Message{}, nil
	}

	rig.slash("modmail", 0, stringOption("message", "help please"))

	if !strings.HasPrefix(relayed, "mail-chan|") || !strings.Contains(relayed, "help please") {
		t.Errorf("relayed = %q", relayed)
	}
	resp := rig.lastResponse(t)
	if resp.Content != "Your Message Has Been Sent To The Mods." {
		t.Errorf("response = %q", resp.Content)
	}
}

func TestEmbedRejectsBadJSON(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.slash("embed", 0, stringOption("json_code", "{broken"))

	resp := rig.lastResponse(t)
	if !strings.Contains(resp.Content, "Invalid Argument") {
		t.Errorf("response = %q", resp.Content)
	}
	if rig.session.Calls("ChannelMessageSendComplex") != 0 {
		t.Error("malformed JSON must be rejected before any send")
	}
}

func TestPrefixFallbackDispatches(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.session.HeartbeatLatencyFunc = func() time.Duration { return 7 * time.Millisecond }
	rig.session.UserChannelPermissionsFunc = func(_, _ string, _ ...discordgo.RequestOption) (int64, error) {
		return 0, nil
	}
	var sent *discordgo.MessageSend
	rig.session.ChannelMessageSendComplexFunc = func(_ string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
		sent = data
		return &discordgo.Message{}, nil
	}

	rig.bot.HandleMessage(context.Background(), &discordgo.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		GuildID:   "g1",
		Content:   "!ping",
		Author:    &discordgo.User{ID: "user-1"},
	})

	if sent == nil || !strings.Contains(sent.Content, "7ms") {
		t.Fatalf("sent = %+v", sent)
	}
}

func TestPrefixUnknownCommandIsSilent(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.bot.HandleMessage(context.Background(), &discordgo.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		GuildID:   "g1",
		Content:   "!nosuchcommand hello",
		Author:    &discordgo.User{ID: "user-1"},
	})

	if n := len(rig.session.Trace()); n != 0 {
		t.Errorf("remote calls = %v, want none", rig.session.Trace())
	}
}

func TestBotAuthoredMessagesAreIgnored(t *testing.T) {
	cfg := settings.New("!", "", "", nil, []string{"spam"})
	rig := newTestRig(t, cfg)

	rig.bot.HandleMessage(context.Background(), &discordgo.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		GuildID:   "g1",
		Content:   "spam from a bot",
		Author:    &discordgo.User{ID: "bot-2", Bot: true},
	})

	if n := len(rig.session.Trace()); n != 0 {
		t.Errorf("remote calls = %v, want none", rig.session.Trace())
	}
}

func TestCommandSync(t *testing.T) {
	rig := newTestRig(t, nil)

	if err := rig.bot.syncCommands(); err != nil {
		t.Fatalf("syncCommands: %v", err)
	}
	want := len(rig.bot.registry.Descriptors())
	if got := rig.session.Calls("ApplicationCommandCreate"); got != want {
		t.Errorf("registered %d commands, want %d", got, want)
	}
}

func TestCommandSyncReconcilesExisting(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.session.ApplicationCommandsFunc = func(_, _ string, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
		return []*discordgo.ApplicationCommand{
			{ID: "cmd-ping", Name: "ping"},
			{ID: "cmd-stale", Name: "lockdown"},
		}, nil
	}
	var edited, deleted []string
	rig.session.ApplicationCommandEditFunc = func(_, _, cmdID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
		edited = append(edited, cmdID)
		return cmd, nil
	}
	rig.session.ApplicationCommandDeleteFunc = func(_, _, cmdID string, _ ...discordgo.RequestOption) error {
		deleted = append(deleted, cmdID)
		return nil
	}

	if err := rig.bot.syncCommands(); err != nil {
		t.Fatalf("syncCommands: %v", err)
	}

	if len(edited) != 1 || edited[0] != "cmd-ping" {
		t.Errorf("edited = %v, want the existing ping command", edited)
	}
	if len(deleted) != 1 || deleted[0] != "cmd-stale" {
		t.Errorf("deleted = %v, want the stale command", deleted)
	}
	want := len(rig.bot.registry.Descriptors()) - 1
	if got := rig.session.Calls("ApplicationCommandCreate"); got != want {
		t.Errorf("created %d commands, want %d", got, want)
	}
}

func TestUnknownSlashCommandGetsNotice(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.slash("lockdown", 0)

	resp := rig.lastResponse(t)
	if resp.Content != "Unknown Command." {
		t.Errorf("response = %q", resp.Content)
	}
	if resp.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Error("notice should be ephemeral")
	}
}

func TestReadyStartupRunsOnce(t *testing.T) {
	rig := newTestRig(t, nil)
	t.Cleanup(func() { rig.bot.Close() })
	ready := &discordgo.Ready{User: &discordgo.User{Username: "warden"}}

	rig.bot.onReady(nil, ready)
	created := rig.session.Calls("ApplicationCommandCreate")

	rig.bot.onReady(nil, ready)

	if got := rig.session.Calls("ApplicationCommandCreate"); got != created {
		t.Errorf("second ready re-synced commands: %d -> %d calls", created, got)
	}
}
