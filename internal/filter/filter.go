// Package filter implements word-based auto-moderation. A message whose
// content contains any configured banned word is deleted, a short-lived
// notice is posted in its place, and one moderation event is recorded.
package filter

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"warden-bot/internal/discord"
	"warden-bot/internal/modlog"
	"warden-bot/internal/settings"
)

const noticeText = "Message Deleted Due To Inappropriate Content."

type Module struct {
	logger    *zap.Logger
	session   discord.Session
	settings  *settings.Store
	modlog    *modlog.Logger
	noticeTTL time.Duration
}

func New(logger *zap.Logger, session discord.Session, store *settings.Store, log *modlog.Logger, noticeTTL time.Duration) *Module {
	return &Module{
		logger:    logger,
		session:   session,
		settings:  store,
		modlog:    log,
		noticeTTL: noticeTTL,
	}
}

// Match reports the first banned word contained in content, case
// insensitively.
func (m *Module) Match(content string) (string, bool) {
	lowered := strings.ToLower(content)
	for _, word := range m.settings.BannedWords() {
		if word == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(word)) {
			return word, true
		}
	}
	return "", false
}

// HandleMessage runs the filter against one inbound message. It returns
// true when the message matched and was consumed: matched messages must
// not reach the command path.
func (m *Module) HandleMessage(ctx context.Context, msg *discordgo.Message) bool {
	word, ok := m.Match(msg.Content)
	if !ok {
		return false
	}

	if err := m.session.ChannelMessageDelete(msg.ChannelID, msg.ID); err != nil {
		m.logger.Error("delete filtered message",
			zap.String("channel_id", msg.ChannelID),
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}

	notice, err := m.session.ChannelMessageSend(msg.ChannelID, noticeText)
	if err != nil {
		m.logger.Warn("send filter notice", zap.Error(err))
	} else {
		channelID := msg.ChannelID
		noticeID := notice.ID
		time.AfterFunc(m.noticeTTL, func() {
			if err := m.session.ChannelMessageDelete(channelID, noticeID); err != nil {
				m.logger.Warn("delete filter notice", zap.Error(err))
			}
		})
	}

	m.modlog.Log(ctx, modlog.Event{
		GuildID: msg.GuildID,
		Actor:   msg.Author.ID,
		Action:  "content_filter_delete",
		Target:  msg.ID,
		Reason:  "banned word: " + word,
	})

	return true
}
