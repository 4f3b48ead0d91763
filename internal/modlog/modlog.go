// Package modlog records moderation actions. Every event is written to the
// structured log; persistence and the guild log channel mirror are best
// effort and never block the action that produced the event.
package modlog

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"warden-bot/internal/settings"
	"warden-bot/internal/storage"
)

// Event describes a single moderation action taken by the bot.
type Event struct {
	GuildID string
	Actor   string
	Action  string
	Target  string
	Reason  string
	At      time.Time
}

// Sender is the slice of the gateway session the mirror needs.
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Logger struct {
	logger   *zap.Logger
	store    *storage.Store
	settings *settings.Store
	sender   Sender
}

func New(logger *zap.Logger, store *storage.Store, settings *settings.Store, sender Sender) *Logger {
	return &Logger{logger: logger, store: store, settings: settings, sender: sender}
}

func (l *Logger) Log(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	l.logger.Info("moderation event",
		zap.String("guild_id", e.GuildID),
		zap.String("actor", e.Actor),
		zap.String("action", e.Action),
		zap.String("target", e.Target),
		zap.String("reason", e.Reason),
	)

	if l.store != nil {
		err := l.store.AddEvent(ctx, storage.Event{
			GuildID:   e.GuildID,
			ActorID:   e.Actor,
			Action:    e.Action,
			Target:    e.Target,
			Reason:    e.Reason,
			CreatedAt: e.At,
		})
		if err != nil {
			l.logger.Warn("persist moderation event", zap.Error(err))
		}
	}

	if l.sender != nil && l.settings != nil {
		if channelID := l.settings.LogChannel(); channelID != "" {
			if _, err := l.sender.ChannelMessageSend(channelID, formatEvent(e)); err != nil {
				l.logger.Warn("mirror moderation event", zap.Error(err))
			}
		}
	}
}

func formatEvent(e Event) string {
	msg := fmt.Sprintf("**%s** by <@%s>", e.Action, e.Actor)
	if e.Target != "" {
		msg += fmt.Sprintf(" on %s", e.Target)
	}
	if e.Reason != "" {
		msg += fmt.Sprintf(" (%s)", e.Reason)
	}
	return msg
}
