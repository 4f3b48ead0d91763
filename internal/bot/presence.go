package bot

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// runPresenceLoop refreshes the watching status on a fixed interval until
// the bot is closed. Failures are logged and the loop keeps going.
func (b *Bot) runPresenceLoop() {
	b.updatePresence()

	ticker := time.NewTicker(b.presenceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.updatePresence()
		}
	}
}

func (b *Bot) updatePresence() {
	status := fmt.Sprintf("WATCHING %d SERVERS", b.session.GuildCount())
	if err := b.session.UpdateWatchStatus(0, status); err != nil {
		b.logger.Warn("update presence", zap.Error(err))
	}
}
