package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"warden-bot/internal/bot"
	"warden-bot/internal/config"
	"warden-bot/internal/discord"
	"warden-bot/internal/filter"
	"warden-bot/internal/modlog"
	"warden-bot/internal/settings"
	"warden-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("migrate storage", zap.Error(err))
	}

	gateway, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Fatal("create gateway session", zap.Error(err))
	}
	session := discord.NewLiveSession(gateway)

	settingsStore := settings.New(cfg.Prefix, cfg.ModMailChannel, cfg.LogChannel, cfg.Questions, cfg.BannedWords)
	actionLog := modlog.New(logger, store, settingsStore, session)
	filterModule := filter.New(logger, session, settingsStore, actionLog,
		time.Duration(cfg.NoticeSeconds)*time.Second)

	warden, err := bot.New(logger, session, settingsStore, actionLog, filterModule, bot.Options{
		ConfirmTTL:       time.Duration(cfg.ConfirmTTLMinutes) * time.Minute,
		PresenceInterval: time.Duration(cfg.PresenceMinutes) * time.Minute,
	})
	if err != nil {
		logger.Fatal("build bot", zap.Error(err))
	}

	if err := warden.Start(gateway); err != nil {
		logger.Fatal("open gateway", zap.Error(err))
	}
	logger.Info("bot started")

	go runRetentionLoop(ctx, logger, store, cfg.RetentionDays)

	if cfg.Health.Enabled {
		go runHealthServer(logger, cfg.Health.Addr)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()
	if err := warden.Close(); err != nil {
		logger.Error("close gateway", zap.Error(err))
	}
}

func runRetentionLoop(ctx context.Context, logger *zap.Logger, store *storage.Store, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupEvents(ctx, retentionDays)
			if err != nil {
				logger.Error("cleanup moderation events", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("cleaned up moderation events", zap.Int64("removed", removed))
			}
		}
	}
}

func runHealthServer(logger *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("health server", zap.Error(err))
	}
}
