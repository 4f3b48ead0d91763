package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken      string       `yaml:"discord_token"`
	DatabasePath      string       `yaml:"database_path"`
	LogLevel          string       `yaml:"log_level"`
	Prefix            string       `yaml:"prefix"`
	ModMailChannel    string       `yaml:"mod_mail_channel"`
	LogChannel        string       `yaml:"log_channel"`
	Questions         []string     `yaml:"questions"`
	BannedWords       []string     `yaml:"banned_words"`
	NoticeSeconds     int          `yaml:"notice_seconds"`
	PresenceMinutes   int          `yaml:"presence_minutes"`
	ConfirmTTLMinutes int          `yaml:"confirm_ttl_minutes"`
	RetentionDays     int          `yaml:"retention_days"`
	Health            HealthConfig `yaml:"health"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath: "/data/warden.db",
		LogLevel:     "info",
		Prefix:       "!",
		Questions: []string{
			"Why do you want to be a mod?",
			"What experience do you have?",
		},
		NoticeSeconds:     5,
		PresenceMinutes:   30,
		ConfirmTTLMinutes: 10,
		RetentionDays:     14,
		Health:            HealthConfig{Enabled: false, Addr: ":8080"},
	}
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if len(cfg.Questions) == 0 {
		cfg.Questions = DefaultConfig().Questions
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Prefix = envString("PREFIX", cfg.Prefix)
	cfg.ModMailChannel = envString("MOD_MAIL_CHANNEL", cfg.ModMailChannel)
	cfg.LogChannel = envString("LOG_CHANNEL", cfg.LogChannel)
	cfg.Questions = envList("QUESTIONS", cfg.Questions)
	cfg.BannedWords = envList("BANNED_WORDS", cfg.BannedWords)
	cfg.NoticeSeconds = envInt("NOTICE_SECONDS", cfg.NoticeSeconds)
	cfg.PresenceMinutes = envInt("PRESENCE_MINUTES", cfg.PresenceMinutes)
	cfg.ConfirmTTLMinutes = envInt("CONFIRM_TTL_MINUTES", cfg.ConfirmTTLMinutes)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
