package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Server
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upstream language model
	MistralAPIKey string `env:"MISTRAL_API_KEY"`
	MistralURL    string `env:"MISTRAL_URL" envDefault:"https://api.mistral.ai/v1"`
	MistralModel  string `env:"MISTRAL_MODEL" envDefault:"mistral-small-latest"`

	// Persona preamble injected by the proxy
	PersonaPromptFile string `env:"PERSONA_PROMPT_FILE"`

	// Booking
	BookingWebhookURL string `env:"BOOKING_WEBHOOK_URL"`
	DatabaseURL       string `env:"DATABASE_URL"`

	// Telegram front end, disabled when empty
	BotToken           string `env:"BOT_TOKEN"`
	DropPendingUpdates bool   `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Operations chat receiving booking and error notices
	LogTelegramChatID int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int   `env:"LOG_TOPIC_ERROR"`
	LogTopicBooking   int   `env:"LOG_TOPIC_BOOKING"`

	// Requests per minute per client address on /api/chat
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`

	// Terminal client
	ChatEndpoint string `env:"CHAT_ENDPOINT" envDefault:"http://localhost:3000/api/chat"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Persona returns the preamble the proxy prepends to every conversation.
func (c *Config) Persona() (string, error) {
	if c.PersonaPromptFile == "" {
		return defaultPersona, nil
	}
	data, err := os.ReadFile(c.PersonaPromptFile)
	if err != nil {
		return "", fmt.Errorf("read persona prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
