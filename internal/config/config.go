package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Portal
	PortalBaseURL  string        `env:"PORTAL_BASE_URL" envDefault:"https://www.ivasms.com"`
	PortalEmail    string        `env:"PORTAL_EMAIL,required"`
	PortalPassword string        `env:"PORTAL_PASSWORD,required"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// Telegram
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID,required"`

	// Storage
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/otprelay.db"`
	CacheFile    string `env:"CACHE_FILE" envDefault:"./data/otp_cache.json"`

	// Polling
	CacheWindow   time.Duration `env:"CACHE_WINDOW" envDefault:"30m"`
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	ErrorInterval time.Duration `env:"ERROR_INTERVAL" envDefault:"60s"`
	AutoStart     bool          `env:"AUTO_START" envDefault:"false"`

	// Control surface
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":5000"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.CacheWindow <= 0 {
		return nil, fmt.Errorf("CACHE_WINDOW must be positive, got %s", cfg.CacheWindow)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}

	return cfg, nil
}
