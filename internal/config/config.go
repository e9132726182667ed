package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrMissing is returned when a required variable is not set.
var ErrMissing = errors.New("required setting missing")

// Storage backends
const (
	BackendFile       = "file"
	BackendBadger     = "badger"
	BackendClickHouse = "clickhouse"
	BackendMemory     = "memory"
)

// Config holds the application configuration
type Config struct {
	AppEnv   string // "production" or "development"
	LogLevel string

	// HTTP front end
	HTTPPort string

	// Fact storage
	StoreBackend string
	StorePath    string // file backend
	BadgerDir    string // badger backend; empty runs in memory

	// Optional roster applied when the store holds no administrators
	SeedFile string

	// Telegram front end, enabled when TelegramToken is set
	TelegramToken  string
	AllowedUserIDs []int64
	WebhookMode    bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL     string // URL for webhook (required if WebhookMode is true)

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool
}

// BotEnabled reports whether the Telegram front end should run.
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{
		AppEnv:       getEnv("APP_ENV", "production"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		HTTPPort:     getEnv("PORT", "8080"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		SeedFile:     os.Getenv("SEED_FILE"),
	}

	switch config.StoreBackend {
	case BackendFile:
		config.StorePath = getEnv("STORE_PATH", "library_facts.nt")
	case BackendBadger:
		config.BadgerDir = os.Getenv("BADGER_DIR")
	case BackendMemory:
	case BackendClickHouse:
		if err := loadClickHouse(config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q (want file, badger, clickhouse or memory)", config.StoreBackend)
	}

	// Telegram bot (optional)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken != "" {
		if err := loadTelegram(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func loadTelegram(config *Config) error {
	// An empty list lets any Telegram user talk to the bot; login still applies.
	if allowedIDsStr := os.Getenv("ALLOWED_USER_IDS"); allowedIDsStr != "" {
		for _, idStr := range strings.Split(allowedIDsStr, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
			}
			config.AllowedUserIDs = append(config.AllowedUserIDs, id)
		}
	}

	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return fmt.Errorf("%w: WEBHOOK_URL is required when WEBHOOK_MODE is true", ErrMissing)
		}
	}
	return nil
}

func loadClickHouse(config *Config) error {
	config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
	if config.ClickHouseHost == "" {
		return fmt.Errorf("%w: CLICKHOUSE_HOST is required when STORE_BACKEND is clickhouse", ErrMissing)
	}

	portStr := os.Getenv("CLICKHOUSE_PORT")
	if portStr == "" {
		config.ClickHousePort = 9000 // Default ClickHouse native port
	} else {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
		}
		config.ClickHousePort = port
	}

	config.ClickHouseDatabase = getEnv("CLICKHOUSE_DATABASE", "default")
	config.ClickHouseUser = getEnv("CLICKHOUSE_USER", "default")
	config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
	config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
