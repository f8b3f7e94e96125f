package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Queue drivers for RunNow.
const (
	QueueDriverMemory = "memory"
	QueueDriverAMQP   = "amqp"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string
	HTTPAddr    string

	TelegramToken   string // optional; enables the feed channel and admin commands
	AdminTelegramID int64
	FeedChatID      int64

	SMTPURL string // shoutrrr smtp URL without the to= parameter

	QueueDriver string
	AMQPURL     string
	AMQPQueue   string

	BatchChunkSize    int
	SchedulerTimezone string
	SettingsCacheTTL  time.Duration
	DefaultSchedule   string // optional "HH:MM" registered on first boot
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.HTTPAddr = envOr("HTTP_ADDR", ":8080")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.AdminTelegramID, err = envInt64("ADMIN_TELEGRAM_ID"); err != nil {
		return nil, err
	}
	if cfg.FeedChatID, err = envInt64("FEED_CHAT_ID"); err != nil {
		return nil, err
	}

	cfg.SMTPURL = os.Getenv("SMTP_URL")

	cfg.QueueDriver = strings.ToLower(envOr("QUEUE_DRIVER", QueueDriverMemory))
	switch cfg.QueueDriver {
	case QueueDriverMemory:
	case QueueDriverAMQP:
		cfg.AMQPURL = os.Getenv("AMQP_URL")
		if cfg.AMQPURL == "" {
			return nil, fmt.Errorf("AMQP_URL is not set (required by QUEUE_DRIVER=amqp)")
		}
	default:
		return nil, fmt.Errorf("invalid QUEUE_DRIVER %q (use %q or %q)", cfg.QueueDriver, QueueDriverMemory, QueueDriverAMQP)
	}
	cfg.AMQPQueue = envOr("AMQP_QUEUE", "anniversary_runs")

	cfg.BatchChunkSize = 200
	if v := os.Getenv("BATCH_CHUNK_SIZE"); v != "" {
		cfg.BatchChunkSize, err = strconv.Atoi(v)
		if err != nil || cfg.BatchChunkSize < 1 {
			return nil, fmt.Errorf("invalid BATCH_CHUNK_SIZE %q", v)
		}
	}

	cfg.SchedulerTimezone = os.Getenv("SCHEDULER_TIMEZONE")
	if cfg.SchedulerTimezone != "" {
		if _, err := time.LoadLocation(cfg.SchedulerTimezone); err != nil {
			return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE: %w", err)
		}
	}

	cfg.SettingsCacheTTL = 5 * time.Minute
	if v := os.Getenv("SETTINGS_CACHE_TTL"); v != "" {
		cfg.SettingsCacheTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SETTINGS_CACHE_TTL: %w", err)
		}
	}

	cfg.DefaultSchedule = os.Getenv("DEFAULT_SCHEDULE")

	return cfg, nil
}

// Location returns the scheduler timezone, falling back to the server's local time.
func (c *AppConfig) Location() *time.Location {
	if c.SchedulerTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ParseHHMM splits a "HH:MM" string. Range checking is left to the registrar,
// which clamps out-of-range values.
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if hour, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	if minute, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	return hour, minute, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
