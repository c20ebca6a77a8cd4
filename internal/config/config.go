// Package config содержит логику чтения конфигурации магазина.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultTimezone   = "Asia/Ho_Chi_Minh"
)

// Config содержит параметры конфигурации магазина.
type Config struct {
	RunAddress       string        `env:"RUN_ADDRESS"`
	DatabaseURI      string        `env:"DATABASE_URI"`
	NotifyWebhookURL string        `env:"NOTIFY_WEBHOOK_URL"`
	Timezone         string        `env:"TIMEZONE"`
	AppEnv           string        `env:"APP_ENV" envDefault:"production"`
	AdminPassword    string        `env:"ADMIN_PASSWORD_HASH"`
	AuthSecret       string        `env:"AUTH_SECRET"`
	ReminderSchedule string        `env:"REMINDER_SCHEDULE" envDefault:"0 8 * * *"`
	SupportZalo      string        `env:"SUPPORT_ZALO" envDefault:"0987328409"`
	CartTTL          time.Duration `env:"CART_TTL" envDefault:"24h"`

	location *time.Location
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envNotifyURL := cfg.NotifyWebhookURL
	envTimezone := cfg.Timezone

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory store when empty")
	flag.StringVar(&cfg.NotifyWebhookURL, "n", "", "webhook for expiring subscription digests")
	flag.StringVar(&cfg.Timezone, "tz", defaultTimezone, "shop time zone")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envNotifyURL != "" {
		cfg.NotifyWebhookURL = envNotifyURL
	}
	if envTimezone != "" {
		cfg.Timezone = envTimezone
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return cfg, nil
}

// Location возвращает часовой пояс магазина.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Development сообщает, что сервис запущен в режиме разработки.
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}
