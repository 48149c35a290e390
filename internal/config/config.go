package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"task-reminder/internal/logging"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string `yaml:"telegram_token"`
	DatabaseURL   string `yaml:"database_url"`
	// Timezone is an IANA zone name; empty means the host's local zone.
	Timezone       string        `yaml:"timezone"`
	ResyncInterval time.Duration `yaml:"resync_interval"`
	// AgendaTime is the HH:MM the daily agenda goes out; empty disables it.
	AgendaTime       string         `yaml:"agenda_time"`
	NotifyRatePerSec float64        `yaml:"notify_rate_per_sec"`
	Log              logging.Config `yaml:"log"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		DatabaseURL:      "task_reminder.db",
		ResyncInterval:   10 * time.Minute,
		AgendaTime:       "08:00",
		NotifyRatePerSec: 1,
		Log:              logging.Config{Level: "info", Format: "console"},
	}
}

// Load reads the optional YAML file at path (or $REMINDER_CONFIG) and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("REMINDER_CONFIG"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "task_reminder.db"
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings needed to run the bot.
func (c Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	if c.ResyncInterval < 0 {
		return fmt.Errorf("resync_interval must not be negative, got %s", c.ResyncInterval)
	}
	if c.NotifyRatePerSec <= 0 {
		return fmt.Errorf("notify_rate_per_sec must be positive, got %v", c.NotifyRatePerSec)
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

func applyEnv(cfg *Config) error {
	if v := env("TELEGRAM_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := env("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := env("TZ_NAME"); v != "" {
		cfg.Timezone = v
	}
	if v := env("RESYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse RESYNC_INTERVAL: %w", err)
		}
		cfg.ResyncInterval = d
	}
	if v, ok := os.LookupEnv("AGENDA_TIME"); ok {
		cfg.AgendaTime = strings.TrimSpace(v)
	}
	if v := env("NOTIFY_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse NOTIFY_RATE: %w", err)
		}
		cfg.NotifyRatePerSec = rate
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
