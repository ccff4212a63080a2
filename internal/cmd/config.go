package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quizhive/quizhive/internal/room"
)

// Config is the process configuration, loaded from an optional YAML file
// with environment variable fallbacks.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		Environment    string   `yaml:"environment"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Game struct {
		GracePeriodMinutes           int    `yaml:"grace_period_minutes"`
		DefaultTimerSeconds          int    `yaml:"default_timer_seconds"`
		DefaultMaxCategorySelections int    `yaml:"default_max_category_selections"`
		DefaultLocale                string `yaml:"default_locale"`
	} `yaml:"game"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML config file when present and fills every unset
// field from the environment or built-in defaults.
func loadConfig(path string) (*Config, error) {
	var config Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if config.Server.Port == "" {
		config.Server.Port = getEnv("PORT", "8080")
	}
	if config.Server.Environment == "" {
		config.Server.Environment = getEnv("ENVIRONMENT", "development")
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{getEnv("ALLOWED_ORIGINS", "*")}
	}
	if config.Game.GracePeriodMinutes == 0 {
		config.Game.GracePeriodMinutes = getEnvAsInt("GRACE_PERIOD_MINUTES", 10)
	}
	if config.Game.DefaultTimerSeconds == 0 {
		config.Game.DefaultTimerSeconds = getEnvAsInt("DEFAULT_TIMER_SECONDS", 60)
	}
	if config.Game.DefaultMaxCategorySelections == 0 {
		config.Game.DefaultMaxCategorySelections = getEnvAsInt("DEFAULT_MAX_CATEGORY_SELECTIONS", 5)
	}
	if config.Game.DefaultLocale == "" {
		config.Game.DefaultLocale = getEnv("DEFAULT_LOCALE", "en")
	}

	return &config, nil
}

// hubConfig maps the process configuration onto the hub's defaults.
func hubConfig(cfg *Config) room.Config {
	return room.Config{
		GracePeriod:                  time.Duration(cfg.Game.GracePeriodMinutes) * time.Minute,
		DefaultTimerSeconds:          cfg.Game.DefaultTimerSeconds,
		DefaultMaxCategorySelections: cfg.Game.DefaultMaxCategorySelections,
		DefaultLocale:                cfg.Game.DefaultLocale,
	}
}
