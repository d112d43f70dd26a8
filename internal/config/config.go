package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Bot       BotConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Challenge ChallengeConfig
}

type BotConfig struct {
	Token                 string
	Environment           string // "development", "production", "test"
	AdminRoleIDs          []int64
	AdminLogChannelID     int64
	AnnouncementChannelID int64
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type ChallengeConfig struct {
	// ReminderInterval is how long a reminder task sleeps between wakes.
	ReminderInterval time.Duration
	// AcceptDeadline is how long the challenged party has before forfeiting.
	AcceptDeadline time.Duration
	// PromptTTL is how long an adjudication prompt stays selectable.
	PromptTTL time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsAdminRole reports whether any of the given role IDs is configured as an
// admin role.
func (b BotConfig) IsAdminRole(roleIDs []int64) bool {
	for _, id := range roleIDs {
		for _, admin := range b.AdminRoleIDs {
			if id == admin {
				return true
			}
		}
	}
	return false
}

func Load() (*Config, error) {
	// .env is a local development convenience; in production the variables
	// are injected directly, so a missing file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Bot: BotConfig{
			Token:                 getEnv("BOT_TOKEN", ""),
			Environment:           getEnv("APP_ENV", "development"),
			AdminRoleIDs:          getEnvInt64List("ADMIN_ROLE_IDS"),
			AdminLogChannelID:     getEnvInt64("ADMIN_LOG_CHANNEL_ID", 0),
			AnnouncementChannelID: getEnvInt64("ANNOUNCEMENT_CHANNEL_ID", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "tierbot"),
			Password: getEnv("DB_PASSWORD", "tierbot"),
			DBName:   getEnv("DB_NAME", "tierbot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Challenge: ChallengeConfig{
			ReminderInterval: getEnvDuration("CHALLENGE_REMINDER_INTERVAL", 24*time.Hour),
			AcceptDeadline:   getEnvDuration("CHALLENGE_ACCEPT_DEADLINE", 48*time.Hour),
			PromptTTL:        getEnvDuration("ADJUDICATION_PROMPT_TTL", 60*time.Second),
		},
	}

	if cfg.Challenge.ReminderInterval <= 0 {
		return nil, fmt.Errorf("CHALLENGE_REMINDER_INTERVAL must be positive")
	}
	if cfg.Challenge.AcceptDeadline <= 0 {
		return nil, fmt.Errorf("CHALLENGE_ACCEPT_DEADLINE must be positive")
	}
	if cfg.Challenge.PromptTTL <= 0 {
		return nil, fmt.Errorf("ADJUDICATION_PROMPT_TTL must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvInt64List parses a comma-separated list of integer IDs. Entries that
// fail to parse are skipped.
func getEnvInt64List(key string) []int64 {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}
