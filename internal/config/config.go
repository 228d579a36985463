package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	HTTPAddr    string   `mapstructure:"HTTP_ADDR"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	DBDSN       string `mapstructure:"DB_DSN"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTIssuer   string `mapstructure:"JWT_ISSUER"`
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	StorageURL        string        `mapstructure:"STORAGE_URL"`
	StorageServiceKey string        `mapstructure:"STORAGE_SERVICE_KEY"`
	StorageBucket     string        `mapstructure:"STORAGE_BUCKET"`
	SignedURLTTL      time.Duration `mapstructure:"SIGNED_URL_TTL"`

	AIBaseURL string        `mapstructure:"AI_BASE_URL"`
	AIAPIKey  string        `mapstructure:"AI_API_KEY"`
	AIModel   string        `mapstructure:"AI_MODEL"`
	AITimeout time.Duration `mapstructure:"AI_TIMEOUT"`

	GoldCredits      int `mapstructure:"GOLD_MONTHLY_CREDITS"`
	PlatinumCredits  int `mapstructure:"PLATINUM_MONTHLY_CREDITS"`
	AbuseStrikeLimit int `mapstructure:"ABUSE_STRIKE_LIMIT"`

	SessionCacheSize int           `mapstructure:"SESSION_CACHE_SIZE"`
	SessionCacheTTL  time.Duration `mapstructure:"SESSION_CACHE_TTL"`

	TelegramToken       string `mapstructure:"TELEGRAM_TOKEN"`
	TelegramAdminChatID int64  `mapstructure:"TELEGRAM_ADMIN_CHAT_ID"`
}

var defaults = map[string]any{
	"ENV":                      "development",
	"LOG_LEVEL":                "",
	"HTTP_ADDR":                ":8080",
	"CORS_ORIGINS":             []string{},
	"AUTO_MIGRATE":             false,
	"JWT_ISSUER":               "",
	"JWT_AUDIENCE":             "authenticated",
	"STORAGE_BUCKET":           "notes",
	"SIGNED_URL_TTL":           300 * time.Second,
	"AI_BASE_URL":              "https://api.openai.com/v1",
	"AI_MODEL":                 "gpt-4o-mini",
	"AI_TIMEOUT":               60 * time.Second,
	"GOLD_MONTHLY_CREDITS":     10000,
	"PLATINUM_MONTHLY_CREDITS": 25000,
	"ABUSE_STRIKE_LIMIT":       3,
	"SESSION_CACHE_SIZE":       4096,
	"SESSION_CACHE_TTL":        30 * time.Second,
}

// boundKeys - переменные без значения по умолчанию, которые viper должен видеть в окружении
var boundKeys = []string{
	"DB_DSN",
	"JWT_SECRET",
	"STORAGE_URL",
	"STORAGE_SERVICE_KEY",
	"AI_API_KEY",
	"TELEGRAM_TOKEN",
	"TELEGRAM_ADMIN_CHAT_ID",
}

// Load читает конфигурацию из .env файла (если он есть) и переменных окружения
func Load(envFile string) (*Config, error) {
	// Отсутствие .env не ошибка: в проде всё приходит из окружения
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.StorageURL == "" || c.StorageServiceKey == "" {
		return fmt.Errorf("STORAGE_URL and STORAGE_SERVICE_KEY are required")
	}
	if c.AIAPIKey == "" {
		return fmt.Errorf("AI_API_KEY is required but not set")
	}
	if c.SignedURLTTL <= 0 {
		return fmt.Errorf("SIGNED_URL_TTL must be positive")
	}
	if c.AbuseStrikeLimit <= 0 {
		return fmt.Errorf("ABUSE_STRIKE_LIMIT must be positive")
	}
	if c.GoldCredits < 0 || c.PlatinumCredits < 0 {
		return fmt.Errorf("monthly credits must not be negative")
	}
	if c.TelegramToken != "" && c.TelegramAdminChatID == 0 {
		return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	return nil
}

// IsProduction сообщает, запущен ли сервис в production-окружении
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
