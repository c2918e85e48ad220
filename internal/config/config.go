package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	// Postgres
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"backtester"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"-"`
	DBName     string `env:"DB_NAME" envDefault:"backtester"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Market data
	MarketAPIKey   string `env:"MARKET_API_KEY" envDefault:"-"`
	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds

	// Auth
	JWTSecret   string `env:"JWT_SECRET" envDefault:"-"`
	TokenTTLMin int    `env:"TOKEN_TTL_MINUTES" envDefault:"30"`

	// Payments
	StripeAPIKey string `env:"STRIPE_API_KEY" envDefault:"-"`

	// Notifications
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN" envDefault:"-"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`

	// Service
	ListenAddr     string  `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	InitialCapital float64 `env:"INITIAL_CAPITAL" envDefault:"10000"`
	HistoryLimit   int     `env:"HISTORY_LIMIT" envDefault:"20"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "backtester")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "backtester")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.MarketAPIKey = os.Getenv("MARKET_API_KEY")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.TokenTTLMin = getEnvIntWithDefault("TOKEN_TTL_MINUTES", 30)

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.ListenAddr = getEnvWithDefault("LISTEN_ADDR", ":8080")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.InitialCapital = getEnvFloatWithDefault("INITIAL_CAPITAL", 10000)
	cfg.HistoryLimit = getEnvIntWithDefault("HISTORY_LIMIT", 20)

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
