package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"backtester/internal/auth"
	"backtester/internal/config"
	"backtester/internal/database"
	"backtester/internal/marketdata"
	"backtester/internal/notify"
	"backtester/internal/payment"
	"backtester/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting backtester API")

	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	loader := marketdata.NewClient(marketdata.ClientOptions{
		APIKey:         cfg.MarketAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: 5,
	})

	notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create telegram notifier")
	}

	srv := server.New(server.Options{
		Loader:         loader,
		Store:          db,
		Auth:           auth.NewService(cfg.JWTSecret, time.Duration(cfg.TokenTTLMin)*time.Minute),
		Payments:       payment.NewService(cfg.StripeAPIKey),
		Notifier:       notifier,
		InitialCapital: cfg.InitialCapital,
		HistoryLimit:   cfg.HistoryLimit,
	})

	log.Info().Str("addr", cfg.ListenAddr).Msg("Listening")
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Routes()); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
