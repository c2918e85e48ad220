// Package server exposes the REST API: registration and login, the
// backtest endpoints, run history, ticker analytics, and the mock premium
// payment flow. The simulation itself lives in the engine package; handlers
// only fetch data, call the engine, and persist the outcome.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"backtester/internal/auth"
	"backtester/internal/model"
	"backtester/internal/payment"
)

// PriceLoader supplies ordered daily close series for a ticker.
type PriceLoader interface {
	DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error)
}

// Store persists users and backtest runs.
type Store interface {
	CreateUser(email, hashedPassword string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	SetPremium(userID int64, premium bool) error
	SaveRun(run *model.Run, curve []model.EquityPoint) (int64, error)
	UserRuns(userID int64, limit int) ([]model.Run, error)
	PopularTickers(limit int) ([]model.TickerCount, error)
}

// Notifier is told about completed runs; implementations must not block
// request handling on delivery problems.
type Notifier interface {
	RunCompleted(run *model.Run)
}

// Options wires the server's collaborators and tunables.
type Options struct {
	Loader         PriceLoader
	Store          Store
	Auth           *auth.Service
	Payments       *payment.Service
	Notifier       Notifier
	InitialCapital float64
	HistoryLimit   int
}

// Server holds the handler dependencies.
type Server struct {
	loader         PriceLoader
	store          Store
	auth           *auth.Service
	payments       *payment.Service
	notifier       Notifier
	initialCapital float64
	historyLimit   int
	logger         zerolog.Logger
}

// New creates a Server from its collaborators.
func New(opts Options) *Server {
	if opts.InitialCapital <= 0 {
		opts.InitialCapital = 10000
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}

	return &Server{
		loader:         opts.Loader,
		store:          opts.Store,
		auth:           opts.Auth,
		payments:       opts.Payments,
		notifier:       opts.Notifier,
		initialCapital: opts.InitialCapital,
		historyLimit:   opts.HistoryLimit,
		logger:         log.With().Str("component", "http_server").Logger(),
	}
}

// Routes returns the API mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /backtest", s.requireAuth(s.handleBacktest))
	mux.HandleFunc("POST /backtest/test", s.handleBacktestTest)
	mux.HandleFunc("GET /backtest/history", s.requireAuth(s.handleHistory))
	mux.HandleFunc("GET /analytics/popular-tickers", s.handlePopularTickers)
	mux.HandleFunc("POST /payment/create-intent", s.requireAuth(s.handleCreateIntent))
	mux.HandleFunc("GET /user/profile", s.requireAuth(s.handleProfile))
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}
