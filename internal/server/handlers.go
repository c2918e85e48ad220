package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"backtester/internal/auth"
	"backtester/internal/database"
	"backtester/internal/engine"
	"backtester/internal/marketdata"
	"backtester/internal/model"
)

const dateLayout = "2006-01-02"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
}

type backtestResponse struct {
	model.Result
	BacktestID int64 `json:"backtest_id,omitempty"`
}

type paymentRequest struct {
	Amount   int64  `json:"amount"` // in cents
	Currency string `json:"currency"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !strings.Contains(req.Email, "@") || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := s.store.CreateUser(req.Email, hash)
	if errors.Is(err, database.ErrDuplicateEmail) {
		writeError(w, http.StatusBadRequest, "email already registered")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	s.issueToken(w, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to look up user")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || !auth.VerifyPassword(user.HashedPassword, req.Password) {
		writeError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}

	s.issueToken(w, user)
}

func (s *Server) issueToken(w http.ResponseWriter, user *model.User) {
	token, err := s.auth.IssueToken(user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID,
	})
}

// handleBacktest runs a backtest for an authenticated user and persists it.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	s.runBacktest(w, r, currentUser(r))
}

// handleBacktestTest is the development endpoint: no auth, no persistence.
func (s *Server) handleBacktestTest(w http.ResponseWriter, r *http.Request) {
	s.runBacktest(w, r, nil)
}

func (s *Server) runBacktest(w http.ResponseWriter, r *http.Request, user *model.User) {
	started := time.Now()

	var req model.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Unknown rule enum values surface here as decode errors.
		writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}

	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker required")
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "start date must be before end date")
		return
	}

	series, err := s.loader.DailyCloses(r.Context(), req.Ticker, start, end)
	if err != nil {
		var uerr *marketdata.UpstreamDataError
		if errors.As(err, &uerr) {
			s.logger.Warn().Err(err).Str("ticker", req.Ticker).Msg("Market data fetch failed")
			writeError(w, http.StatusBadGateway, uerr.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Price loader failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	result, err := engine.Run(series, req.SMAPeriod, req.Rule, s.initialCapital)
	if err != nil {
		var verr *engine.ValidationError
		var ierr *engine.InsufficientDataError
		switch {
		case errors.As(err, &verr), errors.As(err, &ierr):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error().Err(err).Msg("Backtest failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	resp := backtestResponse{Result: *result}

	if user != nil {
		run := &model.Run{
			UserID:              user.ID,
			Ticker:              req.Ticker,
			StartDate:           req.StartDate,
			EndDate:             req.EndDate,
			SMAPeriod:           req.SMAPeriod,
			Rule:                req.Rule,
			TotalReturn:         result.TotalReturn,
			WinRate:             result.WinRate,
			NumberOfTrades:      result.NumberOfTrades,
			FinalPortfolioValue: result.FinalPortfolioValue,
			SharpeRatio:         result.SharpeRatio,
			ExecutionSeconds:    time.Since(started).Seconds(),
		}
		id, err := s.store.SaveRun(run, result.EquityCurve)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to persist run")
			writeError(w, http.StatusInternalServerError, "failed to save backtest")
			return
		}
		resp.BacktestID = id
		run.ID = id

		if s.notifier != nil {
			s.notifier.RunCompleted(run)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	runs, err := s.store.UserRuns(user.ID, s.historyLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load history")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}

	writeJSON(w, http.StatusOK, map[string][]model.Run{"backtests": runs})
}

func (s *Server) handlePopularTickers(w http.ResponseWriter, r *http.Request) {
	popular, err := s.store.PopularTickers(10)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to aggregate tickers")
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	if popular == nil {
		popular = []model.TickerCount{}
	}

	writeJSON(w, http.StatusOK, map[string][]model.TickerCount{"popular_tickers": popular})
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	intent, err := s.payments.CreateIntent(user.ID, req.Amount, req.Currency)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create payment intent")
		writeError(w, http.StatusInternalServerError, "payment failed")
		return
	}

	if err := s.store.SetPremium(user.ID, true); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set premium flag")
		writeError(w, http.StatusInternalServerError, "payment failed")
		return
	}

	writeJSON(w, http.StatusOK, intent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
