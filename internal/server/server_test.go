package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backtester/internal/auth"
	"backtester/internal/database"
	"backtester/internal/marketdata"
	"backtester/internal/model"
	"backtester/internal/payment"
)

// stubLoader returns a canned series or error regardless of the query.
type stubLoader struct {
	series []model.PricePoint
	err    error
}

func (l *stubLoader) DailyCloses(_ context.Context, _ string, _, _ time.Time) ([]model.PricePoint, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.series, nil
}

// memStore is an in-memory Store for handler tests.
type memStore struct {
	users  map[string]*model.User
	runs   []model.Run
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*model.User), nextID: 1}
}

func (s *memStore) CreateUser(email, hashedPassword string) (*model.User, error) {
	if _, ok := s.users[email]; ok {
		return nil, database.ErrDuplicateEmail
	}
	user := &model.User{
		ID:             s.nextID,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	s.nextID++
	s.users[email] = user
	return user, nil
}

func (s *memStore) GetUserByEmail(email string) (*model.User, error) {
	return s.users[email], nil
}

func (s *memStore) SetPremium(userID int64, premium bool) error {
	for _, u := range s.users {
		if u.ID == userID {
			u.IsPremium = premium
			return nil
		}
	}
	return fmt.Errorf("user %d not found", userID)
}

func (s *memStore) SaveRun(run *model.Run, _ []model.EquityPoint) (int64, error) {
	id := s.nextID
	s.nextID++
	saved := *run
	saved.ID = id
	saved.CreatedAt = time.Now()
	s.runs = append(s.runs, saved)
	return id, nil
}

func (s *memStore) UserRuns(userID int64, limit int) ([]model.Run, error) {
	var runs []model.Run
	for i := len(s.runs) - 1; i >= 0 && len(runs) < limit; i-- {
		if s.runs[i].UserID == userID {
			runs = append(runs, s.runs[i])
		}
	}
	return runs, nil
}

func (s *memStore) PopularTickers(limit int) ([]model.TickerCount, error) {
	counts := make(map[string]int)
	for _, r := range s.runs {
		counts[r.Ticker]++
	}
	var out []model.TickerCount
	for ticker, n := range counts {
		out = append(out, model.TickerCount{Ticker: ticker, Count: n})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func stepSeries() []model.PricePoint {
	closes := []float64{10, 10, 10, 12, 12, 12, 12, 12, 12, 12}
	series := make([]model.PricePoint, len(closes))
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		series[i] = model.PricePoint{Date: base.AddDate(0, 0, i), Close: c}
	}
	return series
}

func newTestServer(loader PriceLoader, store Store) *Server {
	return New(Options{
		Loader:         loader,
		Store:          store,
		Auth:           auth.NewService("test-secret", 30*time.Minute),
		Payments:       payment.NewService(""),
		InitialCapital: 10000,
	})
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	rec := doJSON(t, mux, http.MethodPost, "/register", "", map[string]string{
		"email":    "trader@example.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var tok tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decoding token: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", tok)
	}
	return tok.AccessToken
}

func backtestBody() map[string]any {
	return map[string]any{
		"ticker":     "AAPL",
		"start_date": "2024-01-02",
		"end_date":   "2024-01-11",
		"sma_period": 3,
		"rule": map[string]string{
			"if_condition": "price > sma",
			"then_action":  "buy",
			"else_action":  "sell",
		},
	}
}

func TestHealth(t *testing.T) {
	mux := newTestServer(&stubLoader{}, newMemStore()).Routes()
	rec := doJSON(t, mux, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBacktestFlow(t *testing.T) {
	store := newMemStore()
	mux := newTestServer(&stubLoader{series: stepSeries()}, store).Routes()
	token := registerAndLogin(t, mux)

	rec := doJSON(t, mux, http.MethodPost, "/backtest", token, backtestBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("backtest status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp backtestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.BacktestID == 0 {
		t.Error("backtest_id missing for authenticated run")
	}
	if resp.NumberOfTrades != 1 {
		t.Errorf("NumberOfTrades = %d, want 1", resp.NumberOfTrades)
	}
	if resp.TotalReturn != 0 {
		t.Errorf("TotalReturn = %v, want 0", resp.TotalReturn)
	}
	if len(store.runs) != 1 {
		t.Fatalf("persisted runs = %d, want 1", len(store.runs))
	}
	if store.runs[0].Ticker != "AAPL" {
		t.Errorf("persisted ticker = %q, want AAPL", store.runs[0].Ticker)
	}

	// History shows the run.
	rec = doJSON(t, mux, http.MethodGet, "/backtest/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var history map[string][]model.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if len(history["backtests"]) != 1 {
		t.Errorf("history length = %d, want 1", len(history["backtests"]))
	}
}

func TestBacktest_RequiresAuth(t *testing.T) {
	mux := newTestServer(&stubLoader{series: stepSeries()}, newMemStore()).Routes()
	rec := doJSON(t, mux, http.MethodPost, "/backtest", "", backtestBody())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBacktestTest_NoPersistence(t *testing.T) {
	store := newMemStore()
	mux := newTestServer(&stubLoader{series: stepSeries()}, store).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/backtest/test", "", backtestBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp backtestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.BacktestID != 0 {
		t.Error("test endpoint must not persist runs")
	}
	if len(store.runs) != 0 {
		t.Errorf("persisted runs = %d, want 0", len(store.runs))
	}
}

func TestBacktest_RejectsUnknownRuleEnum(t *testing.T) {
	mux := newTestServer(&stubLoader{series: stepSeries()}, newMemStore()).Routes()

	body := backtestBody()
	body["rule"] = map[string]string{
		"if_condition": "price > sma",
		"then_action":  "yolo",
		"else_action":  "sell",
	}
	rec := doJSON(t, mux, http.MethodPost, "/backtest/test", "", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBacktest_RejectsBadDates(t *testing.T) {
	mux := newTestServer(&stubLoader{series: stepSeries()}, newMemStore()).Routes()

	tests := []struct {
		name       string
		start, end string
	}{
		{"reversed range", "2024-02-01", "2024-01-01"},
		{"bad format", "01/02/2024", "2024-02-01"},
		{"equal dates", "2024-01-02", "2024-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := backtestBody()
			body["start_date"] = tt.start
			body["end_date"] = tt.end
			rec := doJSON(t, mux, http.MethodPost, "/backtest/test", "", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestBacktest_UpstreamFailure(t *testing.T) {
	loader := &stubLoader{err: &marketdata.UpstreamDataError{Ticker: "AAPL", Err: fmt.Errorf("fetch failed")}}
	mux := newTestServer(loader, newMemStore()).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/backtest/test", "", backtestBody())
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestBacktest_InsufficientData(t *testing.T) {
	mux := newTestServer(&stubLoader{series: stepSeries()}, newMemStore()).Routes()

	body := backtestBody()
	body["sma_period"] = 99
	rec := doJSON(t, mux, http.MethodPost, "/backtest/test", "", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPaymentMarksPremium(t *testing.T) {
	store := newMemStore()
	mux := newTestServer(&stubLoader{series: stepSeries()}, store).Routes()
	token := registerAndLogin(t, mux)

	rec := doJSON(t, mux, http.MethodPost, "/payment/create-intent", token, paymentRequest{Amount: 999})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var intent payment.Intent
	if err := json.Unmarshal(rec.Body.Bytes(), &intent); err != nil {
		t.Fatalf("decoding intent: %v", err)
	}
	if intent.ClientSecret == "" {
		t.Error("intent missing client secret")
	}
	if !store.users["trader@example.com"].IsPremium {
		t.Error("user not marked premium after payment")
	}
}

func TestPopularTickers(t *testing.T) {
	store := newMemStore()
	mux := newTestServer(&stubLoader{series: stepSeries()}, store).Routes()
	token := registerAndLogin(t, mux)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, mux, http.MethodPost, "/backtest", token, backtestBody())
		if rec.Code != http.StatusOK {
			t.Fatalf("backtest status = %d", rec.Code)
		}
	}

	rec := doJSON(t, mux, http.MethodGet, "/analytics/popular-tickers", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string][]model.TickerCount
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	popular := resp["popular_tickers"]
	if len(popular) != 1 || popular[0].Ticker != "AAPL" || popular[0].Count != 2 {
		t.Errorf("popular tickers = %+v, want [{AAPL 2}]", popular)
	}
}
