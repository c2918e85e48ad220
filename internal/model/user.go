package model

import "time"

// User is a registered account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsPremium      bool      `json:"is_premium"`
	CreatedAt      time.Time `json:"created_at"`
}

// Run is a persisted backtest: the request parameters plus the summary
// metrics, stored per user so past runs can be listed and tickers ranked.
type Run struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id,omitempty"`
	Ticker              string    `json:"ticker"`
	StartDate           string    `json:"start_date"`
	EndDate             string    `json:"end_date"`
	SMAPeriod           int       `json:"sma_period"`
	Rule                Rule      `json:"rule"`
	TotalReturn         float64   `json:"total_return"`
	WinRate             float64   `json:"win_rate"`
	NumberOfTrades      int       `json:"number_of_trades"`
	FinalPortfolioValue float64   `json:"final_portfolio_value"`
	SharpeRatio         float64   `json:"sharpe_ratio"`
	CreatedAt           time.Time `json:"created_at"`
	ExecutionSeconds    float64   `json:"execution_seconds,omitempty"`
}

// TickerCount is one row of the popular-tickers aggregation.
type TickerCount struct {
	Ticker string `json:"ticker"`
	Count  int    `json:"count"`
}
