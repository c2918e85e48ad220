package model

import "time"

// Trade is one complete enter-then-exit position cycle. A trade is recorded
// when a LONG position closes, including the forced close at series end.
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitDate   time.Time `json:"exit_date"`
	ExitPrice  float64   `json:"exit_price"`
	PnL        float64   `json:"pnl"`
}

// EquityPoint is one mark-to-market observation of the simulated portfolio.
// The curve holds exactly one point per day with a defined SMA.
type EquityPoint struct {
	Date           time.Time `json:"date"`
	PortfolioValue float64   `json:"portfolio_value"`
	Price          float64   `json:"price"`
	SMA            float64   `json:"sma"`
}

// Result is the immutable outcome of one backtest run. Displayed metrics
// (total return, win rate, final value, Sharpe) are rounded to 2 decimals;
// the equity curve and trade log are kept at full precision.
type Result struct {
	TotalReturn         float64       `json:"total_return"`
	WinRate             float64       `json:"win_rate"`
	NumberOfTrades      int           `json:"number_of_trades"`
	FinalPortfolioValue float64       `json:"final_portfolio_value"`
	SharpeRatio         float64       `json:"sharpe_ratio"`
	EquityCurve         []EquityPoint `json:"equity_curve"`
	Trades              []Trade       `json:"trades,omitempty"`
}

// BacktestRequest is the strategy definition as it arrives at the API
// boundary. The ticker is opaque to the engine; it is used only for data
// fetching and persistence labels.
type BacktestRequest struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	SMAPeriod int    `json:"sma_period"`
	Rule      Rule   `json:"rule"`
}
