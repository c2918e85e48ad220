// Package engine implements the backtest simulation core: SMA calculation,
// rule evaluation, the flat/long position state machine, and the derived
// performance metrics. The engine is pure computation over an in-memory
// price series: it performs no I/O, keeps no shared state, and never logs,
// so any number of runs can execute concurrently.
package engine

import (
	"fmt"

	"backtester/internal/model"
)

// DefaultInitialCapital is the starting portfolio value when the caller
// does not configure one.
const DefaultInitialCapital = 10000.0

// Run executes one backtest: validate, compute the SMA series, replay the
// rule through the simulator, and derive the summary metrics. Identical
// inputs always reproduce an identical Result; there is no dependency on
// system time, randomness, or external I/O.
//
// Run fails with *ValidationError on malformed parameters and with
// *InsufficientDataError when the series is shorter than smaPeriod, in both
// cases before any simulation work.
func Run(prices []model.PricePoint, smaPeriod int, rule model.Rule, initialCapital float64) (*model.Result, error) {
	if len(prices) == 0 {
		return nil, &ValidationError{Field: "price_series", Reason: "empty"}
	}
	if smaPeriod < 1 {
		return nil, &ValidationError{Field: "sma_period", Reason: "must be at least 1"}
	}
	if err := rule.Validate(); err != nil {
		return nil, &ValidationError{Field: "rule", Reason: err.Error()}
	}
	if initialCapital <= 0 {
		return nil, &ValidationError{Field: "initial_capital", Reason: "must be positive"}
	}
	if smaPeriod > len(prices) {
		return nil, &InsufficientDataError{Have: len(prices), Need: smaPeriod}
	}

	indicator, err := SMA(prices, smaPeriod)
	if err != nil {
		return nil, err
	}

	curve, trades := Simulate(prices, indicator, rule, initialCapital)
	res := computeMetrics(curve, trades, initialCapital)
	return &res, nil
}

// FormatResult renders a human-readable summary block for the CLI.
func FormatResult(res *model.Result) string {
	if res == nil {
		return "No backtest results available"
	}

	out := "\n===== BACKTEST RESULTS =====\n"
	out += fmt.Sprintf("Total trades: %d\n", res.NumberOfTrades)
	out += fmt.Sprintf("Win rate: %.2f%%\n", res.WinRate)
	out += fmt.Sprintf("Total return: %.2f%%\n", res.TotalReturn)
	out += fmt.Sprintf("Final portfolio value: %.2f\n", res.FinalPortfolioValue)
	out += fmt.Sprintf("Sharpe ratio: %.2f\n", res.SharpeRatio)

	if len(res.Trades) > 0 {
		out += "\nTrades:\n"
		for _, t := range res.Trades {
			sign := ""
			if t.PnL > 0 {
				sign = "+"
			}
			out += fmt.Sprintf("- %s %.4f -> %s %.4f  PnL %s%.2f\n",
				t.EntryDate.Format("2006-01-02"), t.EntryPrice,
				t.ExitDate.Format("2006-01-02"), t.ExitPrice,
				sign, t.PnL)
		}
	}

	return out
}
