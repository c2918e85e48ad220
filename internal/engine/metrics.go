package engine

import (
	"math"

	"backtester/internal/model"
)

// tradingDaysPerYear annualizes the Sharpe ratio computed from daily returns.
const tradingDaysPerYear = 252

// computeMetrics derives the summary statistics from the equity curve and
// the completed trades. Displayed values are rounded to 2 decimals. Win rate
// is 0 with no trades, and Sharpe is 0 with fewer than 2 daily returns or
// zero volatility; neither case is an error.
func computeMetrics(curve []model.EquityPoint, trades []model.Trade, initialCapital float64) model.Result {
	res := model.Result{
		EquityCurve:    curve,
		Trades:         trades,
		NumberOfTrades: len(trades),
	}

	finalValue := initialCapital
	if len(curve) > 0 {
		finalValue = curve[len(curve)-1].PortfolioValue
	}
	res.FinalPortfolioValue = round2(finalValue)
	res.TotalReturn = round2((finalValue/initialCapital - 1) * 100)

	if len(trades) > 0 {
		wins := 0
		for _, t := range trades {
			if t.PnL > 0 {
				wins++
			}
		}
		res.WinRate = round2(float64(wins) / float64(len(trades)) * 100)
	}

	returns := make([]float64, 0, len(curve))
	for i := 1; i < len(curve); i++ {
		returns = append(returns, curve[i].PortfolioValue/curve[i-1].PortfolioValue-1)
	}
	m := mean(returns)
	sd := stdDev(returns, m)
	if sd > 0 {
		res.SharpeRatio = round2(m / sd * math.Sqrt(tradingDaysPerYear))
	}

	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stdDev is the sample standard deviation (n-1 divisor). Returns 0 for
// fewer than 2 observations.
func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}
