package engine

import (
	"math"
	"testing"
	"time"

	"backtester/internal/model"
)

func curveFromValues(values ...float64) []model.EquityPoint {
	curve := make([]model.EquityPoint, len(values))
	for i, v := range values {
		curve[i] = model.EquityPoint{
			Date:           testEpoch.AddDate(0, 0, i),
			PortfolioValue: v,
		}
	}
	return curve
}

func TestComputeMetrics_NoTrades(t *testing.T) {
	curve := curveFromValues(10000, 10000, 10000, 10000)

	res := computeMetrics(curve, nil, 10000)

	if res.NumberOfTrades != 0 {
		t.Errorf("NumberOfTrades = %d, want 0", res.NumberOfTrades)
	}
	if res.WinRate != 0 {
		t.Errorf("WinRate = %v, want 0 (no trades must not divide by zero)", res.WinRate)
	}
	if res.SharpeRatio != 0 {
		t.Errorf("SharpeRatio = %v, want 0 (zero volatility)", res.SharpeRatio)
	}
	if res.TotalReturn != 0 {
		t.Errorf("TotalReturn = %v, want 0", res.TotalReturn)
	}
	if res.FinalPortfolioValue != 10000 {
		t.Errorf("FinalPortfolioValue = %v, want 10000", res.FinalPortfolioValue)
	}
}

func TestComputeMetrics_SharpeNeedsTwoReturns(t *testing.T) {
	// Two curve points produce a single daily return; Sharpe soft-fails to 0.
	curve := curveFromValues(10000, 10500)

	res := computeMetrics(curve, nil, 10000)

	if res.SharpeRatio != 0 {
		t.Errorf("SharpeRatio = %v, want 0 with fewer than 2 returns", res.SharpeRatio)
	}
	if res.TotalReturn != 5 {
		t.Errorf("TotalReturn = %v, want 5", res.TotalReturn)
	}
}

func TestComputeMetrics_SharpeKnownCase(t *testing.T) {
	// Daily returns 1% and 3%: mean 0.02, sample stdev sqrt(2)*0.01,
	// Sharpe = 0.02/(0.0141421)*sqrt(252) = 22.4499.
	curve := curveFromValues(10000, 10100, 10403)

	res := computeMetrics(curve, nil, 10000)

	if math.Abs(res.SharpeRatio-22.45) > 0.01 {
		t.Errorf("SharpeRatio = %v, want ~22.45", res.SharpeRatio)
	}
}

func TestComputeMetrics_WinRate(t *testing.T) {
	day := func(i int) time.Time { return testEpoch.AddDate(0, 0, i) }
	trades := []model.Trade{
		{EntryDate: day(0), ExitDate: day(1), PnL: 250},
		{EntryDate: day(2), ExitDate: day(3), PnL: -100},
		{EntryDate: day(4), ExitDate: day(5), PnL: 0},
	}
	curve := curveFromValues(10000, 10250, 10250, 10150, 10150, 10150)

	res := computeMetrics(curve, trades, 10000)

	if res.NumberOfTrades != 3 {
		t.Errorf("NumberOfTrades = %d, want 3", res.NumberOfTrades)
	}
	// Only strictly positive PnL counts as a win.
	if math.Abs(res.WinRate-33.33) > 0.001 {
		t.Errorf("WinRate = %v, want 33.33", res.WinRate)
	}
	if res.FinalPortfolioValue != 10150 {
		t.Errorf("FinalPortfolioValue = %v, want 10150", res.FinalPortfolioValue)
	}
	if res.TotalReturn != 1.5 {
		t.Errorf("TotalReturn = %v, want 1.5", res.TotalReturn)
	}
}

func TestComputeMetrics_Rounding(t *testing.T) {
	curve := curveFromValues(10000, 10123.456)

	res := computeMetrics(curve, nil, 10000)

	if res.FinalPortfolioValue != 10123.46 {
		t.Errorf("FinalPortfolioValue = %v, want 10123.46", res.FinalPortfolioValue)
	}
	if res.TotalReturn != 1.23 {
		t.Errorf("TotalReturn = %v, want 1.23", res.TotalReturn)
	}
}
