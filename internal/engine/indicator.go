package engine

import "backtester/internal/model"

// SMA computes the trailing simple moving average of the closes, aligned to
// the price series: index i carries a defined value only once i >= period-1,
// equal to the arithmetic mean of the period closes ending at i. The first
// period-1 entries stay undefined so warmup days never reach the rule.
func SMA(prices []model.PricePoint, period int) ([]model.IndicatorPoint, error) {
	if period < 1 {
		return nil, &ValidationError{Field: "sma_period", Reason: "must be at least 1"}
	}
	if period > len(prices) {
		return nil, &InsufficientDataError{Have: len(prices), Need: period}
	}

	out := make([]model.IndicatorPoint, len(prices))
	var sum float64
	for i, p := range prices {
		sum += p.Close
		if i >= period {
			sum -= prices[i-period].Close
		}
		out[i].Date = p.Date
		if i >= period-1 {
			out[i].SMA = sum / float64(period)
			out[i].Defined = true
		}
	}
	return out, nil
}
