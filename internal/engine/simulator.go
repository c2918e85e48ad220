package engine

import (
	"time"

	"backtester/internal/model"
)

// position is the simulator state: flat (all cash) or long (fully invested).
// There are no shorts and no partial sizing in this model.
type position int

const (
	positionFlat position = iota
	positionLong
)

// Simulate replays the rule over every SMA-defined day and returns the
// daily equity curve plus the completed trades.
//
// Each evaluated day is processed in two steps. First the portfolio is
// marked to market for the position held coming into the day: unchanged when
// flat, scaled by today's close over the previous close when long. Then the
// rule's action is applied, which only affects subsequent days. The first
// evaluated day establishes the portfolio at initialCapital regardless of
// its action. A position still open after the last evaluated day is closed
// there so its PnL is realized for the metrics.
func Simulate(
	prices []model.PricePoint,
	indicator []model.IndicatorPoint,
	rule model.Rule,
	initialCapital float64,
) ([]model.EquityPoint, []model.Trade) {
	var (
		curve  []model.EquityPoint
		trades []model.Trade

		state        = positionFlat
		value        = initialCapital
		entryDate    time.Time
		entryPrice   float64
		valueAtEntry float64
		seenFirst    bool
	)

	for i := range prices {
		if !indicator[i].Defined {
			continue
		}
		price := prices[i].Close

		if seenFirst && state == positionLong {
			value *= price / prices[i-1].Close
		}
		seenFirst = true

		curve = append(curve, model.EquityPoint{
			Date:           prices[i].Date,
			PortfolioValue: value,
			Price:          price,
			SMA:            indicator[i].SMA,
		})

		switch Evaluate(price, indicator[i].SMA, rule) {
		case model.ActionBuy:
			if state == positionFlat {
				state = positionLong
				entryDate = prices[i].Date
				entryPrice = price
				valueAtEntry = value
			}
		case model.ActionSell, model.ActionExit:
			if state == positionLong {
				state = positionFlat
				trades = append(trades, model.Trade{
					EntryDate:  entryDate,
					EntryPrice: entryPrice,
					ExitDate:   prices[i].Date,
					ExitPrice:  price,
					PnL:        (price/entryPrice - 1) * valueAtEntry,
				})
			}
		}
	}

	// Forced close: the series ended while long.
	if state == positionLong {
		last := prices[len(prices)-1]
		trades = append(trades, model.Trade{
			EntryDate:  entryDate,
			EntryPrice: entryPrice,
			ExitDate:   last.Date,
			ExitPrice:  last.Close,
			PnL:        (last.Close/entryPrice - 1) * valueAtEntry,
		})
	}

	return curve, trades
}
