// Command backtest runs a single SMA rule backtest from the command line
// and prints the result summary. It uses the same market-data client and
// engine as the API server but skips the database entirely.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"backtester/internal/config"
	"backtester/internal/engine"
	"backtester/internal/marketdata"
	"backtester/internal/model"
)

func main() {
	var (
		ticker     = flag.String("ticker", "AAPL", "instrument symbol")
		start      = flag.String("start", "", "start date (YYYY-MM-DD)")
		end        = flag.String("end", "", "end date (YYYY-MM-DD)")
		period     = flag.Int("period", 20, "SMA window length in days")
		condition  = flag.String("if", "price > sma", "rule condition")
		thenAction = flag.String("then", "buy", "action when the condition holds")
		elseAction = flag.String("else", "sell", "action otherwise")
		capital    = flag.Float64("capital", engine.DefaultInitialCapital, "starting portfolio value")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	startDate, endDate, err := parseRange(*start, *end)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}

	rule, err := parseRule(*condition, *thenAction, *elseAction)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid rule")
	}

	client := marketdata.NewClient(marketdata.ClientOptions{
		APIKey:         cfg.MarketAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	series, err := client.DailyCloses(ctx, *ticker, startDate, endDate)
	if err != nil {
		log.Fatal().Err(err).Str("ticker", *ticker).Msg("Failed to fetch prices")
	}
	log.Info().Int("days", len(series)).Str("ticker", *ticker).Msg("Fetched price series")

	result, err := engine.Run(series, *period, rule, *capital)
	if err != nil {
		log.Fatal().Err(err).Msg("Backtest failed")
	}

	fmt.Println(engine.FormatResult(result))
}

// parseRange defaults to the last year when no dates are given.
func parseRange(start, end string) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	if end != "" {
		var err error
		endDate, err = time.Parse(layout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing end date: %w", err)
		}
	}

	startDate := endDate.AddDate(-1, 0, 0)
	if start != "" {
		var err error
		startDate, err = time.Parse(layout, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing start date: %w", err)
		}
	}

	if !startDate.Before(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is not before end %s", startDate.Format(layout), endDate.Format(layout))
	}
	return startDate, endDate, nil
}

func parseRule(condition, thenAction, elseAction string) (model.Rule, error) {
	var rule model.Rule
	var err error

	if rule.Condition, err = model.ParseCondition(condition); err != nil {
		return rule, err
	}
	if rule.ThenAction, err = model.ParseAction(thenAction); err != nil {
		return rule, err
	}
	if rule.ElseAction, err = model.ParseAction(elseAction); err != nil {
		return rule, err
	}
	return rule, rule.Validate()
}
