// Package marketdata loads daily closing-price series from the Twelve Data
// time-series API. It is the engine's only upstream: fetch or parse failures
// surface as *UpstreamDataError and the engine is simply not invoked.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"backtester/internal/model"
	platformhttp "backtester/internal/platform/http"
)

// UpstreamDataError reports a failed or malformed market-data fetch.
type UpstreamDataError struct {
	Ticker string
	Err    error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("market data for %s: %v", e.Ticker, e.Err)
}

func (e *UpstreamDataError) Unwrap() error { return e.Err }

// dateLayout is the wire format for daily datetimes.
const dateLayout = "2006-01-02"

// Client fetches daily candles from the Twelve Data API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new market-data client.
type ClientOptions struct {
	APIKey          string
	BaseURL         string // overridable for tests; defaults to the public API
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new market-data client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.twelvedata.com"
	}

	return &Client{
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:         opts.RequestTimeout,
			RequestsPerSec:  opts.RequestsPerSec,
			MaxRetryTimeout: opts.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "marketdata_client").Logger(),
	}
}

// timeSeriesResponse is the Twelve Data time_series payload.
type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Close    float64 `json:"close,string"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DailyCloses fetches the daily close series for ticker over [start, end],
// sorted oldest first. The result is gap-free at trading-day granularity:
// non-trading days are absent, never zero-filled.
func (c *Client) DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("symbol", ticker)
	q.Set("interval", "1day")
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	q.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/time_series?" + q.Encode()

	c.logger.Debug().Str("ticker", ticker).
		Str("start", start.Format(dateLayout)).
		Str("end", end.Format(dateLayout)).
		Msg("Fetching daily closes")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamDataError{Ticker: ticker, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, &UpstreamDataError{Ticker: ticker, Err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamDataError{Ticker: ticker, Err: fmt.Errorf("reading response body: %w", err)}
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, &UpstreamDataError{Ticker: ticker, Err: fmt.Errorf("parsing JSON: %w", err)}
	}

	if data.Status == "error" {
		c.logger.Error().Str("message", data.Message).Msg("Market data API error")
		return nil, &UpstreamDataError{Ticker: ticker, Err: fmt.Errorf("API error: %s", data.Message)}
	}
	if len(data.Values) == 0 {
		c.logger.Warn().Str("ticker", ticker).Msg("No candles in response")
		return nil, &UpstreamDataError{Ticker: ticker, Err: fmt.Errorf("no data for requested range")}
	}

	series := make([]model.PricePoint, 0, len(data.Values))
	for _, v := range data.Values {
		date, err := time.Parse(dateLayout, v.Datetime)
		if err != nil {
			return nil, &UpstreamDataError{Ticker: ticker, Err: fmt.Errorf("bad datetime %q: %w", v.Datetime, err)}
		}
		if v.Close <= 0 {
			return nil, &UpstreamDataError{Ticker: ticker, Err: fmt.Errorf("non-positive close %v on %s", v.Close, v.Datetime)}
		}
		series = append(series, model.PricePoint{Date: date, Close: v.Close})
	}

	// The API returns newest first; the engine needs oldest first.
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	c.logger.Debug().Int("count", len(series)).Msg("Fetched daily closes")
	return series, nil
}
