package model

import "time"

// PricePoint is a single daily close for a ticker. Series are ordered by
// date, strictly increasing, with missing trading days simply absent.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// IndicatorPoint is the SMA value aligned to one price point. The first
// period-1 entries of a series are undefined (Defined == false) and must be
// excluded from rule evaluation, never treated as zero.
type IndicatorPoint struct {
	Date    time.Time `json:"date"`
	SMA     float64   `json:"sma"`
	Defined bool      `json:"defined"`
}
