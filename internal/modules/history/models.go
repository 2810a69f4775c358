// Package history manages the daily closing price store.
package history

import "time"

// DailyClose is one closing price observation for a security.
type DailyClose struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
}

// SymbolSummary describes the stored history for one security.
type SymbolSummary struct {
	Symbol    string    `json:"symbol"`
	Count     int       `json:"count"`
	FirstDate time.Time `json:"first_date"`
	LastDate  time.Time `json:"last_date"`
}

// NormalizeDate truncates a timestamp to UTC midnight. All dates in the
// store are day-granular.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
