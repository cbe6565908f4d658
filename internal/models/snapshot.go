package models

import "time"

// Source names the API endpoint a snapshot came from.
type Source string

const (
	SourceLive       Source = "live"
	SourceHistorical Source = "historical"
)

// DashboardSnapshot is a complete view of trades and aggregates for one reference date.
// Once published it must not be modified; a newer fetch replaces it wholesale.
type DashboardSnapshot struct {
	ReferenceDate    time.Time `json:"reference_date"`
	Source           Source    `json:"source,omitempty"`
	FetchedAt        time.Time `json:"fetched_at"`
	Trades           []Trade   `json:"trades"`
	TotalTrades      int       `json:"total_trades"`
	SuccessfulTrades int       `json:"successful_trades"`
	TotalProfit      float64   `json:"total_profit"`
	AverageDays      float64   `json:"average_days"`
}

// EmptySnapshot returns a snapshot with no trades for the reference date.
func EmptySnapshot(referenceDate time.Time) *DashboardSnapshot {
	return &DashboardSnapshot{
		ReferenceDate: referenceDate,
		Trades:        []Trade{},
	}
}
