package tradetable

import "trade-dashboard-sync/internal/models"

// RateBand buckets the success rate for the stats cards.
type RateBand string

const (
	RateHigh   RateBand = "high"   // 70% and up
	RateMedium RateBand = "medium" // 50% and up
	RateLow    RateBand = "low"
)

// Stats are the headline cards derived from a snapshot's aggregates.
type Stats struct {
	OpenTrades     int      `json:"open_trades"`
	SuccessRate    float64  `json:"success_rate"`
	SuccessBand    RateBand `json:"success_band"`
	TotalProfit    float64  `json:"total_profit"`
	ProfitPositive bool     `json:"profit_positive"`
	AverageDays    float64  `json:"average_days"`
}

func rateBand(rate float64) RateBand {
	switch {
	case rate >= 70:
		return RateHigh
	case rate >= 50:
		return RateMedium
	default:
		return RateLow
	}
}

// StatsOf derives the stats cards from the aggregates reported with snap.
// OpenTrades counts every trade that has not reached the success threshold.
func StatsOf(snap *models.DashboardSnapshot) Stats {
	var rate float64
	if snap.TotalTrades > 0 {
		rate = float64(snap.SuccessfulTrades) / float64(snap.TotalTrades) * 100
	}
	return Stats{
		OpenTrades:     snap.TotalTrades - snap.SuccessfulTrades,
		SuccessRate:    rate,
		SuccessBand:    rateBand(rate),
		TotalProfit:    snap.TotalProfit,
		ProfitPositive: snap.TotalProfit >= 0,
		AverageDays:    snap.AverageDays,
	}
}
