package tradetable

import "trade-dashboard-sync/internal/models"

// DaysBand buckets how long a position has been held.
type DaysBand string

const (
	DaysFresh DaysBand = "fresh" // up to a week
	DaysAging DaysBand = "aging" // up to 15 days
	DaysStale DaysBand = "stale"
)

// ProfitBand buckets a trade's profit percentage against the success threshold.
type ProfitBand string

const (
	ProfitTarget ProfitBand = "target"
	ProfitFlat   ProfitBand = "flat"
	ProfitLoss   ProfitBand = "loss"
)

// Row is a trade plus the fields the table derives from it.
type Row struct {
	models.Trade
	Classification models.Classification `json:"classification"`
	DaysBand       DaysBand              `json:"days_band"`
	ProfitBand     ProfitBand            `json:"profit_band"`
	PriceRising    bool                  `json:"price_rising"`
}

// Summary is the table footer.
type Summary struct {
	Positions   int     `json:"positions"`
	Closed      int     `json:"closed"`
	Open        int     `json:"open"`
	TotalProfit float64 `json:"total_profit"`
}

func daysBand(days int) DaysBand {
	switch {
	case days <= 7:
		return DaysFresh
	case days <= 15:
		return DaysAging
	default:
		return DaysStale
	}
}

func profitBand(pct float64) ProfitBand {
	switch {
	case pct >= models.SuccessThreshold:
		return ProfitTarget
	case pct >= 0:
		return ProfitFlat
	default:
		return ProfitLoss
	}
}

// BuildRows derives the display rows for trades, keeping their order.
func BuildRows(trades []models.Trade) []Row {
	rows := make([]Row, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, Row{
			Trade:          t,
			Classification: t.Classification(),
			DaysBand:       daysBand(t.DaysElapsed),
			ProfitBand:     profitBand(t.ProfitPercent),
			PriceRising:    t.CurrentPrice > t.PurchasePrice,
		})
	}
	return rows
}

// Summarize computes the footer totals.
func Summarize(trades []models.Trade) Summary {
	s := Summary{Positions: len(trades)}
	for _, t := range trades {
		s.TotalProfit += t.ProfitAbsolute
		if t.IsClosed() {
			s.Closed++
		} else {
			s.Open++
		}
	}
	return s
}
