package models

import "time"

const (
	// StatusTargetReached is the status the analytics API reports once a trade hit its target.
	StatusTargetReached = "TARGET_ALCANZADO"
	// SuccessThreshold is the profit percentage at which a trade counts as closed
	// regardless of its reported status.
	SuccessThreshold = 4.0
)

// Classification is the closed/open partition derived from a trade's status and profit.
type Classification string

const (
	Closed Classification = "CLOSED"
	Open   Classification = "OPEN"
)

// Trade is one position in the canonical shape both API sources are normalized into.
// CurrentPrice is always set: the purchase price stands in when the API omits it.
type Trade struct {
	TradeNumber    int        `json:"trade_number"`
	Ticker         string     `json:"ticker"`
	PurchaseDate   time.Time  `json:"purchase_date"`
	SaleDate       *time.Time `json:"sale_date,omitempty"`
	PurchasePrice  float64    `json:"purchase_price"`
	TargetPrice    float64    `json:"target_price"`
	SalePrice      *float64   `json:"sale_price,omitempty"`
	CurrentPrice   float64    `json:"current_price"`
	DaysElapsed    int        `json:"days_elapsed"`
	ProfitPercent  float64    `json:"profit_percent"`
	ProfitAbsolute float64    `json:"profit_absolute"`
	Status         string     `json:"status"`
}

// Classify reports whether a trade with the given status and profit percentage is closed.
func Classify(status string, profitPercent float64) Classification {
	if status == StatusTargetReached || profitPercent >= SuccessThreshold {
		return Closed
	}
	return Open
}

// Classification derives the trade's closed/open partition. It is never stored.
func (t Trade) Classification() Classification {
	return Classify(t.Status, t.ProfitPercent)
}

// IsClosed is shorthand for t.Classification() == Closed.
func (t Trade) IsClosed() bool {
	return t.Classification() == Closed
}

// PriceOrPurchase returns *price, or the purchase price when price is nil.
func PriceOrPurchase(price *float64, purchasePrice float64) float64 {
	if price == nil {
		return purchasePrice
	}
	return *price
}
