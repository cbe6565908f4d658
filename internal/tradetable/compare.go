package tradetable

import (
	"cmp"
	"time"

	"trade-dashboard-sync/internal/models"

	"golang.org/x/text/collate"
)

type compareKind int

const (
	kindString compareKind = iota
	kindDate
	kindNumeric
	kindClassification
)

// comparator is the strategy registered for one field. Exactly one accessor is set,
// matching kind.
type comparator struct {
	kind   compareKind
	text   func(models.Trade) string
	date   func(models.Trade) time.Time
	number func(models.Trade) float64
}

var registry = map[SortField]comparator{
	FieldTicker:         {kind: kindString, text: func(t models.Trade) string { return t.Ticker }},
	FieldPurchaseDate:   {kind: kindDate, date: func(t models.Trade) time.Time { return t.PurchaseDate }},
	FieldPurchasePrice:  {kind: kindNumeric, number: func(t models.Trade) float64 { return t.PurchasePrice }},
	FieldCurrentPrice:   {kind: kindNumeric, number: func(t models.Trade) float64 { return t.CurrentPrice }},
	FieldTargetPrice:    {kind: kindNumeric, number: func(t models.Trade) float64 { return t.TargetPrice }},
	FieldDaysElapsed:    {kind: kindNumeric, number: func(t models.Trade) float64 { return float64(t.DaysElapsed) }},
	FieldProfitPercent:  {kind: kindNumeric, number: func(t models.Trade) float64 { return t.ProfitPercent }},
	FieldProfitAbsolute: {kind: kindNumeric, number: func(t models.Trade) float64 { return t.ProfitAbsolute }},
	FieldStatus: {kind: kindClassification, text: func(t models.Trade) string {
		return string(t.Classification())
	}},
}

// bind turns the strategy into an ascending compare function. The collator is only
// used by string fields.
func (c comparator) bind(coll *collate.Collator) func(a, b models.Trade) int {
	switch c.kind {
	case kindString:
		return func(a, b models.Trade) int {
			return coll.CompareString(c.text(a), c.text(b))
		}
	case kindClassification:
		// Fixed ASCII labels, plain ordering is enough.
		return func(a, b models.Trade) int {
			return cmp.Compare(c.text(a), c.text(b))
		}
	case kindDate:
		return func(a, b models.Trade) int {
			return c.date(a).Compare(c.date(b))
		}
	default:
		return func(a, b models.Trade) int {
			return cmp.Compare(c.number(a), c.number(b))
		}
	}
}
