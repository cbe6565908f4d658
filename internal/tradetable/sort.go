package tradetable

import (
	"fmt"
	"slices"

	"trade-dashboard-sync/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sorter orders trades for display. Its zero value collates strings with the
// undetermined locale.
type Sorter struct {
	locale language.Tag
}

// NewSorter returns a Sorter collating ticker strings for the given BCP 47 locale.
func NewSorter(locale string) (Sorter, error) {
	if locale == "" {
		return Sorter{locale: language.Und}, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Sorter{}, fmt.Errorf("invalid table locale %q: %w", locale, err)
	}
	return Sorter{locale: tag}, nil
}

// Sort returns a new slice ordered by field and direction. The input is not modified
// and trades comparing equal keep their relative order.
func (s Sorter) Sort(trades []models.Trade, field SortField, direction Direction) []models.Trade {
	out := slices.Clone(trades)
	c, ok := registry[field]
	if !ok {
		return out
	}

	// A Collator keeps internal buffers, so each call gets its own.
	compare := c.bind(collate.New(s.locale))
	if direction == Descending {
		asc := compare
		compare = func(a, b models.Trade) int { return asc(b, a) }
	}

	slices.SortStableFunc(out, compare)
	return out
}

// Sort orders trades with the undetermined-locale collator.
func Sort(trades []models.Trade, field SortField, direction Direction) []models.Trade {
	return Sorter{locale: language.Und}.Sort(trades, field, direction)
}
