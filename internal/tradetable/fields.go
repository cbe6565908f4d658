package tradetable

import "fmt"

// SortField identifies a sortable trade column.
type SortField string

const (
	FieldTicker         SortField = "ticker"
	FieldPurchaseDate   SortField = "purchase_date"
	FieldPurchasePrice  SortField = "purchase_price"
	FieldCurrentPrice   SortField = "current_price"
	FieldTargetPrice    SortField = "target_price"
	FieldDaysElapsed    SortField = "days_elapsed"
	FieldProfitPercent  SortField = "profit_percent"
	FieldProfitAbsolute SortField = "profit_absolute"
	FieldStatus         SortField = "status"
)

// Direction is the sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseSortField validates a field name coming from a request.
func ParseSortField(s string) (SortField, error) {
	f := SortField(s)
	if _, ok := registry[f]; !ok {
		return "", fmt.Errorf("unknown sort field %q", s)
	}
	return f, nil
}

// ParseDirection validates a direction coming from a request.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Ascending, Descending:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// SortState is the table's current sort column and direction.
type SortState struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSortState sorts by days elapsed, longest-held first.
func DefaultSortState() SortState {
	return SortState{Field: FieldDaysElapsed, Direction: Descending}
}

// Toggle returns the state after the user selects field: the same field flips
// direction, a different field starts descending.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		if s.Direction == Ascending {
			return SortState{Field: field, Direction: Descending}
		}
		return SortState{Field: field, Direction: Ascending}
	}
	return SortState{Field: field, Direction: Descending}
}
