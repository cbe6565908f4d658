package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date layout used on the wire (YYYY-MM-DD).
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999", // isoformat() without a zone
	"2006-01-02 15:04:05",
}

// ParseDate parses an API date. Plain calendar dates resolve to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FormatDate renders t as a UTC calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DateOf truncates t to UTC midnight of its UTC calendar day.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// QuickDate is a shortcut offered next to the reference date picker.
type QuickDate struct {
	Label string `json:"label"`
	Date  string `json:"date"`
}

var quickDateOffsets = []struct {
	label string
	days  int
}{
	{"today", 0},
	{"1 week", 7},
	{"1 month", 30},
	{"3 months", 90},
	{"6 months", 180},
	{"1 year", 365},
}

// QuickDates lists the shortcut reference dates, counted back from today.
func QuickDates(now time.Time) []QuickDate {
	today := DateOf(now)
	out := make([]QuickDate, 0, len(quickDateOffsets))
	for _, q := range quickDateOffsets {
		out = append(out, QuickDate{Label: q.label, Date: FormatDate(today.AddDate(0, 0, -q.days))})
	}
	return out
}
