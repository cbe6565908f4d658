package models

import (
	"encoding/json"
	"time"
)

// RefreshIntervals is the fixed set of auto-refresh intervals a user can choose from.
var RefreshIntervals = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
}

// DefaultRefreshInterval is used when nothing else is configured.
const DefaultRefreshInterval = 30 * time.Second

// IsAllowedInterval reports whether d is one of RefreshIntervals.
func IsAllowedInterval(d time.Duration) bool {
	for _, allowed := range RefreshIntervals {
		if d == allowed {
			return true
		}
	}
	return false
}

// RefreshConfig is the user's auto-refresh setting.
type RefreshConfig struct {
	Enabled  bool          `json:"enabled"`
	Interval time.Duration `json:"-"`
}

// IntervalMs exposes the interval in milliseconds, the unit the dashboard UI works in.
func (c RefreshConfig) IntervalMs() int64 {
	return c.Interval.Milliseconds()
}

// MarshalJSON writes the interval in milliseconds next to the enabled flag.
func (c RefreshConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Enabled    bool  `json:"enabled"`
		IntervalMs int64 `json:"interval_ms"`
	}{c.Enabled, c.IntervalMs()})
}
