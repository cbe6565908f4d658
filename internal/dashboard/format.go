package dashboard

import (
	"fmt"
	"time"
)

// FormatRemaining renders a countdown as "m:ss" from one minute up and "Ns" below,
// rounding seconds up so the label only reads 0s at the boundary.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64((d + time.Second - 1) / time.Second)
	minutes := seconds / 60
	if minutes > 0 {
		return fmt.Sprintf("%d:%02d", minutes, seconds%60)
	}
	return fmt.Sprintf("%ds", seconds)
}

// FormatSince renders how long ago t was, or "never" for the zero time.
func FormatSince(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	if minutes := seconds / 60; minutes > 0 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	return fmt.Sprintf("%ds ago", seconds)
}
