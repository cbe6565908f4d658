package models

import "gorm.io/gorm"

// Preferences stores a user's dashboard settings between runs.
// Only settings live here; trades and snapshots are never persisted.
type Preferences struct {
	gorm.Model
	Profile            string `gorm:"uniqueIndex;not null"`
	AutoRefreshEnabled bool
	RefreshIntervalMs  int
	ReferenceDate      string // YYYY-MM-DD, empty means "use the default"
}
