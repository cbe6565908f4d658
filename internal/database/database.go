package database

import (
	"errors"
	"fmt"

	"trade-dashboard-sync/internal/config"
	"trade-dashboard-sync/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the preferences database and migrates its schema.
func NewDatabase(cfg *config.Database) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// sqlite serializes writers anyway, and ":memory:" databases are per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the tables. Existing rows are kept.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Preferences{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// PreferencesRepository loads and saves the settings of one profile.
type PreferencesRepository struct {
	db      *gorm.DB
	profile string
}

// NewPreferencesRepository binds a repository to profile.
func NewPreferencesRepository(db *gorm.DB, profile string) *PreferencesRepository {
	if profile == "" {
		profile = "default"
	}
	return &PreferencesRepository{db: db, profile: profile}
}

// Load returns the saved preferences, or nil when the profile has none yet.
func (r *PreferencesRepository) Load() (*models.Preferences, error) {
	var prefs models.Preferences
	err := r.db.Where(&models.Preferences{Profile: r.profile}).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences for profile '%s': %w", r.profile, err)
	}
	return &prefs, nil
}

// Save upserts the profile's preferences. The ID and Profile of prefs are ignored.
func (r *PreferencesRepository) Save(prefs *models.Preferences) error {
	var row models.Preferences
	if err := r.db.FirstOrCreate(&row, models.Preferences{Profile: r.profile}).Error; err != nil {
		return fmt.Errorf("failed to save preferences for profile '%s': %w", r.profile, err)
	}

	err := r.db.Model(&row).Select("AutoRefreshEnabled", "RefreshIntervalMs", "ReferenceDate").Updates(models.Preferences{
		AutoRefreshEnabled: prefs.AutoRefreshEnabled,
		RefreshIntervalMs:  prefs.RefreshIntervalMs,
		ReferenceDate:      prefs.ReferenceDate,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to save preferences for profile '%s': %w", r.profile, err)
	}
	return nil
}
