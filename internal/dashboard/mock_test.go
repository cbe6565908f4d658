package dashboard

import (
	"context"
	"time"

	"trade-dashboard-sync/internal/analytics"
	"trade-dashboard-sync/internal/models"

	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// MockAPI is a mock implementation of the API interface.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) HealthCheck(ctx context.Context) (*analytics.HealthResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*analytics.HealthResponse)
	return resp, args.Error(1)
}

func (m *MockAPI) GetDashboard(ctx context.Context, date string) (*analytics.DashboardResponse, error) {
	args := m.Called(ctx, date)
	resp, _ := args.Get(0).(*analytics.DashboardResponse)
	return resp, args.Error(1)
}

func (m *MockAPI) GetHistoricalAnalysis(ctx context.Context, q analytics.HistoricalQuery) (*analytics.HistoricalResponse, error) {
	args := m.Called(ctx, q)
	resp, _ := args.Get(0).(*analytics.HistoricalResponse)
	return resp, args.Error(1)
}

// MockPreferenceStore is a mock implementation of the PreferenceStore interface.
type MockPreferenceStore struct {
	mock.Mock
}

func (m *MockPreferenceStore) Load() (*models.Preferences, error) {
	args := m.Called()
	prefs, _ := args.Get(0).(*models.Preferences)
	return prefs, args.Error(1)
}

func (m *MockPreferenceStore) Save(prefs *models.Preferences) error {
	args := m.Called(prefs)
	return args.Error(0)
}

var healthy = &analytics.HealthResponse{Status: "healthy", Timestamp: "2026-10-15T12:00:00"}

func liveResponse(date string, trades ...analytics.TradeResult) *analytics.DashboardResponse {
	return &analytics.DashboardResponse{
		AnalysisDate: date,
		OpenTrades:   trades,
		TotalTrades:  len(trades),
	}
}

func ptr[T any](v T) *T {
	return &v
}
