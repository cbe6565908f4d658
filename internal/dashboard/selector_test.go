package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"trade-dashboard-sync/internal/analytics"
	"trade-dashboard-sync/internal/config"
	"trade-dashboard-sync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChooseSource(t *testing.T) {
	tests := []struct {
		name    string
		ref     time.Time
		wantAge int64
		want    models.Source
	}{
		{"today", testNow, 0, models.SourceLive},
		{"44 days", testNow.Add(-44 * 24 * time.Hour), 44, models.SourceLive},
		{"exactly 45 days", testNow.Add(-45 * 24 * time.Hour), 45, models.SourceLive},
		{"45 days 23 hours", testNow.Add(-(45*24 + 23) * time.Hour), 45, models.SourceLive},
		{"46 days", testNow.Add(-46 * 24 * time.Hour), 46, models.SourceHistorical},
		{"a year", testNow.AddDate(-1, 0, 0), 365, models.SourceHistorical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAge, AgeDays(tt.ref, testNow))
			assert.Equal(t, tt.want, ChooseSource(tt.ref, testNow))
		})
	}
}

func TestSelector_FetchLive(t *testing.T) {
	// Arrange
	api := new(MockAPI)
	selector := NewSelector(api, config.Analysis{}, zap.NewNop())
	ref := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	api.On("GetDashboard", mock.Anything, "2026-09-15").Return(&analytics.DashboardResponse{
		AnalysisDate: "2026-09-15",
		OpenTrades: []analytics.TradeResult{
			{TradeNum: 1, Ticker: "GGAL", PurchaseDate: "2026-09-10", PurchasePrice: 100, TargetPrice: 104, Days: 5, ProfitPct: 1.5, Status: "ABIERTO"},
			{TradeNum: 2, Ticker: "YPF", PurchaseDate: "2026-09-01T00:00:00", PurchasePrice: 50, CurrentPrice: ptr(0.0), Status: "ABIERTO"},
		},
		TotalTrades:      2,
		SuccessfulTrades: 0,
		TotalProfit:      12.5,
		AverageDays:      9.5,
	}, nil)

	// Act
	snap, err := selector.Fetch(context.Background(), ref, testNow)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, snap.Source)
	assert.Equal(t, ref, snap.ReferenceDate)
	assert.Equal(t, testNow, snap.FetchedAt)
	assert.Equal(t, 2, snap.TotalTrades)
	assert.Equal(t, 12.5, snap.TotalProfit)
	assert.Equal(t, 9.5, snap.AverageDays)
	require.Len(t, snap.Trades, 2)

	assert.Equal(t, 100.0, snap.Trades[0].CurrentPrice, "missing current price falls back to purchase price")
	assert.Equal(t, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), snap.Trades[0].PurchaseDate)
	assert.Equal(t, 5, snap.Trades[0].DaysElapsed)
	assert.Equal(t, 0.0, snap.Trades[1].CurrentPrice, "a zero current price is kept")
	api.AssertExpectations(t)
}

func TestSelector_FetchHistorical(t *testing.T) {
	// Arrange
	api := new(MockAPI)
	selector := NewSelector(api, config.Analysis{ProfitTarget: 5, MaxDays: 30}, zap.NewNop())
	ref := testNow.AddDate(0, 0, -60)

	api.On("GetHistoricalAnalysis", mock.Anything, analytics.HistoricalQuery{
		StartDate:    "2026-08-16",
		EndDate:      "2026-10-15",
		ProfitTarget: 5,
		MaxDays:      30,
	}).Return(&analytics.HistoricalResponse{
		Summary: analytics.HistoricalSummary{TotalTrades: 2, SuccessfulTrades: 1, TotalProfit: 7, AverageDurationDays: 12},
		Trades: []analytics.HistoricalTrade{
			{TradeNum: 1, Ticker: "AAPL", PurchaseDate: "2026-08-20", PurchasePrice: 100, SaleDate: ptr("2026-08-25"), SalePrice: ptr(110.0), DurationDays: 5, ProfitPct: 10, FinalStatus: models.StatusTargetReached},
			{TradeNum: 2, Ticker: "MSFT", PurchaseDate: "2026-09-01", PurchasePrice: 300, DurationDays: 44, ProfitPct: -1, FinalStatus: "TIMEOUT"},
		},
	}, nil)

	// Act
	snap, err := selector.Fetch(context.Background(), ref, testNow)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.SourceHistorical, snap.Source)
	assert.Equal(t, 2, snap.TotalTrades)
	assert.Equal(t, 1, snap.SuccessfulTrades)
	assert.Equal(t, 12.0, snap.AverageDays)
	require.Len(t, snap.Trades, 2)

	aapl := snap.Trades[0]
	assert.Equal(t, 110.0, aapl.CurrentPrice, "sale price stands in for the current price")
	require.NotNil(t, aapl.SaleDate)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), *aapl.SaleDate)
	assert.Equal(t, models.Closed, aapl.Classification())

	msft := snap.Trades[1]
	assert.Equal(t, 300.0, msft.CurrentPrice)
	assert.Nil(t, msft.SaleDate)
	assert.Equal(t, models.Open, msft.Classification())
	api.AssertExpectations(t)
}

func TestSelector_FetchErrors(t *testing.T) {
	ref := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("APIDetailSurfaced", func(t *testing.T) {
		api := new(MockAPI)
		selector := NewSelector(api, config.Analysis{}, zap.NewNop())
		apiErr := &analytics.APIError{StatusCode: 500, Detail: "Error obteniendo datos"}
		api.On("GetDashboard", mock.Anything, "2026-10-01").Return(nil, apiErr)

		snap, err := selector.Fetch(context.Background(), ref, testNow)

		assert.Nil(t, snap)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindFetch))
		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, "Error obteniendo datos", e.Message)
		assert.ErrorIs(t, err, apiErr)
	})

	t.Run("GenericMessage", func(t *testing.T) {
		api := new(MockAPI)
		selector := NewSelector(api, config.Analysis{}, zap.NewNop())
		api.On("GetDashboard", mock.Anything, "2026-10-01").Return(nil, errors.New("connection reset"))

		_, err := selector.Fetch(context.Background(), ref, testNow)

		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, KindFetch, e.Kind)
		assert.Equal(t, "failed to load live data for 2026-10-01", e.Message)
	})

	t.Run("MalformedTradeDate", func(t *testing.T) {
		api := new(MockAPI)
		selector := NewSelector(api, config.Analysis{}, zap.NewNop())
		api.On("GetDashboard", mock.Anything, "2026-10-01").Return(liveResponse("2026-10-01",
			analytics.TradeResult{TradeNum: 3, Ticker: "BMA", PurchaseDate: "01/10/2026"},
		), nil)

		_, err := selector.Fetch(context.Background(), ref, testNow)

		assert.True(t, IsKind(err, KindFetch))
		assert.Contains(t, err.Error(), "trade BMA #3")
	})
}
