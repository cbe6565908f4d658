package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trade-dashboard-sync/internal/analytics"
	"trade-dashboard-sync/internal/config"
	"trade-dashboard-sync/internal/dashboard"
	"trade-dashboard-sync/internal/models"
	"trade-dashboard-sync/internal/tradetable"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// MockDashboard is a mock implementation of the Dashboard interface.
type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) State() dashboard.View {
	return m.Called().Get(0).(dashboard.View)
}

func (m *MockDashboard) Countdown() dashboard.Countdown {
	return m.Called().Get(0).(dashboard.Countdown)
}

func (m *MockDashboard) Now() time.Time {
	return testNow
}

func (m *MockDashboard) Subscribe() (<-chan dashboard.View, func()) {
	args := m.Called()
	return args.Get(0).(<-chan dashboard.View), args.Get(1).(func())
}

func (m *MockDashboard) ManualRefresh() {
	m.Called()
}

func (m *MockDashboard) SetReferenceDate(date time.Time) error {
	return m.Called(date).Error(0)
}

func (m *MockDashboard) ToggleAutoRefresh() bool {
	return m.Called().Bool(0)
}

func (m *MockDashboard) SetRefreshInterval(d time.Duration) error {
	return m.Called(d).Error(0)
}

// MockMarketData is a mock implementation of the MarketData interface.
type MockMarketData struct {
	mock.Mock
}

func (m *MockMarketData) GetTickers(ctx context.Context) (*analytics.TickersResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*analytics.TickersResponse)
	return resp, args.Error(1)
}

func (m *MockMarketData) GetCurrentPrice(ctx context.Context, ticker string) (*analytics.TickerPrice, error) {
	args := m.Called(ctx, ticker)
	resp, _ := args.Get(0).(*analytics.TickerPrice)
	return resp, args.Error(1)
}

func (m *MockMarketData) AnalyzeTicker(ctx context.Context, req analytics.AnalysisRequest) (*analytics.AnalysisResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*analytics.AnalysisResponse)
	return resp, args.Error(1)
}

func (m *MockMarketData) AnalyzeAll(ctx context.Context, startDate, endDate string) (*analytics.AnalyzeAllResponse, error) {
	args := m.Called(ctx, startDate, endDate)
	resp, _ := args.Get(0).(*analytics.AnalyzeAllResponse)
	return resp, args.Error(1)
}

func setupTestServer(t *testing.T) (*Server, *MockDashboard, *MockMarketData) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Table:  config.Table{Locale: "es-AR"},
		Server: config.Server{Port: 0, AllowedOrigins: []string{"http://localhost:3000"}},
	}
	dash := new(MockDashboard)
	market := new(MockMarketData)
	s, err := NewServer(cfg, dash, market, zap.NewNop())
	require.NoError(t, err)
	return s, dash, market
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func sampleView() dashboard.View {
	ref := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	return dashboard.View{
		Snapshot: &models.DashboardSnapshot{
			ReferenceDate: ref,
			Source:        models.SourceLive,
			Trades: []models.Trade{
				{TradeNumber: 1, Ticker: "AAPL", DaysElapsed: 3, ProfitPercent: 5.0, ProfitAbsolute: 50, Status: "ABIERTO"},
				{TradeNumber: 2, Ticker: "MSFT", DaysElapsed: 20, ProfitPercent: 2.0, ProfitAbsolute: 20, Status: "ABIERTO"},
			},
			TotalTrades:      2,
			SuccessfulTrades: 1,
			TotalProfit:      70,
			AverageDays:      11.5,
		},
		Connectivity:  dashboard.Connected,
		LastUpdatedAt: testNow.Add(-90 * time.Second),
		ReferenceDate: ref,
		Refresh:       models.RefreshConfig{Enabled: true, Interval: 30 * time.Second},
	}
}

func sampleCountdown() dashboard.Countdown {
	return dashboard.Countdown{Enabled: true, Interval: 30 * time.Second, Remaining: 12 * time.Second, Progress: 0.6}
}

func TestHealth(t *testing.T) {
	s, dash, _ := setupTestServer(t)
	dash.On("State").Return(sampleView())

	w := serve(s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","connectivity":"CONNECTED"}`, w.Body.String())
}

func TestState(t *testing.T) {
	// Arrange
	s, dash, _ := setupTestServer(t)
	dash.On("State").Return(sampleView())
	dash.On("Countdown").Return(sampleCountdown())

	// Act
	w := serve(s, http.MethodGet, "/api/state", "")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONNECTED", body["connectivity"])
	assert.Equal(t, false, body["is_loading"])
	assert.Nil(t, body["last_error"])
	assert.Equal(t, "1m ago", body["last_updated"])

	countdown := body["countdown"].(map[string]any)
	assert.Equal(t, "12s", countdown["label"])
	assert.Equal(t, float64(12000), countdown["remaining_ms"])
	assert.Equal(t, float64(30000), countdown["interval_ms"])

	refresh := body["refresh"].(map[string]any)
	assert.Equal(t, true, refresh["enabled"])
	assert.Equal(t, float64(30000), refresh["interval_ms"])

	quick := body["quick_dates"].([]any)
	require.Len(t, quick, 6)
	assert.Equal(t, map[string]any{"label": "1 week", "date": "2026-10-08"}, quick[1])
}

func TestTrades(t *testing.T) {
	t.Run("DefaultSort", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("State").Return(sampleView())

		w := serve(s, http.MethodGet, "/api/trades", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp TradesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tradetable.DefaultSortState(), resp.Sort)
		require.Len(t, resp.Rows, 2)
		assert.Equal(t, "MSFT", resp.Rows[0].Ticker, "longest held first")
		assert.Equal(t, models.Closed, resp.Rows[1].Classification)
		assert.Equal(t, 2, resp.Summary.Positions)
		assert.Equal(t, 70.0, resp.Summary.TotalProfit)
		require.NotNil(t, resp.Stats)
		assert.Equal(t, tradetable.Stats{
			OpenTrades:     1,
			SuccessRate:    50,
			SuccessBand:    tradetable.RateMedium,
			TotalProfit:    70,
			ProfitPositive: true,
			AverageDays:    11.5,
		}, *resp.Stats)
	})

	t.Run("ProfitAscending", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("State").Return(sampleView())

		w := serve(s, http.MethodGet, "/api/trades?sort=profit_percent&dir=asc", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp TradesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "MSFT", resp.Rows[0].Ticker)
		assert.Equal(t, "AAPL", resp.Rows[1].Ticker)
	})

	t.Run("NoSnapshot", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("State").Return(dashboard.View{Connectivity: dashboard.Checking})

		w := serve(s, http.MethodGet, "/api/trades", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"rows":[]`)
		assert.Contains(t, w.Body.String(), `"stats":null`)
	})

	t.Run("BadField", func(t *testing.T) {
		s, _, _ := setupTestServer(t)

		w := serve(s, http.MethodGet, "/api/trades?sort=volume", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("BadDirection", func(t *testing.T) {
		s, _, _ := setupTestServer(t)

		w := serve(s, http.MethodGet, "/api/trades?dir=up", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRefresh(t *testing.T) {
	s, dash, _ := setupTestServer(t)
	dash.On("ManualRefresh").Return()
	dash.On("State").Return(sampleView())
	dash.On("Countdown").Return(sampleCountdown())

	w := serve(s, http.MethodPost, "/api/refresh", "")

	assert.Equal(t, http.StatusAccepted, w.Code)
	dash.AssertCalled(t, "ManualRefresh")
}

func TestSetReferenceDate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("SetReferenceDate", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)).Return(nil)
		dash.On("State").Return(sampleView())
		dash.On("Countdown").Return(sampleCountdown())

		w := serve(s, http.MethodPut, "/api/reference-date", `{"date":"2026-10-01"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		dash.AssertExpectations(t)
	})

	t.Run("Rejected", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("SetReferenceDate", mock.Anything).Return(dashboard.NewValidationError("reference date 2027-01-01 is after today (2026-10-15)"))

		w := serve(s, http.MethodPut, "/api/reference-date", `{"date":"2027-01-01"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":{"kind":"validation","message":"reference date 2027-01-01 is after today (2026-10-15)"}}`, w.Body.String())
	})

	t.Run("Malformed", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)

		w := serve(s, http.MethodPut, "/api/reference-date", `{"date":"15/10/2026"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		dash.AssertNotCalled(t, "SetReferenceDate", mock.Anything)
	})

	t.Run("Missing", func(t *testing.T) {
		s, _, _ := setupTestServer(t)

		w := serve(s, http.MethodPut, "/api/reference-date", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAutoRefresh(t *testing.T) {
	t.Run("Toggle", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("ToggleAutoRefresh").Return(false)

		w := serve(s, http.MethodPost, "/api/auto-refresh/toggle", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"enabled":false}`, w.Body.String())
	})

	t.Run("Interval", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("SetRefreshInterval", time.Minute).Return(nil)
		dash.On("State").Return(sampleView())
		dash.On("Countdown").Return(sampleCountdown())

		w := serve(s, http.MethodPut, "/api/auto-refresh/interval", `{"interval_ms":60000}`)

		assert.Equal(t, http.StatusOK, w.Code)
		dash.AssertExpectations(t)
	})

	t.Run("IntervalRejected", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("SetRefreshInterval", 7*time.Second).Return(dashboard.NewValidationError("refresh interval 7000ms is not one of the allowed intervals"))

		w := serve(s, http.MethodPut, "/api/auto-refresh/interval", `{"interval_ms":7000}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"validation"`)
	})
}

func TestEvents(t *testing.T) {
	// Arrange
	s, dash, _ := setupTestServer(t)
	views := make(chan dashboard.View, 1)
	views <- sampleView()
	close(views)
	unsubscribed := false
	dash.On("Subscribe").Return((<-chan dashboard.View)(views), func() { unsubscribed = true })
	dash.On("Countdown").Return(sampleCountdown())

	// Act
	w := serve(s, http.MethodGet, "/api/events", "")

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sse.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event:state")
	assert.Contains(t, w.Body.String(), `"connectivity":"CONNECTED"`)
	assert.True(t, unsubscribed)
}

func TestMarketPassthrough(t *testing.T) {
	t.Run("Tickers", func(t *testing.T) {
		s, _, market := setupTestServer(t)
		market.On("GetTickers", mock.Anything).Return(&analytics.TickersResponse{Tickers: []string{"GGAL", "YPF"}, Count: 2}, nil)

		w := serve(s, http.MethodGet, "/api/tickers", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"tickers":["GGAL","YPF"]`)
	})

	t.Run("PriceNotFound", func(t *testing.T) {
		s, _, market := setupTestServer(t)
		market.On("GetCurrentPrice", mock.Anything, "NOPE").
			Return(nil, &analytics.APIError{StatusCode: http.StatusNotFound, Detail: "No se pudo obtener precio para NOPE"})

		w := serve(s, http.MethodGet, "/api/price/NOPE", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"No se pudo obtener precio para NOPE"}`, w.Body.String())
	})

	t.Run("PriceUnreachable", func(t *testing.T) {
		s, _, market := setupTestServer(t)
		market.On("GetCurrentPrice", mock.Anything, "GGAL").Return(nil, assert.AnError)

		w := serve(s, http.MethodGet, "/api/price/GGAL", "")

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("Ticker", func(t *testing.T) {
		s, _, market := setupTestServer(t)
		market.On("AnalyzeTicker", mock.Anything, analytics.AnalysisRequest{Ticker: "SPY", StartDate: "2026-01-01", EndDate: "2026-02-01"}).
			Return(&analytics.AnalysisResponse{Ticker: "SPY"}, nil)

		w := serve(s, http.MethodPost, "/api/analyze", `{"ticker":"SPY","fecha_inicio":"2026-01-01","fecha_fin":"2026-02-01"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		market.AssertExpectations(t)
	})

	t.Run("MissingTicker", func(t *testing.T) {
		s, _, _ := setupTestServer(t)

		w := serve(s, http.MethodPost, "/api/analyze", `{"fecha_inicio":"2026-01-01"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("AllDefaultsToReferenceDate", func(t *testing.T) {
		s, dash, market := setupTestServer(t)
		dash.On("State").Return(sampleView())
		market.On("AnalyzeAll", mock.Anything, "2026-09-15", "2026-10-15").Return(&analytics.AnalyzeAllResponse{}, nil)

		w := serve(s, http.MethodGet, "/api/analyze-all", "")

		assert.Equal(t, http.StatusOK, w.Code)
		market.AssertExpectations(t)
	})

	t.Run("AllBadDate", func(t *testing.T) {
		s, dash, _ := setupTestServer(t)
		dash.On("State").Return(sampleView())

		w := serve(s, http.MethodGet, "/api/analyze-all?start=yesterday", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCORS(t *testing.T) {
	s, dash, _ := setupTestServer(t)
	dash.On("State").Return(sampleView())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
