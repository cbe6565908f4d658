package web

import (
	"errors"
	"net/http"
	"time"

	"trade-dashboard-sync/internal/analytics"
	"trade-dashboard-sync/internal/dashboard"
	"trade-dashboard-sync/internal/models"
	"trade-dashboard-sync/internal/tradetable"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type countdownResponse struct {
	Enabled     bool    `json:"enabled"`
	IntervalMs  int64   `json:"interval_ms"`
	RemainingMs int64   `json:"remaining_ms"`
	Progress    float64 `json:"progress"`
	Label       string  `json:"label"`
}

// StateResponse is the body of GET /api/state and of every SSE "state" event.
type StateResponse struct {
	dashboard.View
	Countdown   countdownResponse  `json:"countdown"`
	LastUpdated string             `json:"last_updated"`
	QuickDates  []models.QuickDate `json:"quick_dates"`
}

// TradesResponse is the body of GET /api/trades.
type TradesResponse struct {
	ReferenceDate time.Time            `json:"reference_date"`
	Source        models.Source        `json:"source,omitempty"`
	Sort          tradetable.SortState `json:"sort"`
	Rows          []tradetable.Row     `json:"rows"`
	Summary       tradetable.Summary   `json:"summary"`
	Stats         *tradetable.Stats    `json:"stats"`
}

type referenceDateRequest struct {
	Date string `json:"date" binding:"required"`
}

type intervalRequest struct {
	IntervalMs int64 `json:"interval_ms" binding:"required"`
}

func (s *Server) stateOf(v dashboard.View) StateResponse {
	cd := s.dash.Countdown()
	now := s.dash.Now()
	return StateResponse{
		View: v,
		Countdown: countdownResponse{
			Enabled:     cd.Enabled,
			IntervalMs:  cd.Interval.Milliseconds(),
			RemainingMs: cd.Remaining.Milliseconds(),
			Progress:    cd.Progress,
			Label:       dashboard.FormatRemaining(cd.Remaining),
		},
		LastUpdated: dashboard.FormatSince(v.LastUpdatedAt, now),
		QuickDates:  models.QuickDates(now),
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"connectivity": s.dash.State().Connectivity,
	})
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.stateOf(s.dash.State()))
}

// trades returns the current snapshot as sorted table rows.
func (s *Server) trades(c *gin.Context) {
	sortState := tradetable.DefaultSortState()
	if raw := c.Query("sort"); raw != "" {
		field, err := tradetable.ParseSortField(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sortState.Field = field
	}
	if raw := c.Query("dir"); raw != "" {
		dir, err := tradetable.ParseDirection(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sortState.Direction = dir
	}

	v := s.dash.State()
	resp := TradesResponse{
		ReferenceDate: v.ReferenceDate,
		Sort:          sortState,
		Rows:          []tradetable.Row{},
	}
	if v.Snapshot != nil {
		sorted := s.sorter.Sort(v.Snapshot.Trades, sortState.Field, sortState.Direction)
		resp.Source = v.Snapshot.Source
		resp.Rows = tradetable.BuildRows(sorted)
		resp.Summary = tradetable.Summarize(sorted)
		stats := tradetable.StatsOf(v.Snapshot)
		resp.Stats = &stats
	}
	c.JSON(http.StatusOK, resp)
}

// events streams a "state" event for every published view until the client goes away
// or the dashboard shuts down.
func (s *Server) events(c *gin.Context) {
	views, unsubscribe := s.dash.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	ctx := c.Request.Context()
	for {
		select {
		case v, ok := <-views:
			if !ok {
				return
			}
			c.SSEvent("state", s.stateOf(v))
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) refresh(c *gin.Context) {
	s.dash.ManualRefresh()
	c.JSON(http.StatusAccepted, s.stateOf(s.dash.State()))
}

func (s *Server) setReferenceDate(c *gin.Context) {
	var req referenceDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dashboard.NewValidationError("date is required (YYYY-MM-DD)")})
		return
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dashboard.NewValidationError("invalid date %q, expected YYYY-MM-DD", req.Date)})
		return
	}

	if err := s.dash.SetReferenceDate(date); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.stateOf(s.dash.State()))
}

func (s *Server) toggleAutoRefresh(c *gin.Context) {
	enabled := s.dash.ToggleAutoRefresh()
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

func (s *Server) setRefreshInterval(c *gin.Context) {
	var req intervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dashboard.NewValidationError("interval_ms is required")})
		return
	}

	if err := s.dash.SetRefreshInterval(time.Duration(req.IntervalMs) * time.Millisecond); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.stateOf(s.dash.State()))
}

func (s *Server) tickers(c *gin.Context) {
	resp, err := s.market.GetTickers(c.Request.Context())
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) price(c *gin.Context) {
	resp, err := s.market.GetCurrentPrice(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) analyze(c *gin.Context) {
	var req analytics.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": dashboard.NewValidationError("ticker, fecha_inicio and fecha_fin are required")})
		return
	}
	resp, err := s.market.AnalyzeTicker(c.Request.Context(), req)
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// analyzeAll defaults the range to the current reference date through today.
func (s *Server) analyzeAll(c *gin.Context) {
	v := s.dash.State()
	start := c.DefaultQuery("start", models.FormatDate(v.ReferenceDate))
	end := c.DefaultQuery("end", models.FormatDate(s.dash.Now()))
	for _, d := range []string{start, end} {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": dashboard.NewValidationError("invalid date %q, expected YYYY-MM-DD", d)})
			return
		}
	}

	resp, err := s.market.AnalyzeAll(c.Request.Context(), start, end)
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) writeError(c *gin.Context, err error) {
	var e *dashboard.Error
	if errors.As(err, &e) && e.Kind == dashboard.KindValidation {
		c.JSON(http.StatusBadRequest, gin.H{"error": e})
		return
	}
	s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// writeUpstreamError keeps client errors from the analytics API (e.g. an unknown
// ticker) and reports everything else as a bad gateway.
func (s *Server) writeUpstreamError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	msg := err.Error()
	var apiErr *analytics.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		if apiErr.Detail != "" {
			msg = apiErr.Detail
		}
	}
	s.logger.Warn("Analytics API request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(status, gin.H{"error": msg})
}
