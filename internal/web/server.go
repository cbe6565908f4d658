package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trade-dashboard-sync/internal/analytics"
	"trade-dashboard-sync/internal/config"
	"trade-dashboard-sync/internal/dashboard"
	"trade-dashboard-sync/internal/tradetable"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dashboard is the orchestrator surface the HTTP layer drives.
type Dashboard interface {
	State() dashboard.View
	Countdown() dashboard.Countdown
	Now() time.Time
	Subscribe() (<-chan dashboard.View, func())
	ManualRefresh()
	SetReferenceDate(date time.Time) error
	ToggleAutoRefresh() bool
	SetRefreshInterval(d time.Duration) error
}

// MarketData is the part of the analytics API proxied as-is.
type MarketData interface {
	GetTickers(ctx context.Context) (*analytics.TickersResponse, error)
	GetCurrentPrice(ctx context.Context, ticker string) (*analytics.TickerPrice, error)
	AnalyzeTicker(ctx context.Context, req analytics.AnalysisRequest) (*analytics.AnalysisResponse, error)
	AnalyzeAll(ctx context.Context, startDate, endDate string) (*analytics.AnalyzeAllResponse, error)
}

// Server exposes the dashboard state and inputs over HTTP.
type Server struct {
	server *http.Server
	router *gin.Engine
	dash   Dashboard
	market MarketData
	sorter tradetable.Sorter
	logger *zap.Logger
}

// NewServer builds the router. The table locale comes from cfg.Table.
func NewServer(cfg *config.Config, dash Dashboard, market MarketData, logger *zap.Logger) (*Server, error) {
	sorter, err := tradetable.NewSorter(cfg.Table.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade sorter: %w", err)
	}

	s := &Server{
		dash:   dash,
		market: market,
		sorter: sorter,
		logger: logger.Named("web"),
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(corsConfig))

	s.registerRoutes(router)
	s.router = router
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	return s, nil
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.health)

	api := router.Group("/api")
	{
		api.GET("/state", s.state)
		api.GET("/trades", s.trades)
		api.GET("/events", s.events)
		api.POST("/refresh", s.refresh)
		api.PUT("/reference-date", s.setReferenceDate)
		api.POST("/auto-refresh/toggle", s.toggleAutoRefresh)
		api.PUT("/auto-refresh/interval", s.setRefreshInterval)
		api.GET("/tickers", s.tickers)
		api.GET("/price/:ticker", s.price)
		api.POST("/analyze", s.analyze)
		api.GET("/analyze-all", s.analyzeAll)
	}
}

// Handler returns the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting web server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping web server...")
	return s.server.Shutdown(ctx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
