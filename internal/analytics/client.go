package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"trade-dashboard-sync/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 30 * time.Second
	requestIDHeader = "X-Request-ID"
)

// ClientInterface defines the interface for the analytics API client.
type ClientInterface interface {
	HealthCheck(ctx context.Context) (*HealthResponse, error)
	GetDashboard(ctx context.Context, date string) (*DashboardResponse, error)
	GetHistoricalAnalysis(ctx context.Context, q HistoricalQuery) (*HistoricalResponse, error)
	GetTickers(ctx context.Context) (*TickersResponse, error)
	GetCurrentPrice(ctx context.Context, ticker string) (*TickerPrice, error)
	AnalyzeTicker(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)
	AnalyzeAll(ctx context.Context, startDate, endDate string) (*AnalyzeAllResponse, error)
}

// Client is a client for the trading analytics REST API.
// It implements the ClientInterface.
type Client struct {
	client     *resty.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
	maxRetries int
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// APIError is a non-2xx answer from the API. Detail carries the server's
// "detail" message when it sent one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// message returns detail as text: string details unquoted, anything else raw.
func (b *errorBody) message() string {
	if len(b.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return s
	}
	return string(b.Detail)
}

// NewClient creates a new analytics API client.
func NewClient(cfg *config.API, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	logger.Info("Using analytics API", zap.String("base_url", cfg.BaseURL), zap.Duration("timeout", timeout))

	return &Client{
		client:     client,
		logger:     logger,
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: maxRetries,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.client.BaseURL
}

// doRequest executes req with rate limiting. Only 429/418, 5xx and transport errors
// are retried, and only when maxRetries allows more than one attempt.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	requestID := uuid.NewString()
	req.SetContext(ctx).
		SetHeader(requestIDHeader, requestID).
		SetError(&errorBody{})

	for i := 0; i < c.maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request",
			zap.String("method", method),
			zap.String("url", c.client.BaseURL+url),
			zap.String("request_id", requestID))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == http.StatusTeapot {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
			err = newAPIError(resp)
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else {
			shouldRetry = true
		}

		if !shouldRetry || i == c.maxRetries-1 {
			break
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.String("request_id", requestID),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if c.maxRetries > 1 {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, err)
	}
	return nil, err
}

func newAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Detail = body.message()
	}
	return apiErr
}

// HealthCheck calls GET /health. Any 2xx answer means the API is reachable.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	req := c.client.R().SetResult(&HealthResponse{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/health", req)
	if err != nil {
		return nil, fmt.Errorf("failed to check API health: %w", err)
	}

	return resp.Result().(*HealthResponse), nil
}

// GetDashboard fetches the live open-trades dashboard for a reference date (YYYY-MM-DD).
func (c *Client) GetDashboard(ctx context.Context, date string) (*DashboardResponse, error) {
	req := c.client.R().
		SetQueryParam("fecha", date).
		SetResult(&DashboardResponse{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/dashboard", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard for %s: %w", date, err)
	}

	return resp.Result().(*DashboardResponse), nil
}

// GetHistoricalAnalysis fetches the aggregated historical analysis for a date range.
func (c *Client) GetHistoricalAnalysis(ctx context.Context, q HistoricalQuery) (*HistoricalResponse, error) {
	req := c.client.R().
		SetQueryParam("fecha_inicio", q.StartDate).
		SetQueryParam("fecha_fin", q.EndDate).
		SetResult(&HistoricalResponse{})
	if q.ProfitTarget != 0 {
		req.SetQueryParam("profit_target", strconv.FormatFloat(q.ProfitTarget, 'f', -1, 64))
	}
	if q.MaxDays != 0 {
		req.SetQueryParam("max_days", strconv.Itoa(q.MaxDays))
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/historical-analysis", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical analysis %s..%s: %w", q.StartDate, q.EndDate, err)
	}

	return resp.Result().(*HistoricalResponse), nil
}

// GetTickers lists the tickers the API tracks.
func (c *Client) GetTickers(ctx context.Context) (*TickersResponse, error) {
	req := c.client.R().SetResult(&TickersResponse{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/tickers", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickers: %w", err)
	}

	return resp.Result().(*TickersResponse), nil
}

// GetCurrentPrice fetches the latest cached or live price for a ticker.
func (c *Client) GetCurrentPrice(ctx context.Context, ticker string) (*TickerPrice, error) {
	req := c.client.R().
		SetPathParam("ticker", ticker).
		SetResult(&TickerPrice{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/price/{ticker}", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get price for %s: %w", ticker, err)
	}

	return resp.Result().(*TickerPrice), nil
}

// AnalyzeTicker runs the trade analysis for a single ticker.
func (c *Client) AnalyzeTicker(ctx context.Context, analysis AnalysisRequest) (*AnalysisResponse, error) {
	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(analysis).
		SetResult(&AnalysisResponse{})

	resp, err := c.doRequest(ctx, http.MethodPost, "/analyze", req)
	if err != nil {
		c.logger.Error("Failed to analyze ticker", zap.String("ticker", analysis.Ticker), zap.Error(err))
		return nil, fmt.Errorf("failed to analyze %s: %w", analysis.Ticker, err)
	}

	return resp.Result().(*AnalysisResponse), nil
}

// AnalyzeAll runs the trade analysis for every tracked ticker.
func (c *Client) AnalyzeAll(ctx context.Context, startDate, endDate string) (*AnalyzeAllResponse, error) {
	req := c.client.R().
		SetQueryParam("fecha_inicio", startDate).
		SetQueryParam("fecha_fin", endDate).
		SetResult(&AnalyzeAllResponse{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/analyze-all", req)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze all tickers: %w", err)
	}

	return resp.Result().(*AnalyzeAllResponse), nil
}
