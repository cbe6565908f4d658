package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"trade-dashboard-sync/internal/analytics"
	"trade-dashboard-sync/internal/config"
	"trade-dashboard-sync/internal/models"

	"go.uber.org/zap"
)

// HistoricalThresholdDays is the reference-date age beyond which the live dashboard
// endpoint is replaced by the historical analysis. It is a business rule, not a setting.
const HistoricalThresholdDays = 45

const msPerDay = 86_400_000

// SnapshotAPI is the part of the analytics API the selector needs.
type SnapshotAPI interface {
	GetDashboard(ctx context.Context, date string) (*analytics.DashboardResponse, error)
	GetHistoricalAnalysis(ctx context.Context, q analytics.HistoricalQuery) (*analytics.HistoricalResponse, error)
}

// AgeDays is the number of whole 24h periods between referenceDate and now,
// truncated: 45 days and 23 hours is 45.
func AgeDays(referenceDate, now time.Time) int64 {
	ms := now.Sub(referenceDate).Milliseconds()
	return int64(math.Floor(float64(ms) / msPerDay))
}

// ChooseSource picks the endpoint for a reference date.
func ChooseSource(referenceDate, now time.Time) models.Source {
	if AgeDays(referenceDate, now) > HistoricalThresholdDays {
		return models.SourceHistorical
	}
	return models.SourceLive
}

// Selector fetches a snapshot from whichever endpoint suits the reference date and
// normalizes it into the canonical shape.
type Selector struct {
	api          SnapshotAPI
	logger       *zap.Logger
	profitTarget float64
	maxDays      int
}

// NewSelector creates a selector. Analysis parameters are only forwarded to the
// historical endpoint.
func NewSelector(api SnapshotAPI, analysis config.Analysis, logger *zap.Logger) *Selector {
	return &Selector{
		api:          api,
		logger:       logger,
		profitTarget: analysis.ProfitTarget,
		maxDays:      analysis.MaxDays,
	}
}

// Fetch loads a complete snapshot for referenceDate as of now. Errors are *Error of
// kind KindFetch.
func (s *Selector) Fetch(ctx context.Context, referenceDate, now time.Time) (*models.DashboardSnapshot, error) {
	source := ChooseSource(referenceDate, now)
	l := s.logger.With(
		zap.String("reference_date", models.FormatDate(referenceDate)),
		zap.String("source", string(source)),
	)
	l.Debug("Fetching snapshot", zap.Int64("age_days", AgeDays(referenceDate, now)))

	var snap *models.DashboardSnapshot
	var err error
	if source == models.SourceHistorical {
		snap, err = s.fetchHistorical(ctx, referenceDate, now)
	} else {
		snap, err = s.fetchLive(ctx, referenceDate)
	}
	if err != nil {
		l.Error("Snapshot fetch failed", zap.Error(err))
		return nil, NewFetchError(source, referenceDate, err)
	}

	snap.FetchedAt = now
	l.Info("Snapshot fetched", zap.Int("trades", len(snap.Trades)))
	return snap, nil
}

func (s *Selector) fetchLive(ctx context.Context, referenceDate time.Time) (*models.DashboardSnapshot, error) {
	resp, err := s.api.GetDashboard(ctx, models.FormatDate(referenceDate))
	if err != nil {
		return nil, err
	}

	trades := make([]models.Trade, 0, len(resp.OpenTrades))
	for _, raw := range resp.OpenTrades {
		trade, err := fromTradeResult(raw)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	ref := referenceDate
	if resp.AnalysisDate != "" {
		if d, err := models.ParseDate(resp.AnalysisDate); err == nil {
			ref = d
		}
	}

	return &models.DashboardSnapshot{
		ReferenceDate:    ref,
		Source:           models.SourceLive,
		Trades:           trades,
		TotalTrades:      resp.TotalTrades,
		SuccessfulTrades: resp.SuccessfulTrades,
		TotalProfit:      resp.TotalProfit,
		AverageDays:      resp.AverageDays,
	}, nil
}

func (s *Selector) fetchHistorical(ctx context.Context, referenceDate, now time.Time) (*models.DashboardSnapshot, error) {
	resp, err := s.api.GetHistoricalAnalysis(ctx, analytics.HistoricalQuery{
		StartDate:    models.FormatDate(referenceDate),
		EndDate:      models.FormatDate(now),
		ProfitTarget: s.profitTarget,
		MaxDays:      s.maxDays,
	})
	if err != nil {
		return nil, err
	}

	trades := make([]models.Trade, 0, len(resp.Trades))
	for _, raw := range resp.Trades {
		trade, err := fromHistoricalTrade(raw)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	return &models.DashboardSnapshot{
		ReferenceDate:    referenceDate,
		Source:           models.SourceHistorical,
		Trades:           trades,
		TotalTrades:      resp.Summary.TotalTrades,
		SuccessfulTrades: resp.Summary.SuccessfulTrades,
		TotalProfit:      resp.Summary.TotalProfit,
		AverageDays:      resp.Summary.AverageDurationDays,
	}, nil
}

func fromTradeResult(raw analytics.TradeResult) (models.Trade, error) {
	purchaseDate, saleDate, err := parseTradeDates(raw.Ticker, raw.TradeNum, raw.PurchaseDate, raw.SaleDate)
	if err != nil {
		return models.Trade{}, err
	}
	return models.Trade{
		TradeNumber:    raw.TradeNum,
		Ticker:         raw.Ticker,
		PurchaseDate:   purchaseDate,
		SaleDate:       saleDate,
		PurchasePrice:  raw.PurchasePrice,
		TargetPrice:    raw.TargetPrice,
		SalePrice:      raw.SalePrice,
		CurrentPrice:   models.PriceOrPurchase(raw.CurrentPrice, raw.PurchasePrice),
		DaysElapsed:    raw.Days,
		ProfitPercent:  raw.ProfitPct,
		ProfitAbsolute: raw.ProfitAbsolute,
		Status:         raw.Status,
	}, nil
}

func fromHistoricalTrade(raw analytics.HistoricalTrade) (models.Trade, error) {
	purchaseDate, saleDate, err := parseTradeDates(raw.Ticker, raw.TradeNum, raw.PurchaseDate, raw.SaleDate)
	if err != nil {
		return models.Trade{}, err
	}
	return models.Trade{
		TradeNumber:    raw.TradeNum,
		Ticker:         raw.Ticker,
		PurchaseDate:   purchaseDate,
		SaleDate:       saleDate,
		PurchasePrice:  raw.PurchasePrice,
		TargetPrice:    raw.TargetPrice,
		SalePrice:      raw.SalePrice,
		CurrentPrice:   models.PriceOrPurchase(raw.SalePrice, raw.PurchasePrice),
		DaysElapsed:    raw.DurationDays,
		ProfitPercent:  raw.ProfitPct,
		ProfitAbsolute: raw.ProfitAbsolute,
		Status:         raw.FinalStatus,
	}, nil
}

func parseTradeDates(ticker string, num int, purchase string, sale *string) (time.Time, *time.Time, error) {
	purchaseDate, err := models.ParseDate(purchase)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("trade %s #%d: purchase date: %w", ticker, num, err)
	}
	if sale == nil || *sale == "" {
		return purchaseDate, nil, nil
	}
	saleDate, err := models.ParseDate(*sale)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("trade %s #%d: sale date: %w", ticker, num, err)
	}
	return purchaseDate, &saleDate, nil
}
