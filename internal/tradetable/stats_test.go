package tradetable

import (
	"testing"

	"trade-dashboard-sync/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStatsOf(t *testing.T) {
	tests := []struct {
		name string
		snap models.DashboardSnapshot
		want Stats
	}{
		{
			name: "NoTrades",
			snap: models.DashboardSnapshot{},
			want: Stats{SuccessBand: RateLow, ProfitPositive: true},
		},
		{
			name: "HighRate",
			snap: models.DashboardSnapshot{TotalTrades: 10, SuccessfulTrades: 7, TotalProfit: 120.5, AverageDays: 12.5},
			want: Stats{OpenTrades: 3, SuccessRate: 70, SuccessBand: RateHigh, TotalProfit: 120.5, ProfitPositive: true, AverageDays: 12.5},
		},
		{
			name: "MediumRate",
			snap: models.DashboardSnapshot{TotalTrades: 4, SuccessfulTrades: 2, TotalProfit: 0},
			want: Stats{OpenTrades: 2, SuccessRate: 50, SuccessBand: RateMedium, ProfitPositive: true},
		},
		{
			name: "LowRateLoss",
			snap: models.DashboardSnapshot{TotalTrades: 4, SuccessfulTrades: 1, TotalProfit: -30},
			want: Stats{OpenTrades: 3, SuccessRate: 25, SuccessBand: RateLow, TotalProfit: -30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.snap
			assert.Equal(t, tt.want, StatsOf(&snap))
		})
	}
}
