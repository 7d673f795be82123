package panels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalpanel/internal/domain"
)

func closedAt(day int, pnl float64) domain.ClosedTrade {
	return domain.ClosedTrade{
		Symbol:      "BTCUSDT",
		RealizedPnL: pnl,
		Timestamp:   time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC),
	}
}

func TestStartingCapital(t *testing.T) {
	window := []domain.ClosedTrade{closedAt(1, 30), closedAt(2, -10)}

	// live wallet minus booked window PnL
	assert.Equal(t, 980.0, StartingCapital(1000, true, window))
	// no wallet: fallback constant
	assert.Equal(t, FallbackStartCapital, StartingCapital(0, false, window))
}

func TestBuildCurve_AccumulatesOldestFirst(t *testing.T) {
	// newest-first input, as the backend sends it
	trades := []domain.ClosedTrade{closedAt(3, 5), closedAt(1, 10), closedAt(2, -3)}

	curve := BuildCurve(100, trades)
	require.Len(t, curve, 3)
	assert.Equal(t, 110.0, curve[0].Balance)
	assert.Equal(t, 107.0, curve[1].Balance)
	assert.Equal(t, 112.0, curve[2].Balance)
	assert.True(t, curve[0].Time.Before(curve[1].Time))
}

func TestComputeStats_WinRateAndDrawdown(t *testing.T) {
	trades := []domain.ClosedTrade{closedAt(1, 10), closedAt(2, -50), closedAt(3, 20), closedAt(4, 5)}
	curve := BuildCurve(100, trades)

	stats := ComputeStats(100, curve, trades)
	assert.Equal(t, 75.0, stats.WinRatePct)
	assert.Equal(t, 4, stats.TradeCount)
	// peak 110 → trough 60
	assert.InDelta(t, 100*50.0/110.0, stats.MaxDrawdownPct, 1e-9)
}

func TestComputeStats_SharpeNeedsVariance(t *testing.T) {
	// identical daily gains: zero variance, no Sharpe
	flat := []domain.ClosedTrade{closedAt(1, 0), closedAt(2, 0), closedAt(3, 0)}
	stats := ComputeStats(100, BuildCurve(100, flat), flat)
	assert.False(t, stats.HasSharpe)

	varied := []domain.ClosedTrade{closedAt(1, 10), closedAt(2, -5), closedAt(3, 8)}
	stats = ComputeStats(100, BuildCurve(100, varied), varied)
	assert.True(t, stats.HasSharpe)
	assert.NotZero(t, stats.Sharpe)
}

func TestComputeStats_AnnualizedGuards(t *testing.T) {
	// 10-day span: too short to annualize
	short := []domain.ClosedTrade{closedAt(1, 10), closedAt(10, 10)}
	stats := ComputeStats(1000, BuildCurve(1000, short), short)
	assert.False(t, stats.HasAnnualized)

	// 30-day span with a modest gain: shown, uncapped
	long := []domain.ClosedTrade{closedAt(1, 10), closedAt(31, 10)}
	stats = ComputeStats(1000, BuildCurve(1000, long), long)
	require.True(t, stats.HasAnnualized)
	assert.False(t, stats.AnnualizedCapped)
	assert.Greater(t, stats.AnnualizedPct, 0.0)

	// 30-day doubling: extrapolation explodes and gets capped
	moon := []domain.ClosedTrade{closedAt(1, 100), closedAt(31, 900)}
	stats = ComputeStats(1000, BuildCurve(1000, moon), moon)
	require.True(t, stats.HasAnnualized)
	assert.True(t, stats.AnnualizedCapped)
	assert.Equal(t, 5000.0, stats.AnnualizedPct)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(1000, nil, nil)
	assert.Zero(t, stats.WinRatePct)
	assert.Zero(t, stats.MaxDrawdownPct)
	assert.False(t, stats.HasSharpe)
	assert.False(t, stats.HasAnnualized)
}
