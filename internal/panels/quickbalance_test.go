package panels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalpanel/internal/domain"
	"signalpanel/internal/locale"
)

func exchangeFormatter() *locale.Formatter {
	return locale.New(domain.LocaleExchange, "")
}

func TestBuildQuickBalance_OneWayMergesRows(t *testing.T) {
	f := exchangeFormatter()
	qb := BuildQuickBalance(f, QuickBalanceInput{
		Symbol: "BTCUSDT",
		Mode:   domain.ModeOneWay,
		Unrealized: domain.Unrealized{
			Long: 12.5, HasLong: true,
			Short: -2.5, HasShort: true,
		},
		OpenTrades: []domain.OpenTrade{{Symbol: "BTCUSDT", Side: domain.SideLong}},
		HasNet:     true, Net: 0,
		HasWallet: true, Wallet: 1500,
	})

	require.Len(t, qb.Unrealized, 1, "one-way shows a single merged row")
	assert.Equal(t, "Unrealized", qb.Unrealized[0].Label)
	assert.Equal(t, "+10.00", qb.Unrealized[0].Value)
}

func TestBuildQuickBalance_HedgeSplitsRows(t *testing.T) {
	f := exchangeFormatter()
	qb := BuildQuickBalance(f, QuickBalanceInput{
		Symbol: "BTCUSDT",
		Mode:   domain.ModeHedge,
		Unrealized: domain.Unrealized{
			Long: 0, HasLong: true,
			Short: -3.1, HasShort: true,
		},
		OpenTrades: []domain.OpenTrade{
			{Symbol: "BTCUSDT", Side: domain.SideLong},
			{Symbol: "BTCUSDT", Side: domain.SideShort},
		},
		HasWallet: true,
	})

	require.Len(t, qb.Unrealized, 2)
	assert.Equal(t, "Long", qb.Unrealized[0].Label)
	assert.Equal(t, "+0.00", qb.Unrealized[0].Value, "zero-valued open leg still shows")
	assert.Equal(t, "Short", qb.Unrealized[1].Label)
	assert.Equal(t, "-3.10", qb.Unrealized[1].Value)
}

func TestBuildQuickBalance_AbsentLegNeverShows(t *testing.T) {
	f := exchangeFormatter()
	qb := BuildQuickBalance(f, QuickBalanceInput{
		Symbol: "BTCUSDT",
		Mode:   domain.ModeHedge,
		// stale short figure in the response but no open short position
		Unrealized: domain.Unrealized{Long: 5, HasLong: true, Short: 9, HasShort: true},
		OpenTrades: []domain.OpenTrade{{Symbol: "BTCUSDT", Side: domain.SideLong}},
		HasWallet:  true,
	})

	require.Len(t, qb.Unrealized, 1)
	assert.Equal(t, "Long", qb.Unrealized[0].Label)
}

func TestBuildQuickBalance_OpenLegShowsWhenResponseOmitsIt(t *testing.T) {
	f := exchangeFormatter()
	qb := BuildQuickBalance(f, QuickBalanceInput{
		Symbol:     "BTCUSDT",
		Mode:       domain.ModeHedge,
		Unrealized: domain.Unrealized{},
		OpenTrades: []domain.OpenTrade{{Symbol: "BTCUSDT", Side: domain.SideLong}},
		HasWallet:  true,
	})

	require.Len(t, qb.Unrealized, 1, "an open leg shows even when the lookup carried no figure")
	assert.Equal(t, "Long", qb.Unrealized[0].Label)
	assert.Equal(t, "+0.00", qb.Unrealized[0].Value)
}

func TestBuildQuickBalance_NoOpenPositionHidesRows(t *testing.T) {
	f := exchangeFormatter()
	qb := BuildQuickBalance(f, QuickBalanceInput{
		Symbol:     "BTCUSDT",
		Mode:       domain.ModeOneWay,
		Unrealized: domain.Unrealized{Total: 42, HasTotal: true},
		OpenTrades: []domain.OpenTrade{{Symbol: "ETHUSDT", Side: domain.SideLong}},
		HasWallet:  true,
	})
	assert.Empty(t, qb.Unrealized)
	assert.Equal(t, "1", qb.OpenCount, "count spans all symbols")
}

func TestBuildQuickBalance_NetFallsBackToTradeSum(t *testing.T) {
	f := exchangeFormatter()
	qb := BuildQuickBalance(f, QuickBalanceInput{
		Symbol: "BTCUSDT",
		RecentTrades: []domain.ClosedTrade{
			{Symbol: "BTCUSDT", RealizedPnL: 10, Timestamp: time.Unix(100, 0)},
			{Symbol: "BTCUSDT", RealizedPnL: -4, Timestamp: time.Unix(200, 0)},
		},
		HasWallet: true,
	})
	assert.Equal(t, "+6.00", qb.NetPnL)
	assert.True(t, qb.NetFromTrades)
}

func TestBuildQuickBalance_SimulatedWallet(t *testing.T) {
	f := exchangeFormatter()
	qb := BuildQuickBalance(f, QuickBalanceInput{
		Symbol:       "BTCUSDT",
		StartCapital: 1000,
		HasNet:       true, Net: 25,
	})
	assert.Equal(t, "≈1,025.00", qb.Wallet)
	assert.True(t, qb.Simulated)
}

func TestBuildQuickBalance_LastClosedLine(t *testing.T) {
	f := exchangeFormatter()
	qb := BuildQuickBalance(f, QuickBalanceInput{
		Symbol: "BTCUSDT",
		RecentTrades: []domain.ClosedTrade{
			{Symbol: "ETHUSDT", RealizedPnL: 3, Timestamp: time.Date(2024, 2, 1, 3, 4, 0, 0, time.UTC)},
			{Symbol: "BTCUSDT", RealizedPnL: -1, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		HasWallet: true, HasNet: true,
	})
	assert.Equal(t, "ETHUSDT +3.00 01.02 03:04", qb.LastClosed)
}
