package panels

import (
	"signalpanel/internal/domain"
	"signalpanel/internal/locale"
)

// OverviewCard is the formatted KPI strip. Missing backend aggregates
// render as the dash placeholder rather than zeros.
type OverviewCard struct {
	PnL7d          string `json:"pnl_7d"`
	PnL7dClass     string `json:"pnl_7d_class"`
	WinRate30d     string `json:"win_rate_30d"`
	OpenTradeCount string `json:"open_trade_count"`
	MaxDrawdown30d string `json:"max_drawdown_30d"`
	Sharpe30d      string `json:"sharpe_30d"`
	LastSignalAt   string `json:"last_signal_at"`
}

// BuildOverview formats the backend's precomputed aggregates.
func BuildOverview(f *locale.Formatter, o *domain.Overview) OverviewCard {
	card := OverviewCard{
		PnL7d:          locale.Dash,
		WinRate30d:     locale.Dash,
		OpenTradeCount: locale.Dash,
		MaxDrawdown30d: locale.Dash,
		Sharpe30d:      locale.Dash,
		LastSignalAt:   locale.Dash,
	}
	if o == nil {
		return card
	}
	if o.PnL7d != nil {
		card.PnL7d = f.PnL(*o.PnL7d)
		card.PnL7dClass = pnlClass(*o.PnL7d)
	}
	if o.WinRate30d != nil {
		card.WinRate30d = f.Percent(*o.WinRate30d)
	}
	if o.OpenTradeCount != nil {
		card.OpenTradeCount = f.Number(float64(*o.OpenTradeCount))
	}
	if o.MaxDrawdown30d != nil {
		card.MaxDrawdown30d = f.Percent(*o.MaxDrawdown30d)
	}
	if o.Sharpe30d != nil {
		card.Sharpe30d = f.Fixed2(*o.Sharpe30d)
	}
	if o.LastSignalAt != nil {
		card.LastSignalAt = locale.DateUTCLabeled(*o.LastSignalAt)
	}
	return card
}

// TestStatusBadge grades the admin test console probe: ok when the
// configured and exchange-reported modes agree, warn when they drift,
// err when the probe itself failed.
type TestStatusBadge struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

// BuildTestStatusBadge maps a probe result to the badge.
func BuildTestStatusBadge(ts *domain.TestStatus) TestStatusBadge {
	if ts == nil || !ts.Success {
		return TestStatusBadge{Text: "status check failed", Class: ClassBadgeErr}
	}
	if ts.ConfigMode != "" && ts.ConfigMode == ts.ExchangeMode {
		return TestStatusBadge{Text: "config " + ts.ConfigMode + " = exchange " + ts.ExchangeMode, Class: ClassBadgeOK}
	}
	return TestStatusBadge{Text: "config " + ts.ConfigMode + " ≠ exchange " + ts.ExchangeMode, Class: ClassBadgeWrn}
}
