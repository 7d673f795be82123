// Package panels builds the summary view models: trade tables, the
// quick balance card and the equity/KPI panel. Everything here is a
// pure function from domain values to display strings; fetching and
// caching live elsewhere.
package panels

import (
	"fmt"

	"signalpanel/internal/domain"
	"signalpanel/internal/locale"
)

// CSS-ish classes the web layer attaches to colored cells.
const (
	ClassLong     = "side-long"
	ClassShort    = "side-short"
	ClassUnknown  = "side-unknown"
	ClassProfit   = "pnl-positive"
	ClassLoss     = "pnl-negative"
	ClassFlat     = "pnl-flat"
	ClassBadgeOK  = "badge-ok"
	ClassBadgeWrn = "badge-warn"
	ClassBadgeErr = "badge-err"
)

// OpenTradeRow is one formatted row of the open-positions table.
type OpenTradeRow struct {
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	SideClass  string `json:"side_class"`
	EntryPrice string `json:"entry_price"`
	Size       string `json:"size"`
	Leverage   string `json:"leverage"`
	Exchange   string `json:"exchange"`
	Opened     string `json:"opened"`
}

// ClosedTradeRow is one formatted row of the recent-trades table.
type ClosedTradeRow struct {
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	SideClass  string `json:"side_class"`
	EntryPrice string `json:"entry_price"`
	ExitPrice  string `json:"exit_price"`
	Size       string `json:"size"`
	PnL        string `json:"pnl"`
	PnLClass   string `json:"pnl_class"`
	Closed     string `json:"closed"`
}

// OpenTradeRows formats live positions for the table, input order
// preserved (the backend already sends newest first).
func OpenTradeRows(f *locale.Formatter, trades []domain.OpenTrade) []OpenTradeRow {
	rows := make([]OpenTradeRow, 0, len(trades))
	for _, tr := range trades {
		size := tr.SizeText
		if size == "" {
			size = f.Quantity(tr.PositionSize)
		}
		leverage := locale.Dash
		if tr.Leverage > 0 {
			leverage = fmt.Sprintf("%dx", tr.Leverage)
		}
		rows = append(rows, OpenTradeRow{
			Symbol:     tr.Symbol,
			Side:       sideLabel(tr.Side),
			SideClass:  sideClass(tr.Side),
			EntryPrice: f.Price(tr.EntryPrice),
			Size:       size,
			Leverage:   leverage,
			Exchange:   tr.Exchange,
			Opened:     locale.DateUTC(tr.Timestamp),
		})
	}
	return rows
}

// ClosedTradeRows formats booked trades for the table.
func ClosedTradeRows(f *locale.Formatter, trades []domain.ClosedTrade) []ClosedTradeRow {
	rows := make([]ClosedTradeRow, 0, len(trades))
	for _, tr := range trades {
		rows = append(rows, ClosedTradeRow{
			Symbol:     tr.Symbol,
			Side:       sideLabel(tr.Side),
			SideClass:  sideClass(tr.Side),
			EntryPrice: f.Price(tr.EntryPrice),
			ExitPrice:  f.Price(tr.ExitPrice),
			Size:       f.Quantity(tr.PositionSize),
			PnL:        f.PnL(tr.RealizedPnL),
			PnLClass:   pnlClass(tr.RealizedPnL),
			Closed:     locale.DateUTC(tr.Timestamp),
		})
	}
	return rows
}

func sideLabel(s domain.Side) string {
	switch s {
	case domain.SideLong:
		return "LONG"
	case domain.SideShort:
		return "SHORT"
	default:
		return "?"
	}
}

func sideClass(s domain.Side) string {
	switch s {
	case domain.SideLong:
		return ClassLong
	case domain.SideShort:
		return ClassShort
	default:
		return ClassUnknown
	}
}

func pnlClass(v float64) string {
	switch {
	case v > 0:
		return ClassProfit
	case v < 0:
		return ClassLoss
	default:
		return ClassFlat
	}
}
