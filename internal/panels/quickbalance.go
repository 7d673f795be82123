package panels

import (
	"fmt"

	"signalpanel/internal/domain"
	"signalpanel/internal/locale"
)

// QuickBalanceInput collects everything the card draws on. HasWallet
// and HasNet mark whether the live endpoints answered; the builder
// handles every fallback itself.
type QuickBalanceInput struct {
	Symbol string

	Wallet    float64
	HasWallet bool
	// StartCapital seeds the simulated wallet when the live balance
	// endpoint gave nothing.
	StartCapital float64

	Net    float64
	HasNet bool

	Unrealized domain.Unrealized
	Mode       domain.PositionMode

	OpenTrades   []domain.OpenTrade
	RecentTrades []domain.ClosedTrade
}

// UnrealizedRow is one long/short/total line on the card.
type UnrealizedRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Class string `json:"class"`
}

// QuickBalance is the formatted card.
type QuickBalance struct {
	Wallet    string `json:"wallet"`
	Simulated bool   `json:"simulated"`

	NetPnL      string `json:"net_pnl"`
	NetPnLClass string `json:"net_pnl_class"`
	// NetFromTrades flags the sum-of-recent-trades fallback.
	NetFromTrades bool `json:"net_from_trades"`

	Unrealized []UnrealizedRow `json:"unrealized"`
	OpenCount  string          `json:"open_count"`
	LastClosed string          `json:"last_closed"`
}

// BuildQuickBalance assembles the card. Unrealized rows split by side
// in hedge mode and merge into one total in one-way mode. Row
// visibility follows open positions alone: a side with an open
// position shows even when the response carried no figure for it
// (rendered as zero), and a side without one never shows.
func BuildQuickBalance(f *locale.Formatter, in QuickBalanceInput) QuickBalance {
	net, fromTrades := netPnL(in)

	var out QuickBalance
	out.NetPnL = f.PnL(net)
	out.NetPnLClass = pnlClass(net)
	out.NetFromTrades = fromTrades

	if in.HasWallet {
		out.Wallet = f.Fixed2(in.Wallet)
	} else {
		out.Wallet = "≈" + f.Fixed2(in.StartCapital+net)
		out.Simulated = true
	}

	out.Unrealized = unrealizedRows(f, in)
	out.OpenCount = f.Number(float64(len(in.OpenTrades)))
	out.LastClosed = lastClosedLine(f, in.RecentTrades)
	return out
}

func netPnL(in QuickBalanceInput) (float64, bool) {
	if in.HasNet {
		return in.Net, false
	}
	var sum float64
	for _, tr := range in.RecentTrades {
		sum += tr.RealizedPnL
	}
	return sum, true
}

func unrealizedRows(f *locale.Formatter, in QuickBalanceInput) []UnrealizedRow {
	var hasOpenLong, hasOpenShort bool
	for _, tr := range in.OpenTrades {
		if tr.Symbol != in.Symbol {
			continue
		}
		switch tr.Side {
		case domain.SideLong:
			hasOpenLong = true
		case domain.SideShort:
			hasOpenShort = true
		}
	}

	u := in.Unrealized
	if in.Mode == domain.ModeHedge {
		rows := make([]UnrealizedRow, 0, 2)
		if hasOpenLong {
			v := 0.0
			if u.HasLong {
				v = u.Long
			}
			rows = append(rows, UnrealizedRow{Label: "Long", Value: f.PnL(v), Class: pnlClass(v)})
		}
		if hasOpenShort {
			v := 0.0
			if u.HasShort {
				v = u.Short
			}
			rows = append(rows, UnrealizedRow{Label: "Short", Value: f.PnL(v), Class: pnlClass(v)})
		}
		return rows
	}

	// one-way: a single merged total while any position is open
	if !hasOpenLong && !hasOpenShort {
		return nil
	}
	total := u.Total
	if !u.HasTotal {
		total = 0
		if u.HasLong {
			total += u.Long
		}
		if u.HasShort {
			total += u.Short
		}
	}
	return []UnrealizedRow{{Label: "Unrealized", Value: f.PnL(total), Class: pnlClass(total)}}
}

func lastClosedLine(f *locale.Formatter, trades []domain.ClosedTrade) string {
	if len(trades) == 0 {
		return locale.Dash
	}
	newest := trades[0]
	for _, tr := range trades[1:] {
		if tr.Timestamp.After(newest.Timestamp) {
			newest = tr
		}
	}
	return fmt.Sprintf("%s %s %s", newest.Symbol, f.PnL(newest.RealizedPnL), locale.DateShort(newest.Timestamp))
}
