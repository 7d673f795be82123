// Package resolve owns the active-symbol lifecycle: the bootstrap
// priority chain, the live-signal auto-switch, and per-symbol
// position-mode tracking.
package resolve

import (
	"strings"
	"time"

	"signalpanel/internal/domain"
)

// DefaultSymbol is charted when nothing else resolves.
const DefaultSymbol = "BTCUSDT"

// BootstrapInput collects the candidates the priority chain draws
// from. Any field may be empty.
type BootstrapInput struct {
	// RequestedSymbol comes from the ?symbol= query parameter or the
	// SYMBOL env override and always wins when set.
	RequestedSymbol string
	OpenTrades      []domain.OpenTrade
	RecentTrades    []domain.ClosedTrade
	KnownSymbols    []string
}

// Resolution is the bootstrap outcome. Waiting is set only when the
// chain fell through to the default, driving the non-blocking
// "waiting for signal" notice.
type Resolution struct {
	Symbol  string
	Waiting bool
}

// ResolveSymbol walks the priority chain, first non-empty wins:
// requested symbol, any open position, the most recent closed trade,
// the backend's known-symbols list, then the default.
func ResolveSymbol(in BootstrapInput) Resolution {
	if s := normalizeSymbol(in.RequestedSymbol); s != "" {
		return Resolution{Symbol: s}
	}
	for _, tr := range in.OpenTrades {
		if s := normalizeSymbol(tr.Symbol); s != "" {
			return Resolution{Symbol: s}
		}
	}
	if best := newestClosed(in.RecentTrades); best != "" {
		return Resolution{Symbol: best}
	}
	for _, s := range in.KnownSymbols {
		if s = normalizeSymbol(s); s != "" {
			return Resolution{Symbol: s}
		}
	}
	return Resolution{Symbol: DefaultSymbol, Waiting: true}
}

func newestClosed(trades []domain.ClosedTrade) string {
	var symbol string
	var ts time.Time
	for _, tr := range trades {
		s := normalizeSymbol(tr.Symbol)
		if s == "" {
			continue
		}
		if symbol == "" || tr.Timestamp.After(ts) {
			symbol, ts = s, tr.Timestamp
		}
	}
	return symbol
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
