package indicators

import (
	"math"

	"signalpanel/internal/domain"
)

// ClosenessTolerancePct is the MA distance, as percent of price,
// that maps to a zero confluence score.
const ClosenessTolerancePct = 1.5

// Confluence periods: the 7/25 SMAs and the 99 EMA shown on the
// chart feed the radial 7↔25 / 25↔99 / 7↔99 triple.
const (
	periodFast = 7
	periodMid  = 25
	periodSlow = 99
)

// Closeness scores how near two indicator values sit relative to the
// reference price: 100 when equal, falling linearly to 0 at
// tolerance percent of price. Any non-finite input scores 0.
func Closeness(a, b, price float64) float64 {
	return ClosenessAt(a, b, price, ClosenessTolerancePct)
}

// ClosenessAt is Closeness with an explicit tolerance.
func ClosenessAt(a, b, price, tolerancePct float64) float64 {
	if !finite(a) || !finite(b) || !finite(price) || price <= 0 || tolerancePct <= 0 {
		return 0
	}
	diffPct := math.Abs(a-b) / price * 100
	return math.Max(0, math.Min(100, 100*(1-diffPct/tolerancePct)))
}

// Confluence computes the 7↔25, 25↔99, 7↔99 closeness triple on the
// second-to-last bar of a series, so an in-progress candle never
// jitters the scores. Values are rounded to whole percent. A series
// shorter than two bars scores all zeros.
func Confluence(series []domain.Candle) [3]int {
	var out [3]int
	if len(series) < 2 {
		return out
	}
	idx := len(series) - 2
	closes := domain.Closes(series)
	fast := SMA(closes, periodFast)[idx]
	mid := SMA(closes, periodMid)[idx]
	slow := EMA(closes, periodSlow)[idx]
	px := series[idx].Close

	out[0] = int(math.Round(Closeness(fast, mid, px)))
	out[1] = int(math.Round(Closeness(mid, slow, px)))
	out[2] = int(math.Round(Closeness(fast, slow, px)))
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
