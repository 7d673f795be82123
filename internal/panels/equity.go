package panels

import (
	"math"
	"sort"
	"time"

	"signalpanel/internal/domain"
)

// FallbackStartCapital seeds the equity curve when the live balance
// endpoint is unavailable.
const FallbackStartCapital = 1000.0

// Annualized-return guards: the figure is hidden for short windows
// and clamped against absurd extrapolations.
const (
	minAnnualizeDays   = 21
	maxAnnualizedPct   = 5000.0
	sharpeAnnualFactor = 365
)

// StartingCapital derives the curve's seed from today's wallet minus
// the PnL already booked inside the loaded trade window, so the curve
// ends at the live balance. Without a wallet figure the fallback
// constant applies.
func StartingCapital(wallet float64, hasWallet bool, window []domain.ClosedTrade) float64 {
	if !hasWallet {
		return FallbackStartCapital
	}
	var booked float64
	for _, tr := range window {
		booked += tr.RealizedPnL
	}
	return wallet - booked
}

// BuildCurve accumulates realized PnL over the trade window, oldest
// first, starting from startCapital. The input order does not matter.
func BuildCurve(startCapital float64, trades []domain.ClosedTrade) []domain.EquityPoint {
	sorted := make([]domain.ClosedTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	points := make([]domain.EquityPoint, 0, len(sorted))
	balance := startCapital
	for _, tr := range sorted {
		balance += tr.RealizedPnL
		points = append(points, domain.EquityPoint{Time: tr.Timestamp, Balance: balance})
	}
	return points
}

// EquityStats are the KPI figures under the curve. Has* flags mark
// figures the guards suppressed.
type EquityStats struct {
	WinRatePct float64 `json:"win_rate_pct"`
	TradeCount int     `json:"trade_count"`

	Sharpe    float64 `json:"sharpe"`
	HasSharpe bool    `json:"has_sharpe"`

	MaxDrawdownPct float64 `json:"max_drawdown_pct"`

	AnnualizedPct    float64 `json:"annualized_pct"`
	HasAnnualized    bool    `json:"has_annualized"`
	AnnualizedCapped bool    `json:"annualized_capped"`
}

// ComputeStats derives the KPI block from a curve and its trades.
func ComputeStats(startCapital float64, points []domain.EquityPoint, trades []domain.ClosedTrade) EquityStats {
	var stats EquityStats
	stats.TradeCount = len(trades)

	if len(trades) > 0 {
		wins := 0
		for _, tr := range trades {
			if tr.RealizedPnL > 0 {
				wins++
			}
		}
		stats.WinRatePct = 100 * float64(wins) / float64(len(trades))
	}

	stats.MaxDrawdownPct = maxDrawdown(startCapital, points)

	if sharpe, ok := dailySharpe(startCapital, points); ok {
		stats.Sharpe, stats.HasSharpe = sharpe, true
	}

	if ann, capped, ok := annualized(startCapital, points); ok {
		stats.AnnualizedPct, stats.AnnualizedCapped, stats.HasAnnualized = ann, capped, true
	}
	return stats
}

func maxDrawdown(startCapital float64, points []domain.EquityPoint) float64 {
	peak := startCapital
	worst := 0.0
	for _, p := range points {
		if p.Balance > peak {
			peak = p.Balance
		}
		if peak > 0 {
			if dd := 100 * (peak - p.Balance) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// dailySharpe condenses the curve to one closing balance per UTC day,
// computes day-over-day returns and annualizes by √365. Needs at
// least two daily returns and nonzero variance.
func dailySharpe(startCapital float64, points []domain.EquityPoint) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	daily := map[string]float64{}
	days := []string{}
	for _, p := range points {
		key := p.Time.UTC().Format("2006-01-02")
		if _, seen := daily[key]; !seen {
			days = append(days, key)
		}
		daily[key] = p.Balance
	}
	sort.Strings(days)

	prev := startCapital
	returns := make([]float64, 0, len(days))
	for _, day := range days {
		bal := daily[day]
		if prev != 0 {
			returns = append(returns, (bal-prev)/prev)
		}
		prev = bal
	}
	if len(returns) < 2 {
		return 0, false
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0, false
	}
	return mean / math.Sqrt(variance) * math.Sqrt(sharpeAnnualFactor), true
}

func annualized(startCapital float64, points []domain.EquityPoint) (pct float64, capped, ok bool) {
	if len(points) < 2 || startCapital <= 0 {
		return 0, false, false
	}
	first, last := points[0], points[len(points)-1]
	span := last.Time.Sub(first.Time)
	if span < minAnnualizeDays*24*time.Hour {
		return 0, false, false
	}
	end := last.Balance
	if end <= 0 {
		return -100, false, true
	}
	years := span.Hours() / 24 / 365
	pct = 100 * (math.Pow(end/startCapital, 1/years) - 1)
	if pct > maxAnnualizedPct {
		return maxAnnualizedPct, true, true
	}
	if pct < -maxAnnualizedPct {
		return -maxAnnualizedPct, true, true
	}
	return pct, false, true
}
