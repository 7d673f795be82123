package market

import (
	"sync"
	"time"
)

// Tier grades the data feed purely by time since the last successful
// poll, so a single failed tick never flickers the badge.
type Tier string

const (
	TierWaiting Tier = "waiting" // nothing attempted yet
	TierFresh   Tier = "fresh"   // within 2× refresh interval
	TierLaggy   Tier = "laggy"   // within 6×
	TierStale   Tier = "stale"   // within 24×
	TierBroken  Tier = "broken"  // older, or never succeeded
)

// Multiples of the refresh interval bounding each tier.
const (
	freshAgeFactor = 2
	laggyAgeFactor = 6
	staleAgeFactor = 24
)

// Freshness tracks poll outcomes for the feed badge.
type Freshness struct {
	mu       sync.Mutex
	interval time.Duration
	lastOK   time.Time
	lastErr  time.Time
}

// FreshnessView is the badge state handed to consumers, including
// whether the chart's last bar is synthesized (so genuine staleness
// masked by the ghost bar stays visible).
type FreshnessView struct {
	Tier             Tier      `json:"tier"`
	LastSuccess      time.Time `json:"last_success"`
	LastError        time.Time `json:"last_error"`
	LastBarSynthetic bool      `json:"last_bar_synthetic"`
}

// NewFreshness builds a tracker for the given refresh interval.
func NewFreshness(interval time.Duration) *Freshness {
	return &Freshness{interval: interval}
}

// RecordSuccess notes a successful poll at t.
func (f *Freshness) RecordSuccess(t time.Time) {
	f.mu.Lock()
	f.lastOK = t
	f.mu.Unlock()
}

// RecordError notes a failed poll at t. The tier is unaffected until
// enough time passes without a success.
func (f *Freshness) RecordError(t time.Time) {
	f.mu.Lock()
	f.lastErr = t
	f.mu.Unlock()
}

// Reset clears both marks, e.g. when the active symbol becomes empty
// and polling pauses.
func (f *Freshness) Reset() {
	f.mu.Lock()
	f.lastOK, f.lastErr = time.Time{}, time.Time{}
	f.mu.Unlock()
}

// TierAt grades the feed as of now.
func (f *Freshness) TierAt(now time.Time) Tier {
	f.mu.Lock()
	lastOK, lastErr := f.lastOK, f.lastErr
	f.mu.Unlock()

	if lastOK.IsZero() && lastErr.IsZero() {
		return TierWaiting
	}
	if lastOK.IsZero() {
		return TierBroken
	}
	age := now.Sub(lastOK)
	switch {
	case age <= time.Duration(freshAgeFactor)*f.interval:
		return TierFresh
	case age <= time.Duration(laggyAgeFactor)*f.interval:
		return TierLaggy
	case age <= time.Duration(staleAgeFactor)*f.interval:
		return TierStale
	default:
		return TierBroken
	}
}

// View assembles the badge state.
func (f *Freshness) View(now time.Time, lastBarSynthetic bool) FreshnessView {
	f.mu.Lock()
	lastOK, lastErr := f.lastOK, f.lastErr
	f.mu.Unlock()
	return FreshnessView{
		Tier:             f.TierAt(now),
		LastSuccess:      lastOK,
		LastError:        lastErr,
		LastBarSynthetic: lastBarSynthetic,
	}
}
