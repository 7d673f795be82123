package market

import (
	"context"
	"sync"
	"time"

	"signalpanel/internal/indicators"
	"signalpanel/internal/ports"
)

// Refresher owns the kline poll cycle for the active symbol: fetch,
// rebuild the snapshot, track freshness. A failed fetch leaves the
// previous snapshot untouched.
type Refresher struct {
	source    ports.MarketSource
	logger    ports.Logger
	overlays  indicators.OverlayConfig
	freshness *Freshness
	limit     int

	mu       sync.RWMutex
	snapshot Snapshot
	hasData  bool
}

// RefresherConfig wires a Refresher.
type RefresherConfig struct {
	Source   ports.MarketSource
	Logger   ports.Logger
	Interval time.Duration
	Limit    int
	Overlays indicators.OverlayConfig
}

// NewRefresher builds a refresher with the chart's default overlay
// layers unless configured otherwise.
func NewRefresher(cfg RefresherConfig) *Refresher {
	overlays := cfg.Overlays
	if len(overlays.SMA) == 0 && len(overlays.EMA) == 0 {
		overlays = indicators.DefaultOverlays
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 1000
	}
	return &Refresher{
		source:    cfg.Source,
		logger:    cfg.Logger,
		overlays:  overlays,
		freshness: NewFreshness(cfg.Interval),
		limit:     limit,
	}
}

// Tick fetches candles for symbol/tf and replaces the snapshot. With
// an empty symbol the tick is a no-op and freshness resets, matching
// the chart's behavior before bootstrap resolves a symbol.
func (r *Refresher) Tick(ctx context.Context, symbol, tf string) error {
	if symbol == "" {
		r.freshness.Reset()
		return nil
	}
	now := time.Now().UTC()
	candles, err := r.source.Klines(ctx, symbol, tf, r.limit)
	if err != nil {
		r.freshness.RecordError(now)
		return err
	}
	r.freshness.RecordSuccess(now)
	if len(candles) == 0 {
		if r.logger != nil {
			r.logger.Debug(ctx, "kline poll returned no rows", map[string]interface{}{
				"symbol": symbol, "tf": tf,
			})
		}
		return nil
	}

	snap := BuildSnapshot(symbol, tf, candles, now, r.overlays)
	r.mu.Lock()
	r.snapshot = snap
	r.hasData = true
	r.mu.Unlock()
	return nil
}

// Snapshot returns the current snapshot; ok=false before any data.
func (r *Refresher) Snapshot() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot, r.hasData
}

// Clear drops the snapshot, used when the active symbol changes so a
// stale chart is never served for the new symbol.
func (r *Refresher) Clear() {
	r.mu.Lock()
	r.snapshot = Snapshot{}
	r.hasData = false
	r.mu.Unlock()
}

// Freshness exposes the feed badge state.
func (r *Refresher) Freshness(now time.Time) FreshnessView {
	r.mu.RLock()
	synthetic := r.hasData && r.snapshot.LastBarSynthetic
	r.mu.RUnlock()
	return r.freshness.View(now, synthetic)
}
