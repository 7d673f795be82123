// Package market maintains the live candle series: it normalizes
// each poll into a chart-ready snapshot with indicator overlays, the
// timeframe grid, and — when the feed lags wall clock — a synthetic
// ghost bar so the chart always ends on the current bar boundary.
package market

import (
	"time"

	"signalpanel/internal/domain"
	"signalpanel/internal/indicators"
	"signalpanel/internal/timeutil"
)

// Snapshot is one fully derived view of the market for the active
// symbol/timeframe. It is rebuilt wholesale on every successful poll.
type Snapshot struct {
	Symbol    string
	Timeframe string
	Candles   []domain.Candle
	// Grid lists every bar open from first to last candle stepped by
	// the timeframe, including gaps the feed skipped.
	Grid       []int64
	Overlays   map[string][]indicators.OverlayPoint
	Confluence [3]int
	// LastBarSynthetic marks that the final candle is a ghost bar
	// synthesized from the previous close, not feed data.
	LastBarSynthetic bool
	FetchedAt        time.Time
}

// LastTime returns the time of the snapshot's final bar, ghost
// included, or 0 on an empty snapshot.
func (s *Snapshot) LastTime() int64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Time
}

// BuildSnapshot derives a snapshot from freshly fetched candles.
// Overlays and confluence are computed on the feed's bars before any
// ghost bar is appended, mirroring the chart: the in-progress candle
// never feeds the indicators.
func BuildSnapshot(symbol, tf string, candles []domain.Candle, now time.Time, cfg indicators.OverlayConfig) Snapshot {
	snap := Snapshot{
		Symbol:    symbol,
		Timeframe: tf,
		FetchedAt: now.UTC(),
		Overlays:  map[string][]indicators.OverlayPoint{},
	}
	if len(candles) == 0 {
		return snap
	}

	if len(candles) > 1 {
		snap.Overlays = indicators.BuildOverlays(candles[:len(candles)-1], cfg)
	}
	snap.Confluence = indicators.Confluence(candles)

	barSec := timeutil.TimeframeSeconds(tf)
	series := make([]domain.Candle, len(candles))
	copy(series, candles)

	last := series[len(series)-1]
	nowBar := timeutil.FloorToBar(now.Unix(), barSec)
	if last.Time < nowBar {
		c := last.Close
		series = append(series, domain.Candle{
			Time: nowBar, Open: c, High: c, Low: c, Close: c, Synthetic: true,
		})
		snap.LastBarSynthetic = true
	}
	snap.Candles = series

	first := series[0].Time
	lastTime := series[len(series)-1].Time
	grid := make([]int64, 0, (lastTime-first)/barSec+1)
	for t := first; t <= lastTime; t += barSec {
		grid = append(grid, t)
	}
	snap.Grid = grid
	return snap
}
