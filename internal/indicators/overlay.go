package indicators

import (
	"fmt"

	"signalpanel/internal/domain"
)

// OverlayPoint is one sample of an MA overlay line on the chart.
type OverlayPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// OverlayConfig lists which moving averages to draw.
type OverlayConfig struct {
	SMA []int
	EMA []int
}

// DefaultOverlays matches the chart's stock layers.
var DefaultOverlays = OverlayConfig{SMA: []int{7, 25}, EMA: []int{99}}

// BuildOverlays computes every configured MA over the series and
// returns keyed point lists ("SMA7", "EMA99", ...), dropping warm-up
// samples. Callers pass the series minus its last (in-progress) bar.
func BuildOverlays(series []domain.Candle, cfg OverlayConfig) map[string][]OverlayPoint {
	out := make(map[string][]OverlayPoint, len(cfg.SMA)+len(cfg.EMA))
	if len(series) == 0 {
		return out
	}
	closes := domain.Closes(series)
	for _, p := range cfg.SMA {
		out[fmt.Sprintf("SMA%d", p)] = toPoints(series, SMA(closes, p))
	}
	for _, p := range cfg.EMA {
		out[fmt.Sprintf("EMA%d", p)] = toPoints(series, EMA(closes, p))
	}
	return out
}

func toPoints(series []domain.Candle, values []float64) []OverlayPoint {
	pts := make([]OverlayPoint, 0, len(values))
	for i, v := range values {
		if !Defined(v) {
			continue
		}
		pts = append(pts, OverlayPoint{Time: series[i].Time, Value: v})
	}
	return pts
}
