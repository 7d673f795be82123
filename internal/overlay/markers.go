// Package overlay turns raw signal events and open positions into
// chart annotations: placed arrow/circle markers and per-side entry
// price lines.
package overlay

import (
	"fmt"
	"sort"

	"signalpanel/internal/domain"
	"signalpanel/internal/timeutil"
)

// Marker colors, shared with the chart's candle palette.
const (
	colorOpenLong     = "#10b981"
	colorOpenShort    = "#ef4444"
	colorCloseLong    = "#047857"
	colorCloseShort   = "#b91c1c"
	colorCloseUnknown = "#f59e0b"
)

// BuildOptions controls marker placement.
type BuildOptions struct {
	Timeframe string
	// LastBarTime re-times live open markers onto the series' final
	// bar so the arrow rides the current candle. Zero disables it.
	LastBarTime int64
	// Group merges same-bar duplicates into one "×N" marker instead
	// of nudging them apart by seconds.
	Group bool
}

// BuildMarkers classifies, filters, snaps and de-collides raw
// markers for one symbol. Output order follows input order except
// that grouping sorts by time for a stable chart diff.
func BuildMarkers(raw []domain.Marker, symbol string, opts BuildOptions) []domain.ChartMarker {
	tfSec := timeutil.TimeframeSeconds(opts.Timeframe)

	placed := make([]domain.ChartMarker, 0, len(raw))
	for _, m := range raw {
		if m.Symbol != symbol {
			continue
		}
		cm := classify(m)
		t := timeutil.FloorToBar(m.Time, tfSec)
		if m.Kind == domain.MarkerOpen && m.Live && opts.LastBarTime > 0 {
			t = opts.LastBarTime
		}
		cm.Time = t
		placed = append(placed, cm)
	}

	if opts.Group {
		return groupSameBar(placed)
	}
	return nudgeCollisions(placed)
}

func classify(m domain.Marker) domain.ChartMarker {
	if m.Kind == domain.MarkerOpen {
		if m.Side == domain.SideShort {
			return domain.ChartMarker{Position: domain.AboveBar, Shape: domain.ShapeArrowDown, Color: colorOpenShort}
		}
		return domain.ChartMarker{Position: domain.BelowBar, Shape: domain.ShapeArrowUp, Color: colorOpenLong}
	}
	// close events: small circle on the opposite vertical side
	switch m.Side {
	case domain.SideLong:
		return domain.ChartMarker{Position: domain.AboveBar, Shape: domain.ShapeCircle, Color: colorCloseLong, Size: 1}
	case domain.SideShort:
		return domain.ChartMarker{Position: domain.BelowBar, Shape: domain.ShapeCircle, Color: colorCloseShort, Size: 1}
	default:
		return domain.ChartMarker{Position: domain.BelowBar, Shape: domain.ShapeCircle, Color: colorCloseUnknown, Size: 1}
	}
}

// nudgeCollisions shifts repeat markers on the same (time, position)
// key forward by whole seconds so each stays individually visible.
func nudgeCollisions(markers []domain.ChartMarker) []domain.ChartMarker {
	used := make(map[string]int, len(markers))
	out := make([]domain.ChartMarker, len(markers))
	for i, m := range markers {
		key := fmt.Sprintf("%d:%s", m.Time, m.Position)
		used[key]++
		if n := used[key]; n > 1 {
			m.Time += int64(n - 1)
		}
		out[i] = m
	}
	return out
}

// groupSameBar merges markers sharing bar, position, shape and color
// into one marker carrying a "×N" count.
func groupSameBar(markers []domain.ChartMarker) []domain.ChartMarker {
	type group struct {
		marker domain.ChartMarker
		count  int
	}
	byKey := make(map[string]*group, len(markers))
	order := make([]string, 0, len(markers))
	for _, m := range markers {
		key := fmt.Sprintf("%d|%s|%s|%s|%s", m.Time, m.Position, m.Shape, m.Color, m.Text)
		g, ok := byKey[key]
		if !ok {
			g = &group{marker: m}
			byKey[key] = g
			order = append(order, key)
		}
		g.count++
	}
	out := make([]domain.ChartMarker, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		m := g.marker
		if g.count > 1 {
			if m.Text != "" {
				m.Text = fmt.Sprintf("%s ×%d", m.Text, g.count)
			} else {
				m.Text = fmt.Sprintf("×%d", g.count)
			}
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// LatestLiveOpenSymbol returns the symbol of the newest live open
// marker across all symbols, or "" when none exists. This feeds the
// auto-switch: closed history never changes the active symbol.
func LatestLiveOpenSymbol(raw []domain.Marker) string {
	var best *domain.Marker
	for i := range raw {
		m := &raw[i]
		if m.Kind != domain.MarkerOpen || !m.Live {
			continue
		}
		if best == nil || m.Time > best.Time {
			best = m
		}
	}
	if best == nil {
		return ""
	}
	return best.Symbol
}

// HasLiveOpen reports whether any live open marker exists for the
// symbol, used to drop the "waiting for signal" notice.
func HasLiveOpen(raw []domain.Marker, symbol string) bool {
	for _, m := range raw {
		if m.Symbol == symbol && m.Kind == domain.MarkerOpen && m.Live {
			return true
		}
	}
	return false
}
