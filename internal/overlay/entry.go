package overlay

import (
	"math"
	"strconv"
	"strings"
	"time"

	"signalpanel/internal/domain"
)

const maxLineDecimals = 6

// EntryLines carries the per-side entry price lines for the active
// symbol. When both sides land on (almost) the same price the long
// line is lifted by half a display increment so the two stay visually
// distinct.
type EntryLines struct {
	Long     float64
	Short    float64
	HasLong  bool
	HasShort bool
}

// BuildEntryLines picks the most recent entry per side from the open
// positions of one symbol and separates near-equal lines.
func BuildEntryLines(trades []domain.OpenTrade, symbol string) EntryLines {
	var lines EntryLines
	var longTS, shortTS time.Time
	for _, tr := range trades {
		if tr.Symbol != symbol || tr.EntryPrice <= 0 {
			continue
		}
		switch tr.Side {
		case domain.SideLong:
			if !lines.HasLong || !tr.Timestamp.Before(longTS) {
				lines.Long, lines.HasLong, longTS = tr.EntryPrice, true, tr.Timestamp
			}
		case domain.SideShort:
			if !lines.HasShort || !tr.Timestamp.Before(shortTS) {
				lines.Short, lines.HasShort, shortTS = tr.EntryPrice, true, tr.Timestamp
			}
		}
	}

	if lines.HasLong && lines.HasShort {
		eps := displayStep(lines.Long) / 2
		if math.Abs(lines.Long-lines.Short) < eps {
			lines.Long += eps
		}
	}
	return lines
}

// displayStep is one unit of the price's displayed precision: 1 for
// whole numbers, 0.01 for two decimals, and so on, capped at six
// decimal places.
func displayStep(price float64) float64 {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	decs := 0
	if i := strings.IndexByte(s, '.'); i >= 0 {
		decs = len(s) - i - 1
		if decs > maxLineDecimals {
			decs = maxLineDecimals
		}
	}
	return math.Pow(10, -float64(decs))
}
