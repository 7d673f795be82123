package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalpanel/internal/domain"
)

func TestCloseness(t *testing.T) {
	tests := []struct {
		name  string
		a, b  float64
		price float64
		want  float64
	}{
		{name: "identical values score 100", a: 100, b: 100, price: 100, want: 100},
		{name: "half tolerance scores 50", a: 100, b: 100.75, price: 100, want: 50},
		{name: "at tolerance scores 0", a: 100, b: 101.5, price: 100, want: 0},
		{name: "beyond tolerance clamps to 0", a: 100, b: 110, price: 100, want: 0},
		{name: "nan input scores 0", a: math.NaN(), b: 100, price: 100, want: 0},
		{name: "zero price scores 0", a: 100, b: 100, price: 0, want: 0},
		{name: "negative price scores 0", a: 100, b: 100, price: -5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Closeness(tt.a, tt.b, tt.price), 1e-9)
		})
	}
}

func flatSeries(n int, price float64) []domain.Candle {
	series := make([]domain.Candle, n)
	for i := range series {
		series[i] = domain.Candle{
			Time: int64(i) * 900, Open: price, High: price, Low: price, Close: price,
		}
	}
	return series
}

func TestConfluence_FlatMarketScoresFull(t *testing.T) {
	// On a flat series every MA equals price, so all pairs max out.
	got := Confluence(flatSeries(120, 50))
	assert.Equal(t, [3]int{100, 100, 100}, got)
}

func TestConfluence_ShortSeriesScoresZero(t *testing.T) {
	assert.Equal(t, [3]int{0, 0, 0}, Confluence(nil))
	assert.Equal(t, [3]int{0, 0, 0}, Confluence(flatSeries(1, 50)))
}

func TestConfluence_IgnoresLastBar(t *testing.T) {
	series := flatSeries(120, 50)
	// A wild in-progress candle must not move the scores.
	series[len(series)-1].Close = 5000
	assert.Equal(t, [3]int{100, 100, 100}, Confluence(series))
}

func TestConfluence_WarmupScoresZero(t *testing.T) {
	// 99-EMA undefined on a 30-bar series: its pairs must be zero.
	got := Confluence(flatSeries(30, 50))
	assert.Equal(t, 100, got[0], "7↔25 is defined")
	assert.Equal(t, 0, got[1], "25↔99 undefined during warm-up")
	assert.Equal(t, 0, got[2], "7↔99 undefined during warm-up")
}

func TestBuildOverlays(t *testing.T) {
	series := flatSeries(30, 50)
	got := BuildOverlays(series, OverlayConfig{SMA: []int{7, 25}, EMA: []int{99}})

	require.Contains(t, got, "SMA7")
	require.Contains(t, got, "SMA25")
	require.Contains(t, got, "EMA99")

	assert.Len(t, got["SMA7"], 24, "warm-up samples dropped")
	assert.Len(t, got["SMA25"], 6)
	assert.Empty(t, got["EMA99"], "period longer than series")

	first := got["SMA7"][0]
	assert.Equal(t, series[6].Time, first.Time)
	assert.Equal(t, 50.0, first.Value)
}
