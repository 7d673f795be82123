// Package indicators computes the moving-average overlays and the
// confluence score shown next to the chart. All series functions
// return one value per input bar, with NaN marking the warm-up
// region before the indicator is defined.
package indicators

import "math"

// SMA computes the trailing simple moving average of values.
// Indices before period-1 are NaN. A non-positive period yields an
// all-NaN series of the same length.
func SMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average of values, seeded at
// index period-1 with the SMA of the first period values, then the
// standard recurrence with smoothing 2/(period+1). Indices before
// the seed are NaN.
func EMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	k := 2.0 / float64(period+1)
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	prev := seed / float64(period)
	out[period-1] = prev
	for i := period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Defined reports whether an indicator sample is past its warm-up.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}
