package domain

// Candle is one OHLC sample on the timeframe grid. Time is the bar
// open in epoch seconds; candles in a series are ascending and unique
// by Time.
type Candle struct {
	Time      int64   `json:"time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Synthetic bool    `json:"synthetic,omitempty"` // ghost bar appended client-side, not from the feed
}

// Closes extracts the closing prices of a series.
func Closes(series []Candle) []float64 {
	out := make([]float64, len(series))
	for i, c := range series {
		out[i] = c.Close
	}
	return out
}
