package domain

import "time"

// OpenTrade is a read-only view of a live position held on the
// backend. SizeText, when present, is the backend's pre-formatted
// quantity and wins over local formatting.
type OpenTrade struct {
	Symbol       string
	Side         Side
	EntryPrice   float64
	PositionSize float64
	SizeText     string
	Leverage     int
	Exchange     string
	Timestamp    time.Time
}

// ClosedTrade is a booked trade driving the recent-trades table and
// the equity curve.
type ClosedTrade struct {
	Symbol       string
	Side         Side
	EntryPrice   float64
	ExitPrice    float64
	PositionSize float64
	RealizedPnL  float64
	Timestamp    time.Time
}

// Unrealized is the normalized answer of the per-symbol unrealized
// PnL endpoint. The backend answers in several shapes (legs object,
// position list, bare aggregate); the API adapter flattens them all
// into this one struct. HasLong/HasShort mean "this leg was present
// in the response", independent of its value being zero.
type Unrealized struct {
	Mode     PositionMode
	Long     float64
	Short    float64
	HasLong  bool
	HasShort bool
	Total    float64
	HasTotal bool
}

// Overview carries the backend's precomputed KPI aggregates.
type Overview struct {
	PnL7d          *float64
	WinRate30d     *float64
	OpenTradeCount *int
	MaxDrawdown30d *float64
	Sharpe30d      *float64
	LastSignalAt   *time.Time
}

// TestStatus is the admin test console's mode probe result.
type TestStatus struct {
	Success      bool
	ConfigMode   string
	ExchangeMode string
}
