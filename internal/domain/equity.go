package domain

import "time"

// EquityPoint is one sample of the account equity curve:
// starting capital plus cumulative realized PnL up to Time.
type EquityPoint struct {
	Time    time.Time `json:"time"`
	Balance float64   `json:"balance"`
}

// Preferences is the per-viewer persisted panel state. It mirrors
// what the browser build kept in localStorage.
type Preferences struct {
	Theme           Theme
	LocaleMode      LocaleMode
	RefreshInterval time.Duration // zero means "use configured default"
}
