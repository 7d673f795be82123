package domain

import "strings"

// Side is the direction of a position or signal.
type Side string

const (
	SideLong    Side = "long"
	SideShort   Side = "short"
	SideUnknown Side = ""
)

// ParseSide normalizes a raw side string. Anything that is not
// long/short maps to SideUnknown.
func ParseSide(raw string) Side {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "long":
		return SideLong
	case "short":
		return SideShort
	default:
		return SideUnknown
	}
}

// PositionMode is the account-level position setting of the exchange.
type PositionMode string

const (
	ModeHedge  PositionMode = "hedge"
	ModeOneWay PositionMode = "one_way"
	ModeNone   PositionMode = ""
)

// ParsePositionMode accepts the two known modes and maps everything
// else to ModeNone so callers can retain their last known value.
func ParsePositionMode(raw string) PositionMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hedge":
		return ModeHedge
	case "one_way", "oneway":
		return ModeOneWay
	default:
		return ModeNone
	}
}

// MarkerKind distinguishes position-open from position-close events.
type MarkerKind string

const (
	MarkerOpen  MarkerKind = "open"
	MarkerClose MarkerKind = "close"
)

// LocaleMode selects how numeric UI values are rendered.
type LocaleMode string

const (
	// LocaleExchange renders numbers the way the exchange does,
	// with fixed en-US grouping regardless of viewer locale.
	LocaleExchange LocaleMode = "exchange"
	// LocaleLocal renders numbers with the viewer's locale.
	LocaleLocal LocaleMode = "local"
)

// Theme is the persisted UI theme preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)
