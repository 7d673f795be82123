// Package locale renders panel numbers and dates. Precision tiers
// follow the exchange convention: micro-priced assets get up to
// eight fraction digits so they stay legible, large prices get two.
// The viewer can flip between fixed exchange-style (en-US) output
// and their own locale at runtime.
package locale

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"signalpanel/internal/domain"
)

// Dash is the placeholder for missing numeric values.
const Dash = "—"

// Formatter renders numbers per the active locale mode. Safe for
// concurrent use; SetMode may be called from event handlers while
// pollers format.
type Formatter struct {
	mu    sync.RWMutex
	mode  domain.LocaleMode
	local language.Tag
}

// New builds a formatter. localTag is the viewer's BCP-47 tag used
// in LocaleLocal mode; invalid or empty tags fall back to en-US.
func New(mode domain.LocaleMode, localTag string) *Formatter {
	tag, err := language.Parse(localTag)
	if err != nil || localTag == "" {
		tag = language.AmericanEnglish
	}
	if mode != domain.LocaleLocal {
		mode = domain.LocaleExchange
	}
	return &Formatter{mode: mode, local: tag}
}

// Mode returns the active locale mode.
func (f *Formatter) Mode() domain.LocaleMode {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.mode
}

// SetMode switches between exchange and local rendering.
func (f *Formatter) SetMode(mode domain.LocaleMode) {
	if mode != domain.LocaleLocal {
		mode = domain.LocaleExchange
	}
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
}

func (f *Formatter) printer() *message.Printer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.mode == domain.LocaleLocal {
		return message.NewPrinter(f.local)
	}
	return message.NewPrinter(language.AmericanEnglish)
}

func (f *Formatter) decimal(v float64, minFrac, maxFrac int) string {
	return f.printer().Sprint(number.Decimal(v,
		number.MinFractionDigits(minFrac),
		number.MaxFractionDigits(maxFrac)))
}

// Price picks fraction digits by magnitude: fewer for large prices,
// up to eight below 0.01.
func (f *Formatter) Price(v float64) string {
	if !isFinite(v) {
		return Dash
	}
	abs := math.Abs(v)
	var max int
	switch {
	case abs >= 1000:
		max = 2
	case abs >= 100:
		max = 3
	case abs >= 1:
		max = 4
	case abs >= 0.1:
		max = 5
	case abs >= 0.01:
		max = 6
	default:
		max = 8
	}
	return f.decimal(v, 0, max)
}

// Quantity pads at least three fraction digits below 1 (exchange
// style "0.120 BTC") and caps at three above.
func (f *Formatter) Quantity(v float64) string {
	if !isFinite(v) {
		return Dash
	}
	if v == 0 {
		return "0"
	}
	if math.Abs(v) < 1 {
		return f.decimal(v, 3, 6)
	}
	return f.decimal(v, 0, 3)
}

// PnL renders a signed two-decimal figure.
func (f *Formatter) PnL(v float64) string {
	if !isFinite(v) {
		return Dash
	}
	sign := "+"
	if v < 0 {
		sign = "-"
	}
	return sign + f.decimal(math.Abs(v), 2, 2)
}

// Number renders an integer-ish count with locale grouping.
func (f *Formatter) Number(v float64) string {
	if !isFinite(v) {
		return Dash
	}
	return f.decimal(v, 0, 0)
}

// Fixed2 renders a plain two-decimal figure, no sign handling.
func (f *Formatter) Fixed2(v float64) string {
	if !isFinite(v) {
		return Dash
	}
	return f.decimal(v, 2, 2)
}

// Percent renders a value already expressed in percent, one decimal.
func (f *Formatter) Percent(v float64) string {
	if !isFinite(v) {
		return Dash
	}
	return f.decimal(math.Round(v*10)/10, 0, 1) + "%"
}

// DateUTC renders "DD.MM.YYYY HH:MM:SS" in UTC, the exchange-side
// single clock used by the trade tables.
func DateUTC(t time.Time) string {
	if t.IsZero() {
		return Dash
	}
	u := t.UTC()
	return fmt.Sprintf("%02d.%02d.%04d %02d:%02d:%02d",
		u.Day(), u.Month(), u.Year(), u.Hour(), u.Minute(), u.Second())
}

// DateUTCLabeled appends the explicit UTC suffix used next to KPI
// timestamps.
func DateUTCLabeled(t time.Time) string {
	if t.IsZero() {
		return Dash
	}
	return DateUTC(t) + " UTC"
}

// DateShort renders the compact "DD.MM HH:MM" form used in the
// last-closed-trade line.
func DateShort(t time.Time) string {
	if t.IsZero() {
		return Dash
	}
	u := t.UTC()
	return fmt.Sprintf("%02d.%02d %02d:%02d", u.Day(), u.Month(), u.Hour(), u.Minute())
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
