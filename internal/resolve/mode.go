package resolve

import (
	"sync"

	"signalpanel/internal/domain"
)

// ModeTracker resolves hedge-vs-one-way per symbol and retains the
// last known answer across ambiguous or failed lookups, so a single
// empty response never blanks the split/merged PnL rows.
type ModeTracker struct {
	mu    sync.Mutex
	modes map[string]domain.PositionMode
}

func NewModeTracker() *ModeTracker {
	return &ModeTracker{modes: make(map[string]domain.PositionMode)}
}

// Observe folds one unrealized-PnL response into the tracker and
// returns the effective mode for the symbol. An explicit mode field
// wins; otherwise hedge is inferred when both legs are present,
// one leg present means one-way, and no legs at all retains the
// previous answer.
func (t *ModeTracker) Observe(symbol string, u domain.Unrealized) domain.PositionMode {
	mode := classify(u)
	t.mu.Lock()
	defer t.mu.Unlock()
	if mode == domain.ModeNone {
		if prev, ok := t.modes[symbol]; ok {
			return prev
		}
		return domain.ModeOneWay
	}
	t.modes[symbol] = mode
	return mode
}

// ObserveFailure is called when the lookup itself failed; it only
// reads the cache.
func (t *ModeTracker) ObserveFailure(symbol string) domain.PositionMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.modes[symbol]; ok {
		return prev
	}
	return domain.ModeOneWay
}

func classify(u domain.Unrealized) domain.PositionMode {
	switch u.Mode {
	case domain.ModeHedge, domain.ModeOneWay:
		return u.Mode
	}
	switch {
	case u.HasLong && u.HasShort:
		return domain.ModeHedge
	case u.HasLong || u.HasShort || u.HasTotal:
		return domain.ModeOneWay
	default:
		return domain.ModeNone
	}
}
