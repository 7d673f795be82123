package resolve

import (
	"context"
	"sync"

	"signalpanel/internal/domain"
	"signalpanel/internal/overlay"
	"signalpanel/internal/ports"
)

// Switcher holds the single active symbol and applies the
// auto-switch rule: the newest live open signal anywhere wins, and
// when no open trades remain the panel falls back to the default.
// Evaluate is guarded by TryLock since more than one poller calls it.
type Switcher struct {
	logger ports.Logger

	evalMu sync.Mutex

	mu      sync.RWMutex
	symbol  string
	waiting bool
}

// NewSwitcher starts at the bootstrap resolution.
func NewSwitcher(res Resolution, logger ports.Logger) *Switcher {
	return &Switcher{logger: logger, symbol: res.Symbol, waiting: res.Waiting}
}

// Active returns the current symbol and the waiting-notice flag.
func (s *Switcher) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbol, s.waiting
}

// Set applies an explicit user selection, overriding any notice.
func (s *Switcher) Set(symbol string) bool {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return false
	}
	s.mu.Lock()
	changed := symbol != s.symbol
	s.symbol, s.waiting = symbol, false
	s.mu.Unlock()
	return changed
}

// Evaluate checks markers and open trades against the active symbol
// and switches when the rule says so. Returns the symbol after
// evaluation and whether it changed. Concurrent calls from other
// pollers are skipped rather than queued.
func (s *Switcher) Evaluate(ctx context.Context, markers []domain.Marker, openTrades []domain.OpenTrade) (string, bool) {
	if !s.evalMu.TryLock() {
		sym, _ := s.Active()
		return sym, false
	}
	defer s.evalMu.Unlock()

	current, _ := s.Active()

	if live := overlay.LatestLiveOpenSymbol(markers); live != "" {
		if live != current {
			s.apply(live, false)
			s.log(ctx, "active symbol switched to live signal", current, live)
			return live, true
		}
		s.apply(current, false)
		return current, false
	}

	// no live signal anywhere: an empty book sends the panel home
	if len(openTrades) == 0 && current != DefaultSymbol {
		s.apply(DefaultSymbol, true)
		s.log(ctx, "no open trades, falling back to default symbol", current, DefaultSymbol)
		return DefaultSymbol, true
	}
	return current, false
}

func (s *Switcher) apply(symbol string, waiting bool) {
	s.mu.Lock()
	s.symbol, s.waiting = symbol, waiting
	s.mu.Unlock()
}

func (s *Switcher) log(ctx context.Context, msg, from, to string) {
	if s.logger == nil {
		return
	}
	s.logger.Info(ctx, msg, map[string]interface{}{"from": from, "to": to})
}
