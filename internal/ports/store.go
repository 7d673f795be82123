package ports

import (
	"context"

	"signalpanel/internal/domain"
)

// PanelStore persists the small amount of viewer-local state the
// browser build kept in localStorage, plus a closed-trades cache so
// the equity curve survives backend outages and restarts.
type PanelStore interface {
	// Preferences loads the persisted viewer preferences, returning
	// defaults when nothing is stored yet.
	Preferences(ctx context.Context) (domain.Preferences, error)
	// SavePreferences upserts the viewer preferences.
	SavePreferences(ctx context.Context, prefs domain.Preferences) error

	// ReplaceTradeCache replaces the cached closed-trades window.
	ReplaceTradeCache(ctx context.Context, trades []domain.ClosedTrade) error
	// CachedTrades returns the cached closed trades, newest first,
	// up to limit.
	CachedTrades(ctx context.Context, limit int) ([]domain.ClosedTrade, error)

	// Close releases the underlying storage.
	Close() error
}
