package ports

import (
	"context"
	"encoding/json"

	"signalpanel/internal/domain"
)

// MarketSource supplies candlestick data for one symbol/timeframe.
// The dashboard backend implements it, and so does the direct
// exchange adapter used when no backend URL is configured.
type MarketSource interface {
	// Klines retrieves up to limit candles ascending by time.
	Klines(ctx context.Context, symbol, timeframe string, limit int) ([]domain.Candle, error)
}

// WebhookResult is the raw outcome of a webhook test send.
type WebhookResult struct {
	StatusCode int
	OK         bool
	Body       json.RawMessage
}

// Backend is the read-mostly client for the dashboard REST API.
// Every method maps to exactly one endpoint; response-shape
// normalization happens inside the adapter so the rest of the panel
// only ever sees canonical domain types.
type Backend interface {
	MarketSource

	// Markers returns signal events, optionally filtered by symbol
	// (empty symbol means all symbols, used by auto-switch).
	Markers(ctx context.Context, symbol, timeframe string) ([]domain.Marker, error)

	// OpenTrades returns live positions, newest first.
	OpenTrades(ctx context.Context, limit int) ([]domain.OpenTrade, error)

	// RecentTrades returns closed trades, newest first. An empty
	// symbol returns all symbols.
	RecentTrades(ctx context.Context, symbol string, limit int) ([]domain.ClosedTrade, error)

	// Overview returns precomputed KPI aggregates.
	Overview(ctx context.Context) (*domain.Overview, error)

	// Balance returns the available wallet balance for the symbol's
	// account, routed by exchange when known.
	Balance(ctx context.Context, symbol, exchange string) (float64, error)

	// Unrealized returns the normalized unrealized-PnL snapshot for
	// a symbol. all=true asks the backend for every leg.
	Unrealized(ctx context.Context, symbol, exchange string, all bool) (*domain.Unrealized, error)

	// Symbols returns the backend's known symbol list.
	Symbols(ctx context.Context) ([]string, error)

	// NetPnL returns the account net realized PnL for a symbol.
	// ok=false means the endpoint answered without a usable figure
	// and the caller should fall back to summing recent trades.
	NetPnL(ctx context.Context, symbol, exchange string) (net float64, ok bool, err error)

	// VerifyReferral posts a referral code for validation.
	// Returns ErrAuthRequired on 401 so callers can redirect.
	VerifyReferral(ctx context.Context, code string) error

	// SendWebhook posts a trading-signal payload to the webhook
	// test endpoint and returns the raw response.
	SendWebhook(ctx context.Context, payload json.RawMessage) (*WebhookResult, error)

	// TestStatus probes the admin test console status endpoint.
	TestStatus(ctx context.Context) (*domain.TestStatus, error)
}
