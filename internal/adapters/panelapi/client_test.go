package panelapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalpanel/internal/domain"
	"signalpanel/internal/ports"
)

type recordLogger struct {
	warns []string
}

func (l *recordLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (l *recordLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *recordLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.warns = append(l.warns, msg)
}
func (l *recordLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	return newTestClientWithLogger(t, handler, nil)
}

func newTestClientWithLogger(t *testing.T, handler http.Handler, logger *recordLogger) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, SessionCookie: "session=abc"}
	if logger != nil {
		cfg.Logger = logger
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestClient_KlinesArrayRows(t *testing.T) {
	rl := &recordLogger{}
	c := newTestClientWithLogger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/market/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("tf"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		// mixed vintages: numeric strings, millis, one broken row
		w.Write([]byte(`[
			[1700000100, "101", "103", "99", "102"],
			[1700000000000, 100, 102, 98, 101],
			["garbage", 1, 2, 3, 4]
		]`))
	}), rl)

	candles, err := c.Klines(context.Background(), "BTCUSDT", "15m", 500)
	require.NoError(t, err)
	require.Len(t, candles, 2, "unparseable rows are skipped")
	assert.Equal(t, int64(1700000000), candles[0].Time, "sorted ascending")
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 102.0, candles[1].Close)
	require.Len(t, rl.warns, 1, "the skip is logged")
	assert.Equal(t, "skipped unparseable kline rows", rl.warns[0])
}

func TestClient_KlinesObjectRows(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"time": 1700000000, "open": 100, "high": 102, "low": 98, "close": 101},
			{"t": "1700000100", "o": "101", "h": "103", "l": "99", "c": "102"}
		]`))
	}))

	candles, err := c.Klines(context.Background(), "BTCUSDT", "15m", 0)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 102.0, candles[1].Close)
}

func TestClient_MarkersFieldVariants(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/me/markers", r.URL.Path)
		w.Write([]byte(`[
			{"symbol": "btcusdt", "time": 1700000000, "type": "open", "side": "long", "is_live": true},
			{"symbol": "ETHUSDT", "time_bar": "2024-01-01 00:00:00", "kind": "close", "side": "short", "status": "closed"},
			{"symbol": "XRPUSDT", "time_bar": 1700000000, "kind": "open", "side": "long", "status": "open"},
			{"symbol": "BAD"}
		]`))
	}))

	markers, err := c.Markers(context.Background(), "", "15m")
	require.NoError(t, err)
	require.Len(t, markers, 3, "rows without a timestamp are skipped")

	assert.Equal(t, "BTCUSDT", markers[0].Symbol)
	assert.Equal(t, domain.MarkerOpen, markers[0].Kind)
	assert.True(t, markers[0].Live)

	assert.Equal(t, domain.MarkerClose, markers[1].Kind)
	assert.False(t, markers[1].Live)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix(), markers[1].Time)

	assert.True(t, markers[2].Live, "status open implies live when is_live is absent")
}

func TestClient_RecentTradesPnLFallbacks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"symbol": "BTCUSDT", "side": "long", "realized_pnl": 5, "closed_at": 1700000200},
			{"symbol": "BTCUSDT", "side": "short", "pnl": "3.5", "timestamp": 1700000100},
			{"symbol": "BTCUSDT", "side": "long", "profit": -2, "time": 1700000000}
		]`))
	}))

	trades, err := c.RecentTrades(context.Background(), "BTCUSDT", 50)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, 5.0, trades[0].RealizedPnL)
	assert.Equal(t, 3.5, trades[1].RealizedPnL)
	assert.Equal(t, -2.0, trades[2].RealizedPnL)
	assert.Equal(t, int64(1700000000), trades[2].Timestamp.Unix())
}

func TestClient_OpenTradesQuantityFallback(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"symbol": "ethusdt", "side": "short", "entry_price": "2500.5", "quantity": 1.5, "leverage": 10, "exchange": "binance", "created_at": 1700000000}
		]`))
	}))

	trades, err := c.OpenTrades(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "ETHUSDT", trades[0].Symbol)
	assert.Equal(t, 2500.5, trades[0].EntryPrice)
	assert.Equal(t, 1.5, trades[0].PositionSize)
	assert.Equal(t, 10, trades[0].Leverage)
}

func TestClient_EntryPriceFieldFallbacks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"symbol": "BTCUSDT", "side": "long", "avg_entry_price": "100.5", "quantity": 0.03},
			{"symbol": "ETHUSDT", "side": "short", "avg_price": 2500, "quantity": 1},
			{"symbol": "SOLUSDT", "side": "long", "entry_avg": 150.25, "quantity": 2},
			{"symbol": "XRPUSDT", "side": "short", "entry_price": 0.55, "quantity": 100}
		]`))
	}))

	trades, err := c.OpenTrades(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, trades, 4)
	assert.Equal(t, 100.5, trades[0].EntryPrice)
	assert.Equal(t, 2500.0, trades[1].EntryPrice)
	assert.Equal(t, 150.25, trades[2].EntryPrice)
	assert.Equal(t, 0.55, trades[3].EntryPrice)

	c = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"symbol": "BTCUSDT", "side": "long", "avg_entry_price": 99.5, "realized_pnl": 1, "closed_at": 1700000000}
		]`))
	}))
	closed, err := c.RecentTrades(context.Background(), "BTCUSDT", 50)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 99.5, closed[0].EntryPrice)
}

func TestClient_UnrealizedShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.Unrealized
	}{
		{
			name: "legs object with mode",
			body: `{"mode": "hedge", "long": 5, "short": -2}`,
			want: domain.Unrealized{Mode: domain.ModeHedge, Long: 5, HasLong: true, Short: -2, HasShort: true},
		},
		{
			name: "positions list",
			body: `{"positions": [{"side": "long", "unrealized_pnl": 3}, {"side": "long", "pnl": 2}]}`,
			want: domain.Unrealized{Long: 5, HasLong: true},
		},
		{
			name: "bare total",
			body: `{"total": "7.25"}`,
			want: domain.Unrealized{Total: 7.25, HasTotal: true},
		},
		{
			name: "empty",
			body: `{}`,
			want: domain.Unrealized{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			u, err := c.Unrealized(context.Background(), "BTCUSDT", "", false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *u)
		})
	}
}

func TestClient_NetPnL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"net_pnl": 12.5}`))
	}))
	net, ok, err := c.NetPnL(context.Background(), "BTCUSDT", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12.5, net)

	c = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	_, ok, err = c.NetPnL(context.Background(), "BTCUSDT", "")
	require.NoError(t, err)
	assert.False(t, ok, "answer without a figure asks for the fallback")
}

func TestClient_VerifyReferral(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"valid": true}`))
	}))
	require.NoError(t, c.VerifyReferral(context.Background(), "A1B2-C3D4-E5F6"))

	c = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	err := c.VerifyReferral(context.Background(), "A1B2-C3D4-E5F6")
	assert.ErrorIs(t, err, ports.ErrAuthRequired)

	c = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid": false, "message": "expired"}`))
	}))
	err = c.VerifyReferral(context.Background(), "A1B2-C3D4-E5F6")
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "expired")
}

func TestClient_SendWebhookHTTPFailureIsResult(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bad signal"}`))
	}))

	res, err := c.SendWebhook(context.Background(), []byte(`{"mode":"open"}`))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.JSONEq(t, `{"error": "bad signal"}`, string(res.Body))
}

func TestClient_TestStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/test/status", r.URL.Path)
		w.Write([]byte(`{"success": true, "config_mode": "hedge", "exchange_mode": "one_way"}`))
	}))

	ts, err := c.TestStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, ts.Success)
	assert.Equal(t, "hedge", ts.ConfigMode)
	assert.Equal(t, "one_way", ts.ExchangeMode)
}

func TestClient_ServerErrorMapped(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := c.Symbols(context.Background())
	assert.ErrorIs(t, err, ports.ErrBackendUnavailable)
}
