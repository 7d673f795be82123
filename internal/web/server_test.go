package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalpanel/config"
	"signalpanel/internal/app"
	"signalpanel/internal/domain"
	"signalpanel/internal/events"
	"signalpanel/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type memStore struct {
	prefs domain.Preferences
}

func (m *memStore) Preferences(context.Context) (domain.Preferences, error) { return m.prefs, nil }
func (m *memStore) SavePreferences(_ context.Context, p domain.Preferences) error {
	m.prefs = p
	return nil
}
func (m *memStore) ReplaceTradeCache(context.Context, []domain.ClosedTrade) error { return nil }
func (m *memStore) CachedTrades(context.Context, int) ([]domain.ClosedTrade, error) {
	return nil, nil
}
func (m *memStore) Close() error { return nil }

type fakeBackend struct {
	candles []domain.Candle
	symbols []string
	webhook *ports.WebhookResult
}

func (f *fakeBackend) Klines(context.Context, string, string, int) ([]domain.Candle, error) {
	return f.candles, nil
}
func (f *fakeBackend) Markers(context.Context, string, string) ([]domain.Marker, error) {
	return nil, nil
}
func (f *fakeBackend) OpenTrades(context.Context, int) ([]domain.OpenTrade, error) { return nil, nil }
func (f *fakeBackend) RecentTrades(context.Context, string, int) ([]domain.ClosedTrade, error) {
	return nil, nil
}
func (f *fakeBackend) Overview(context.Context) (*domain.Overview, error) {
	return &domain.Overview{}, nil
}
func (f *fakeBackend) Balance(context.Context, string, string) (float64, error) { return 0, nil }
func (f *fakeBackend) Unrealized(context.Context, string, string, bool) (*domain.Unrealized, error) {
	return &domain.Unrealized{}, nil
}
func (f *fakeBackend) Symbols(context.Context) ([]string, error) { return f.symbols, nil }
func (f *fakeBackend) NetPnL(context.Context, string, string) (float64, bool, error) {
	return 0, false, nil
}
func (f *fakeBackend) VerifyReferral(_ context.Context, code string) error {
	if strings.HasPrefix(code, "BAD") {
		return ports.ErrAuthRequired
	}
	return nil
}
func (f *fakeBackend) SendWebhook(context.Context, json.RawMessage) (*ports.WebhookResult, error) {
	return f.webhook, nil
}
func (f *fakeBackend) TestStatus(context.Context) (*domain.TestStatus, error) {
	return &domain.TestStatus{Success: true, ConfigMode: "hedge", ExchangeMode: "hedge"}, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()

	now := time.Now().Unix() / 900 * 900
	backend := &fakeBackend{
		candles: []domain.Candle{{Time: now, Open: 1, High: 2, Low: 1, Close: 2}},
		symbols: []string{"BTCUSDT", "ETHUSDT"},
		webhook: &ports.WebhookResult{StatusCode: 200, OK: true, Body: json.RawMessage(`{}`)},
	}
	svc, err := app.NewPanelService(app.Deps{
		Config: &config.Config{
			Timeframe:            "15m",
			KlineLimit:           100,
			RecentLimit:          50,
			ChartInterval:        time.Second,
			OpenTradesInterval:   time.Second,
			RecentTradesInterval: time.Second,
			QuickBalanceInterval: time.Second,
			TradesAllowed:        true,
			EquityAllowed:        true,
			Theme:                "dark",
			LocaleMode:           "exchange",
			StartCapital:         1000,
		},
		Logger:  nopLogger{},
		Backend: backend,
		Market:  backend,
		Store:   &memStore{},
		Bus:     events.NewBus(),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Bootstrap(context.Background()))
	return NewServer(svc, nopLogger{})
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestServer_StateAndRequestID(t *testing.T) {
	srv := testServer(t)
	w := doRequest(t, srv, http.MethodGet, "/api/panel/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeaderKey))

	var state map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "BTCUSDT", state["symbol"])
	assert.Equal(t, "15m", state["timeframe"])
}

func TestServer_Chart(t *testing.T) {
	srv := testServer(t)
	w := doRequest(t, srv, http.MethodGet, "/api/panel/chart", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, true, view["has_data"])
}

func TestServer_PostSymbol(t *testing.T) {
	srv := testServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/panel/symbol", `{"symbol":"ethusdt"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var state map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "ETHUSDT", state["symbol"])

	w = doRequest(t, srv, http.MethodPost, "/api/panel/symbol", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ReferralValidation(t *testing.T) {
	srv := testServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/forms/referral/verify", `{"code":"a1b2-c3d4-e5f6"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A1B2-C3D4-E5F6", resp["code"])

	w = doRequest(t, srv, http.MethodPost, "/api/forms/referral/verify", `{"code":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// backend 401 becomes an auth-redirect status
	w = doRequest(t, srv, http.MethodPost, "/api/forms/referral/verify", `{"code":"badb-adba-dbad"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_ReferralAssignmentGate(t *testing.T) {
	srv := testServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/forms/referral/assignment",
		`{"fund_manager_id":"fm1","code":"a1b2 c3d4","download_zip":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["can_submit"])
	assert.Equal(t, "A1B2C3D4", resp["code"])
	assert.Equal(t, "zip", resp["download"])

	w = doRequest(t, srv, http.MethodPost, "/api/forms/referral/assignment",
		`{"fund_manager_id":"","code":"a1b2c3d4"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["can_submit"])
	assert.Equal(t, "csv", resp["download"])
}

func TestServer_WebhookTest(t *testing.T) {
	srv := testServer(t)

	body := `{"form":{"mode":"open","side":"long","symbol":"BTCUSDT","position_size":0.03,"order_type":"MARKET","exchange":"binance","fund_manager_id":"fm1"}}`
	w := doRequest(t, srv, http.MethodPost, "/api/forms/webhook/test", body)
	require.Equal(t, http.StatusOK, w.Code)

	var outcome map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, true, outcome["ok"])

	// missing fields are listed, nothing is sent
	w = doRequest(t, srv, http.MethodPost, "/api/forms/webhook/test", `{"form":{"symbol":"BTCUSDT"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var errResp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Contains(t, errResp["fields"], "mode")

	// raw mode with broken JSON
	w = doRequest(t, srv, http.MethodPost, "/api/forms/webhook/test", `{"raw":"{"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_TestStatusBadge(t *testing.T) {
	srv := testServer(t)
	w := doRequest(t, srv, http.MethodGet, "/api/forms/test-status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var badge map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &badge))
	assert.Equal(t, "badge-ok", badge["class"])
}
