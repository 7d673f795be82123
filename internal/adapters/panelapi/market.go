package panelapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"signalpanel/internal/domain"
	"signalpanel/internal/ports"
)

// Klines retrieves candles. Rows arrive either as positional arrays
// ([time, open, high, low, close, ...]) or as objects with long or
// short field names; unparseable rows are skipped rather than failing
// the whole response.
func (c *Client) Klines(ctx context.Context, symbol, timeframe string, limit int) ([]domain.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("tf", timeframe)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var rows []json.RawMessage
	if err := c.get(ctx, "/api/market/klines", q, &rows); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		cd, ok := decodeKlineRow(row)
		if !ok {
			skipped++
			continue
		}
		candles = append(candles, cd)
	}
	if skipped > 0 && c.logger != nil {
		c.logger.Warn(ctx, "skipped unparseable kline rows", map[string]interface{}{
			"symbol": symbol, "skipped": skipped, "kept": len(candles),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time < candles[j].Time })
	return candles, nil
}

func decodeKlineRow(row json.RawMessage) (domain.Candle, bool) {
	trimmed := strings.TrimSpace(string(row))
	if strings.HasPrefix(trimmed, "[") {
		return decodeKlineArray(row)
	}
	return decodeKlineObject(row)
}

func decodeKlineArray(row json.RawMessage) (domain.Candle, bool) {
	var fields []json.RawMessage
	if err := json.Unmarshal(row, &fields); err != nil || len(fields) < 5 {
		return domain.Candle{}, false
	}
	var t flexTime
	if err := json.Unmarshal(fields[0], &t); err != nil || !t.ok {
		return domain.Candle{}, false
	}
	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		var f flexFloat
		if err := json.Unmarshal(fields[i+1], &f); err != nil {
			return domain.Candle{}, false
		}
		vals[i] = float64(f)
	}
	return domain.Candle{
		Time: t.t.Unix(),
		Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3],
	}, true
}

func decodeKlineObject(row json.RawMessage) (domain.Candle, bool) {
	var obj struct {
		Time  flexTime   `json:"time"`
		T     flexTime   `json:"t"`
		Open  *flexFloat `json:"open"`
		O     *flexFloat `json:"o"`
		High  *flexFloat `json:"high"`
		H     *flexFloat `json:"h"`
		Low   *flexFloat `json:"low"`
		L     *flexFloat `json:"l"`
		Close *flexFloat `json:"close"`
		C     *flexFloat `json:"c"`
	}
	if err := json.Unmarshal(row, &obj); err != nil {
		return domain.Candle{}, false
	}
	ts, ok := firstTime(obj.Time, obj.T)
	if !ok {
		return domain.Candle{}, false
	}
	open, ok1 := firstFloat(obj.Open, obj.O)
	high, ok2 := firstFloat(obj.High, obj.H)
	low, ok3 := firstFloat(obj.Low, obj.L)
	cls, ok4 := firstFloat(obj.Close, obj.C)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.Candle{}, false
	}
	return domain.Candle{Time: ts.Unix(), Open: open, High: high, Low: low, Close: cls}, true
}

// Markers retrieves signal events. The backend has emitted several
// vintages of this payload: time as "time" or "time_bar", liveness as
// "is_live" or status=="open", kind as "type" or "kind".
func (c *Client) Markers(ctx context.Context, symbol, timeframe string) ([]domain.Marker, error) {
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if timeframe != "" {
		q.Set("tf", timeframe)
	}

	var rows []struct {
		Symbol  string   `json:"symbol"`
		Time    flexTime `json:"time"`
		TimeBar flexTime `json:"time_bar"`
		Type    string   `json:"type"`
		Kind    string   `json:"kind"`
		Side    string   `json:"side"`
		IsLive  *bool    `json:"is_live"`
		Status  string   `json:"status"`
	}
	if err := c.get(ctx, "/api/me/markers", q, &rows); err != nil {
		return nil, err
	}

	markers := make([]domain.Marker, 0, len(rows))
	for _, row := range rows {
		ts, ok := firstTime(row.Time, row.TimeBar)
		if !ok {
			continue
		}
		kindRaw := row.Type
		if kindRaw == "" {
			kindRaw = row.Kind
		}
		kind := domain.MarkerClose
		if strings.EqualFold(kindRaw, "open") {
			kind = domain.MarkerOpen
		}
		live := strings.EqualFold(row.Status, "open")
		if row.IsLive != nil {
			live = *row.IsLive
		}
		markers = append(markers, domain.Marker{
			Symbol: strings.ToUpper(row.Symbol),
			Time:   ts.Unix(),
			Kind:   kind,
			Side:   domain.ParseSide(row.Side),
			Live:   live,
		})
	}
	return markers, nil
}

// Symbols returns the backend's known symbol list. Both a bare array
// and a {"symbols": [...]} wrapper are accepted.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	body, _, err := c.do(ctx, http.MethodGet, "/api/me/symbols", nil, nil)
	if err != nil {
		return nil, err
	}

	var bare []string
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	var wrapped struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: /api/me/symbols: %v", ports.ErrDecodeFailed, err)
	}
	return wrapped.Symbols, nil
}
