package panelapi

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"signalpanel/internal/domain"
)

// tradeRow covers every field-name vintage the trade endpoints have
// used. PnL arrives as realized_pnl, pnl or profit; the close instant
// as closed_at, timestamp or time; the entry as avg_entry_price,
// avg_price, entry_avg or entry_price.
type tradeRow struct {
	Symbol        string     `json:"symbol"`
	Side          string     `json:"side"`
	AvgEntryPrice *flexFloat `json:"avg_entry_price"`
	AvgPrice      *flexFloat `json:"avg_price"`
	EntryAvg      *flexFloat `json:"entry_avg"`
	EntryPrice    *flexFloat `json:"entry_price"`
	ExitPrice     *flexFloat `json:"exit_price"`
	PositionSize  *flexFloat `json:"position_size"`
	Quantity      *flexFloat `json:"quantity"`
	SizeText      string     `json:"size_text"`
	Leverage      *flexFloat `json:"leverage"`
	Exchange      string     `json:"exchange"`

	RealizedPnL *flexFloat `json:"realized_pnl"`
	PnL         *flexFloat `json:"pnl"`
	Profit      *flexFloat `json:"profit"`

	ClosedAt  flexTime `json:"closed_at"`
	Timestamp flexTime `json:"timestamp"`
	Time      flexTime `json:"time"`
	CreatedAt flexTime `json:"created_at"`
}

func (r tradeRow) entryPrice() float64 {
	v, _ := firstFloat(r.AvgEntryPrice, r.AvgPrice, r.EntryAvg, r.EntryPrice)
	return v
}

func (r tradeRow) openedAt() time.Time {
	t, _ := firstTime(r.Timestamp, r.CreatedAt, r.Time)
	return t
}

func (r tradeRow) closedAt() time.Time {
	t, _ := firstTime(r.ClosedAt, r.Timestamp, r.Time)
	return t
}

// OpenTrades returns live positions.
func (c *Client) OpenTrades(ctx context.Context, limit int) ([]domain.OpenTrade, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var rows []tradeRow
	if err := c.get(ctx, "/api/me/open-trades", q, &rows); err != nil {
		return nil, err
	}

	trades := make([]domain.OpenTrade, 0, len(rows))
	for _, row := range rows {
		size, _ := firstFloat(row.PositionSize, row.Quantity)
		leverage, _ := firstFloat(row.Leverage)
		trades = append(trades, domain.OpenTrade{
			Symbol:       strings.ToUpper(row.Symbol),
			Side:         domain.ParseSide(row.Side),
			EntryPrice:   row.entryPrice(),
			PositionSize: size,
			SizeText:     row.SizeText,
			Leverage:     int(leverage),
			Exchange:     row.Exchange,
			Timestamp:    row.openedAt(),
		})
	}
	return trades, nil
}

// RecentTrades returns closed trades, newest first.
func (c *Client) RecentTrades(ctx context.Context, symbol string, limit int) ([]domain.ClosedTrade, error) {
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var rows []tradeRow
	if err := c.get(ctx, "/api/me/recent-trades", q, &rows); err != nil {
		return nil, err
	}

	trades := make([]domain.ClosedTrade, 0, len(rows))
	for _, row := range rows {
		exit, _ := firstFloat(row.ExitPrice)
		size, _ := firstFloat(row.PositionSize, row.Quantity)
		pnl, _ := firstFloat(row.RealizedPnL, row.PnL, row.Profit)
		trades = append(trades, domain.ClosedTrade{
			Symbol:       strings.ToUpper(row.Symbol),
			Side:         domain.ParseSide(row.Side),
			EntryPrice:   row.entryPrice(),
			ExitPrice:    exit,
			PositionSize: size,
			RealizedPnL:  pnl,
			Timestamp:    row.closedAt(),
		})
	}
	return trades, nil
}

// Balance returns the available wallet balance.
func (c *Client) Balance(ctx context.Context, symbol, exchange string) (float64, error) {
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if exchange != "" {
		q.Set("exchange", exchange)
	}
	var resp struct {
		Balance   *flexFloat `json:"balance"`
		Available *flexFloat `json:"available"`
		Wallet    *flexFloat `json:"wallet"`
	}
	if err := c.get(ctx, "/api/me/balance", q, &resp); err != nil {
		return 0, err
	}
	v, _ := firstFloat(resp.Balance, resp.Available, resp.Wallet)
	return v, nil
}

// NetPnL returns the account net realized PnL. ok=false means the
// endpoint answered but carried no usable figure, so the caller
// should sum recent trades instead.
func (c *Client) NetPnL(ctx context.Context, symbol, exchange string) (float64, bool, error) {
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if exchange != "" {
		q.Set("exchange", exchange)
	}
	var resp struct {
		Net    *flexFloat `json:"net_pnl"`
		NetAlt *flexFloat `json:"netpnl"`
		Total  *flexFloat `json:"total"`
	}
	if err := c.get(ctx, "/api/me/netpnl", q, &resp); err != nil {
		return 0, false, err
	}
	v, ok := firstFloat(resp.Net, resp.NetAlt, resp.Total)
	return v, ok, nil
}

// Unrealized flattens the per-symbol unrealized-PnL response. The
// backend has answered in three layouts: a legs object with long and
// short fields, a positions list, or a bare total.
func (c *Client) Unrealized(ctx context.Context, symbol, exchange string, all bool) (*domain.Unrealized, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	if exchange != "" {
		q.Set("exchange", exchange)
	}
	if all {
		q.Set("all", "true")
	}
	var resp struct {
		Mode      string     `json:"mode"`
		Long      *flexFloat `json:"long"`
		Short     *flexFloat `json:"short"`
		Total     *flexFloat `json:"total"`
		Positions []struct {
			Side string     `json:"side"`
			PnL  *flexFloat `json:"unrealized_pnl"`
			Alt  *flexFloat `json:"pnl"`
		} `json:"positions"`
	}
	if err := c.get(ctx, "/api/me/unrealized", q, &resp); err != nil {
		return nil, err
	}

	u := &domain.Unrealized{Mode: domain.ParsePositionMode(resp.Mode)}
	if v, ok := firstFloat(resp.Long); ok {
		u.Long, u.HasLong = v, true
	}
	if v, ok := firstFloat(resp.Short); ok {
		u.Short, u.HasShort = v, true
	}
	if v, ok := firstFloat(resp.Total); ok {
		u.Total, u.HasTotal = v, true
	}
	for _, p := range resp.Positions {
		v, ok := firstFloat(p.PnL, p.Alt)
		if !ok {
			continue
		}
		switch domain.ParseSide(p.Side) {
		case domain.SideLong:
			u.Long, u.HasLong = u.Long+v, true
		case domain.SideShort:
			u.Short, u.HasShort = u.Short+v, true
		}
	}
	return u, nil
}

// Overview returns precomputed KPI aggregates. Absent fields stay
// nil so the panel renders placeholders instead of zeros.
func (c *Client) Overview(ctx context.Context) (*domain.Overview, error) {
	var resp struct {
		PnL7d          *flexFloat `json:"pnl_7d"`
		WinRate30d     *flexFloat `json:"win_rate_30d"`
		OpenTradeCount *int       `json:"open_trade_count"`
		MaxDrawdown30d *flexFloat `json:"max_drawdown_30d"`
		Sharpe30d      *flexFloat `json:"sharpe_30d"`
		LastSignalAt   flexTime   `json:"last_signal_at"`
	}
	if err := c.get(ctx, "/api/me/overview", nil, &resp); err != nil {
		return nil, err
	}

	o := &domain.Overview{OpenTradeCount: resp.OpenTradeCount}
	if v, ok := firstFloat(resp.PnL7d); ok {
		o.PnL7d = &v
	}
	if v, ok := firstFloat(resp.WinRate30d); ok {
		o.WinRate30d = &v
	}
	if v, ok := firstFloat(resp.MaxDrawdown30d); ok {
		o.MaxDrawdown30d = &v
	}
	if v, ok := firstFloat(resp.Sharpe30d); ok {
		o.Sharpe30d = &v
	}
	if resp.LastSignalAt.ok {
		t := resp.LastSignalAt.t
		o.LastSignalAt = &t
	}
	return o, nil
}
