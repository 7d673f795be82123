package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"signalpanel/internal/domain"
	"signalpanel/internal/events"
	"signalpanel/internal/market"
	"signalpanel/internal/overlay"
	"signalpanel/internal/panels"
	"signalpanel/internal/poller"
	"signalpanel/internal/ports"
	"signalpanel/internal/resolve"
)

// ChartView is the full chart payload: candles, overlays, placed
// markers, entry lines and the confluence triple.
type ChartView struct {
	Snapshot   market.Snapshot      `json:"snapshot"`
	HasData    bool                 `json:"has_data"`
	Markers    []domain.ChartMarker `json:"markers"`
	EntryLines overlay.EntryLines   `json:"entry_lines"`
	Waiting    bool                 `json:"waiting"`
}

// ChartView assembles the current chart state.
func (s *PanelService) ChartView() ChartView {
	symbol, waiting := s.switcher.Active()
	snap, ok := s.refresher.Snapshot()

	view := ChartView{Snapshot: snap, HasData: ok, Waiting: waiting}
	if !s.cfg.TradesAllowed {
		return view
	}
	view.Markers = overlay.BuildMarkers(s.snapshotMarkers(), symbol, overlay.BuildOptions{
		Timeframe:   s.cfg.Timeframe,
		LastBarTime: snap.LastTime(),
		Group:       s.cfg.GroupMarkers,
	})
	view.EntryLines = overlay.BuildEntryLines(s.snapshotOpenTrades(), symbol)
	return view
}

// FreshnessView exposes the feed badge.
func (s *PanelService) FreshnessView() market.FreshnessView {
	return s.refresher.Freshness(time.Now().UTC())
}

// TradesView is both formatted trade tables.
type TradesView struct {
	Open    []panels.OpenTradeRow   `json:"open"`
	Recent  []panels.ClosedTradeRow `json:"recent"`
	Allowed bool                    `json:"allowed"`
}

// TradesView formats the trade tables, empty when gated off.
func (s *PanelService) TradesView() TradesView {
	if !s.cfg.TradesAllowed {
		return TradesView{}
	}
	return TradesView{
		Open:    panels.OpenTradeRows(s.fmtr, s.snapshotOpenTrades()),
		Recent:  panels.ClosedTradeRows(s.fmtr, s.snapshotRecentTrades()),
		Allowed: true,
	}
}

// QuickBalanceView returns the latest quick balance card.
func (s *PanelService) QuickBalanceView() panels.QuickBalance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quick
}

// EquityView is the curve plus its KPI block.
type EquityView struct {
	Points  []domain.EquityPoint `json:"points"`
	Stats   panels.EquityStats   `json:"stats"`
	Allowed bool                 `json:"allowed"`
}

// EquityView builds the equity curve from the loaded trade window.
func (s *PanelService) EquityView() EquityView {
	if !s.cfg.EquityAllowed {
		return EquityView{}
	}
	trades := s.snapshotRecentTrades()

	s.mu.RLock()
	wallet, hasWallet := s.wallet, s.hasWallet
	s.mu.RUnlock()

	start := panels.StartingCapital(wallet, hasWallet, trades)
	if !hasWallet && s.cfg.StartCapital > 0 {
		start = s.cfg.StartCapital
	}
	points := panels.BuildCurve(start, trades)
	return EquityView{
		Points:  points,
		Stats:   panels.ComputeStats(start, points, trades),
		Allowed: true,
	}
}

// OverviewView returns the latest KPI card.
func (s *PanelService) OverviewView() panels.OverviewCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overview
}

// StateView is the panel-level state the page shell needs.
type StateView struct {
	Symbol          string              `json:"symbol"`
	Waiting         bool                `json:"waiting"`
	Timeframe       string              `json:"timeframe"`
	Theme           domain.Theme        `json:"theme"`
	LocaleMode      domain.LocaleMode   `json:"locale_mode"`
	RefreshInterval int64               `json:"refresh_interval_ms"`
	PositionMode    domain.PositionMode `json:"position_mode"`
	TradesAllowed   bool                `json:"trades_allowed"`
	EquityAllowed   bool                `json:"equity_allowed"`
}

// StateView snapshots the shell state.
func (s *PanelService) StateView() StateView {
	symbol, waiting := s.switcher.Active()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StateView{
		Symbol:          symbol,
		Waiting:         waiting,
		Timeframe:       s.cfg.Timeframe,
		Theme:           s.theme,
		LocaleMode:      s.fmtr.Mode(),
		RefreshInterval: s.refreshEvery.Milliseconds(),
		PositionMode:    s.mode,
		TradesAllowed:   s.cfg.TradesAllowed,
		EquityAllowed:   s.cfg.EquityAllowed,
	}
}

// SetActiveSymbol applies an explicit picker selection.
func (s *PanelService) SetActiveSymbol(ctx context.Context, symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", ports.ErrInvalidRequest)
	}
	if !s.switcher.Set(symbol) {
		return nil
	}
	s.refresher.Clear()
	active, _ := s.switcher.Active()
	s.bus.Publish(events.Event{
		Topic: events.TopicActiveSymbolChanged, Source: "picker", Symbol: active,
	})
	// fetch now instead of waiting out a poll interval
	if err := s.refresher.Tick(ctx, active, s.cfg.Timeframe); err != nil {
		s.logger.Warn(ctx, "chart fetch after symbol change failed", map[string]interface{}{
			"symbol": active, "error": err.Error(),
		})
	}
	return nil
}

// Preferences returns the currently applied viewer preferences.
func (s *PanelService) Preferences() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Preferences{
		Theme:           s.theme,
		LocaleMode:      s.fmtr.Mode(),
		RefreshInterval: s.refreshEvery,
	}
}

// UpdatePreferences persists and applies new viewer preferences. A
// locale flip republishes so all visible numbers re-render.
func (s *PanelService) UpdatePreferences(ctx context.Context, prefs domain.Preferences) error {
	if prefs.Theme != domain.ThemeDark && prefs.Theme != domain.ThemeLight {
		return fmt.Errorf("%w: unknown theme '%s'", ports.ErrInvalidRequest, prefs.Theme)
	}
	modeChanged := prefs.LocaleMode != s.fmtr.Mode()

	if err := s.store.SavePreferences(ctx, prefs); err != nil {
		return err
	}
	s.applyPreferences(prefs)
	if modeChanged {
		s.bus.Publish(events.Event{
			Topic: events.TopicLocaleModeChanged, Source: "preferences", LocaleMode: prefs.LocaleMode,
		})
		// re-render the cards that cache formatted strings
		s.refreshQuickBalance(ctx)
	}
	return nil
}

// KnownSymbols serves the picker list: the default symbol plus every
// open-position symbol, deduplicated and sorted. The backend's full
// symbol list only feeds bootstrap resolution.
func (s *PanelService) KnownSymbols() []string {
	set := map[string]struct{}{resolve.DefaultSymbol: {}}
	for _, tr := range s.snapshotOpenTrades() {
		if sym := strings.ToUpper(tr.Symbol); sym != "" {
			set[sym] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Backend exposes the backend client for the forms layer; nil when
// running against the exchange directly.
func (s *PanelService) Backend() ports.Backend {
	return s.backend
}

// PollerStatuses reports every polling loop for the status endpoint.
func (s *PanelService) PollerStatuses() []poller.Status {
	out := make([]poller.Status, 0, len(s.pollers))
	for _, p := range s.pollers {
		out = append(out, p.Status())
	}
	return out
}
