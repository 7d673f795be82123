// Package app orchestrates the panel: bootstrap resolution, the
// polling loops that keep market and trade state fresh, and the
// view-model accessors the HTTP layer serves.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signalpanel/config"
	"signalpanel/internal/domain"
	"signalpanel/internal/events"
	"signalpanel/internal/locale"
	"signalpanel/internal/market"
	"signalpanel/internal/panels"
	"signalpanel/internal/poller"
	"signalpanel/internal/ports"
	"signalpanel/internal/resolve"
)

// PanelService owns all mutable panel state. Pollers write under the
// mutex; HTTP handlers read snapshots.
type PanelService struct {
	cfg     *config.Config
	logger  ports.Logger
	backend ports.Backend // nil in direct-exchange mode
	store   ports.PanelStore
	bus     *events.Bus
	fmtr    *locale.Formatter
	metrics *poller.Metrics

	refresher *market.Refresher
	switcher  *resolve.Switcher
	modes     *resolve.ModeTracker

	pollers []*poller.Poller

	mu           sync.RWMutex
	theme        domain.Theme
	refreshEvery time.Duration
	openTrades   []domain.OpenTrade
	recentTrades []domain.ClosedTrade
	markers      []domain.Marker
	quick        panels.QuickBalance
	overview     panels.OverviewCard
	wallet       float64
	hasWallet    bool
	mode         domain.PositionMode
}

// Deps are the adapters the service composes.
type Deps struct {
	Config  *config.Config
	Logger  ports.Logger
	Backend ports.Backend      // optional
	Market  ports.MarketSource // required; Backend or the exchange fallback
	Store   ports.PanelStore
	Bus     *events.Bus
	Metrics *poller.Metrics
}

// NewPanelService validates dependencies and assembles the service.
// Polling does not start until Start is called.
func NewPanelService(d Deps) (*PanelService, error) {
	if d.Config == nil || d.Logger == nil || d.Market == nil || d.Store == nil || d.Bus == nil {
		return nil, fmt.Errorf("missing required dependencies for PanelService")
	}

	s := &PanelService{
		cfg:          d.Config,
		logger:       d.Logger,
		backend:      d.Backend,
		store:        d.Store,
		bus:          d.Bus,
		metrics:      d.Metrics,
		modes:        resolve.NewModeTracker(),
		theme:        domain.Theme(d.Config.Theme),
		refreshEvery: d.Config.ChartInterval,
		mode:         domain.ModeOneWay,
	}
	s.fmtr = locale.New(domain.LocaleMode(d.Config.LocaleMode), d.Config.LocalTag)
	s.refresher = market.NewRefresher(market.RefresherConfig{
		Source:   d.Market,
		Logger:   d.Logger,
		Interval: d.Config.ChartInterval,
		Limit:    d.Config.KlineLimit,
	})
	return s, nil
}

// Bootstrap loads stored preferences and resolves the initial active
// symbol through the priority chain. Backend failures during
// bootstrap degrade to the default symbol instead of erroring: the
// panel must come up even when the backend is down.
func (s *PanelService) Bootstrap(ctx context.Context) error {
	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		s.logger.Warn(ctx, "could not load stored preferences, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		s.applyPreferences(prefs)
	}

	in := resolve.BootstrapInput{RequestedSymbol: s.cfg.Symbol}
	if s.backend != nil && s.cfg.TradesAllowed {
		if open, err := s.backend.OpenTrades(ctx, 0); err == nil {
			in.OpenTrades = open
			s.setOpenTrades(open)
		}
		if recent, err := s.backend.RecentTrades(ctx, "", s.cfg.RecentLimit); err == nil {
			in.RecentTrades = recent
			s.setRecentTrades(recent)
		} else if cached, cerr := s.store.CachedTrades(ctx, s.cfg.RecentLimit); cerr == nil && len(cached) > 0 {
			// backend down: the cached window still feeds the equity curve
			in.RecentTrades = cached
			s.setRecentTrades(cached)
		}
		if symbols, err := s.backend.Symbols(ctx); err == nil {
			in.KnownSymbols = symbols
		}
	}

	res := resolve.ResolveSymbol(in)
	s.switcher = resolve.NewSwitcher(res, s.logger)
	s.logger.Info(ctx, "active symbol resolved", map[string]interface{}{
		"symbol": res.Symbol, "waiting": res.Waiting,
	})

	// first chart fill before the pollers take over
	if err := s.refresher.Tick(ctx, res.Symbol, s.cfg.Timeframe); err != nil {
		s.logger.Warn(ctx, "initial chart fetch failed", map[string]interface{}{
			"symbol": res.Symbol, "error": err.Error(),
		})
	}
	return nil
}

func (s *PanelService) applyPreferences(prefs domain.Preferences) {
	s.mu.Lock()
	s.theme = prefs.Theme
	if prefs.RefreshInterval > 0 {
		s.refreshEvery = prefs.RefreshInterval
	}
	s.mu.Unlock()
	s.fmtr.SetMode(prefs.LocaleMode)
}

// Start wires event subscriptions and launches the polling loops.
// It returns immediately; cancel ctx to stop.
func (s *PanelService) Start(ctx context.Context) error {
	if s.switcher == nil {
		return fmt.Errorf("Bootstrap must run before Start")
	}

	// quick balance refreshes immediately on trade changes, saving a
	// timer round trip
	s.bus.Subscribe(events.TopicOpenTradesChanged, func(events.Event) {
		s.refreshQuickBalance(ctx)
	})
	s.bus.Subscribe(events.TopicRecentTradesChanged, func(events.Event) {
		s.refreshQuickBalance(ctx)
	})

	for _, task := range s.pollTasks() {
		p := poller.New(task, s.logger, s.metrics)
		s.pollers = append(s.pollers, p)
		p.Start(ctx)
	}

	s.logger.Info(ctx, "panel service started", map[string]interface{}{
		"pollers": len(s.pollers), "timeframe": s.cfg.Timeframe,
	})
	return nil
}

// chartJitter staggers the combined klines+markers tick so several
// panel instances restarted together don't fetch on the same instant.
const chartJitter = 150 * time.Millisecond

func (s *PanelService) pollTasks() []poller.Task {
	s.mu.RLock()
	chartInterval := s.refreshEvery
	s.mu.RUnlock()

	tasks := []poller.Task{
		{Name: "chart", Interval: chartInterval, Jitter: chartJitter, Run: s.chartTick},
	}
	if s.backend != nil && s.cfg.TradesAllowed {
		tasks = append(tasks,
			poller.Task{Name: "open_trades", Interval: s.cfg.OpenTradesInterval, Run: s.openTradesTick},
			poller.Task{Name: "recent_trades", Interval: s.cfg.RecentTradesInterval, Run: s.recentTradesTick},
			poller.Task{Name: "quick_balance", Interval: s.cfg.QuickBalanceInterval, Run: func(ctx context.Context) error {
				s.refreshQuickBalance(ctx)
				return nil
			}},
			poller.Task{Name: "overview", Interval: s.cfg.QuickBalanceInterval, Run: s.overviewTick},
		)
	}
	return tasks
}

// chartTick evaluates the auto-switch before fetching, so a symbol
// switch never races a stale-symbol fetch within the same tick.
func (s *PanelService) chartTick(ctx context.Context) error {
	if s.backend != nil && s.cfg.TradesAllowed {
		if allMarkers, err := s.backend.Markers(ctx, "", s.cfg.Timeframe); err == nil {
			symbol, changed := s.switcher.Evaluate(ctx, allMarkers, s.snapshotOpenTrades())
			if changed {
				s.refresher.Clear()
				s.bus.Publish(events.Event{
					Topic: events.TopicActiveSymbolChanged, Source: "chart", Symbol: symbol,
				})
			}
		}
	}

	symbol, _ := s.switcher.Active()
	if err := s.refresher.Tick(ctx, symbol, s.cfg.Timeframe); err != nil {
		return err
	}

	if s.backend != nil {
		markers, err := s.backend.Markers(ctx, symbol, s.cfg.Timeframe)
		if err != nil {
			// chart already refreshed; keep the previous markers
			s.logger.Debug(ctx, "marker fetch failed", map[string]interface{}{
				"symbol": symbol, "error": err.Error(),
			})
			return nil
		}
		s.mu.Lock()
		s.markers = markers
		s.mu.Unlock()
	}
	return nil
}

func (s *PanelService) openTradesTick(ctx context.Context) error {
	open, err := s.backend.OpenTrades(ctx, 0)
	if err != nil {
		return err
	}
	s.setOpenTrades(open)
	s.bus.Publish(events.Event{
		Topic: events.TopicOpenTradesChanged, Source: "open_trades", OpenTrades: open,
	})
	return nil
}

func (s *PanelService) recentTradesTick(ctx context.Context) error {
	recent, err := s.backend.RecentTrades(ctx, "", s.cfg.RecentLimit)
	if err != nil {
		return err
	}
	s.setRecentTrades(recent)
	if err := s.store.ReplaceTradeCache(ctx, recent); err != nil {
		s.logger.Warn(ctx, "trade cache update failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.bus.Publish(events.Event{
		Topic: events.TopicRecentTradesChanged, Source: "recent_trades", RecentTrades: recent,
	})
	return nil
}

func (s *PanelService) overviewTick(ctx context.Context) error {
	o, err := s.backend.Overview(ctx)
	if err != nil {
		return err
	}
	card := panels.BuildOverview(s.fmtr, o)
	s.mu.Lock()
	s.overview = card
	s.mu.Unlock()
	return nil
}

// refreshQuickBalance pulls balance, net PnL and unrealized PnL and
// rebuilds the card. Each lookup degrades independently.
func (s *PanelService) refreshQuickBalance(ctx context.Context) {
	if s.backend == nil || !s.cfg.TradesAllowed {
		return
	}
	symbol, _ := s.switcher.Active()
	exchange := s.activeExchange(symbol)

	in := panels.QuickBalanceInput{
		Symbol:       symbol,
		StartCapital: s.cfg.StartCapital,
		OpenTrades:   s.snapshotOpenTrades(),
		RecentTrades: s.snapshotRecentTrades(),
	}

	if wallet, err := s.backend.Balance(ctx, symbol, exchange); err == nil {
		in.Wallet, in.HasWallet = wallet, true
	}
	if net, ok, err := s.backend.NetPnL(ctx, symbol, exchange); err == nil && ok {
		in.Net, in.HasNet = net, true
	}

	if u, err := s.backend.Unrealized(ctx, symbol, exchange, true); err == nil && u != nil {
		in.Unrealized = *u
		in.Mode = s.modes.Observe(symbol, *u)
	} else {
		in.Mode = s.modes.ObserveFailure(symbol)
	}

	card := panels.BuildQuickBalance(s.fmtr, in)
	s.mu.Lock()
	s.quick = card
	s.wallet, s.hasWallet = in.Wallet, in.HasWallet
	s.mode = in.Mode
	s.mu.Unlock()
}

func (s *PanelService) activeExchange(symbol string) string {
	for _, tr := range s.snapshotOpenTrades() {
		if tr.Symbol == symbol && tr.Exchange != "" {
			return tr.Exchange
		}
	}
	return ""
}

func (s *PanelService) setOpenTrades(open []domain.OpenTrade) {
	s.mu.Lock()
	s.openTrades = open
	s.mu.Unlock()
}

func (s *PanelService) setRecentTrades(recent []domain.ClosedTrade) {
	s.mu.Lock()
	s.recentTrades = recent
	s.mu.Unlock()
}

func (s *PanelService) snapshotOpenTrades() []domain.OpenTrade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.OpenTrade, len(s.openTrades))
	copy(out, s.openTrades)
	return out
}

func (s *PanelService) snapshotRecentTrades() []domain.ClosedTrade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ClosedTrade, len(s.recentTrades))
	copy(out, s.recentTrades)
	return out
}

func (s *PanelService) snapshotMarkers() []domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Marker, len(s.markers))
	copy(out, s.markers)
	return out
}
