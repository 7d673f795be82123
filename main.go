package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"signalpanel/config"
	"signalpanel/internal/adapters/binanceclient"
	"signalpanel/internal/adapters/logger"
	"signalpanel/internal/adapters/panelapi"
	"signalpanel/internal/adapters/sqlite"
	"signalpanel/internal/app"
	"signalpanel/internal/events"
	"signalpanel/internal/poller"
	"signalpanel/internal/ports"
	"signalpanel/internal/web"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Store (Database Adapter)
	store, err := sqlite.NewStore(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize panel store")
		log.Fatalf("FATAL: Failed to initialize panel store: %v", err) // Also log to stderr
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing panel store")
		}
	}()
	appLogger.Info(context.Background(), "Panel store initialized")

	// 4. Initialize Data Sources. With a backend URL the dashboard API
	// serves both market and trade data; without one the panel reads
	// klines straight from the exchange and trade features stay dark.
	var backend ports.Backend
	var marketSource ports.MarketSource
	if cfg.BackendURL != "" {
		client, err := panelapi.NewClient(panelapi.Config{
			BaseURL:       cfg.BackendURL,
			Timeout:       cfg.HTTPTimeout,
			Logger:        appLogger,
			SessionCookie: cfg.SessionCookie,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize backend client")
			log.Fatalf("FATAL: Failed to initialize backend client: %v", err)
		}
		backend = client
		marketSource = client
		appLogger.Info(context.Background(), "Backend client initialized", map[string]interface{}{"baseURL": cfg.BackendURL})
	} else {
		exchange, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecretKey,
			UseTestnet: cfg.UseTestnet,
			Logger:     appLogger,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
			log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
		}
		marketSource = exchange
		appLogger.Warn(context.Background(), "No backend configured, running chart-only from the exchange")
	}

	// 5. Initialize Panel Service
	svc, err := app.NewPanelService(app.Deps{
		Config:  cfg,
		Logger:  appLogger,
		Backend: backend,
		Market:  marketSource,
		Store:   store,
		Bus:     events.NewBus(),
		Metrics: poller.NewMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize panel service")
		log.Fatalf("FATAL: Failed to initialize panel service: %v", err)
	}
	appLogger.Info(context.Background(), "Panel service initialized")

	// 6. Bootstrap and Start Polling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Bootstrap(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Panel bootstrap failed")
		log.Fatalf("FATAL: Panel bootstrap failed: %v", err)
	}
	if err := svc.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to start polling")
		log.Fatalf("FATAL: Failed to start polling: %v", err)
	}

	// 7. Serve HTTP until interrupted
	srv := web.NewServer(svc, appLogger)
	if err := srv.Run(ctx, cfg.ListenAddr); err != nil {
		appLogger.Error(ctx, err, "HTTP server exited with error")
		log.Fatalf("HTTP server exited with error: %v", err)
	}
	appLogger.Info(context.Background(), "Shutdown complete")
}
