package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"signalpanel/internal/adapters/logger"
	"signalpanel/internal/timeutil"
)

// Config holds all application configuration.
type Config struct {
	// Dashboard backend. When BackendURL is empty the panel reads
	// klines directly from Binance and trade features stay dark.
	BackendURL    string
	SessionCookie string
	HTTPTimeout   time.Duration

	// Binance fallback kline source
	BinanceAPIKey    string
	BinanceSecretKey string
	UseTestnet       bool

	// Chart
	Symbol      string // optional bootstrap override, like ?symbol=
	Timeframe   string
	KlineLimit  int
	RecentLimit int

	// Poll intervals
	ChartInterval        time.Duration
	OpenTradesInterval   time.Duration
	RecentTradesInterval time.Duration
	QuickBalanceInterval time.Duration

	// Access gates
	TradesAllowed bool
	EquityAllowed bool

	// GroupMarkers merges same-bar duplicate markers into one "×N"
	// marker instead of nudging them apart.
	GroupMarkers bool

	// Viewer defaults, overridden by stored preferences
	Theme      string
	LocaleMode string
	LocalTag   string

	// Equity
	StartCapital float64

	// Storage and HTTP surface
	DBPath     string
	ListenAddr string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.BackendURL = getEnv("BACKEND_URL", "")
	cfg.SessionCookie = getEnv("SESSION_COOKIE", "")

	timeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 10)
	if timeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.UseTestnet = getEnvAsBool("IS_TESTNET", false)

	cfg.Symbol = strings.ToUpper(getEnv("SYMBOL", ""))
	cfg.Timeframe = getEnv("TIMEFRAME", "15m")
	if !timeutil.KnownTimeframe(cfg.Timeframe) {
		errs = append(errs, fmt.Sprintf("unsupported TIMEFRAME '%s'", cfg.Timeframe))
	}

	cfg.KlineLimit = getEnvAsInt("KLINE_LIMIT", 1000)
	if cfg.KlineLimit <= 0 {
		errs = append(errs, "KLINE_LIMIT must be positive")
	}
	cfg.RecentLimit = getEnvAsInt("RECENT_TRADES_LIMIT", 100)
	if cfg.RecentLimit <= 0 {
		errs = append(errs, "RECENT_TRADES_LIMIT must be positive")
	}

	cfg.ChartInterval = getEnvAsDuration("CHART_INTERVAL_MS", 5*time.Second, &errs)
	cfg.OpenTradesInterval = getEnvAsDuration("OPEN_TRADES_INTERVAL_MS", 10*time.Second, &errs)
	cfg.RecentTradesInterval = getEnvAsDuration("RECENT_TRADES_INTERVAL_MS", 30*time.Second, &errs)
	cfg.QuickBalanceInterval = getEnvAsDuration("QUICK_BALANCE_INTERVAL_MS", 60*time.Second, &errs)

	cfg.TradesAllowed = getEnvAsBool("TRADES_ALLOWED", true)
	cfg.EquityAllowed = getEnvAsBool("EQUITY_ALLOWED", true)
	cfg.GroupMarkers = getEnvAsBool("MARKER_GROUPING", false)

	cfg.Theme = getEnv("THEME", "dark")
	if cfg.Theme != "dark" && cfg.Theme != "light" {
		errs = append(errs, "THEME must be 'dark' or 'light'")
	}
	cfg.LocaleMode = getEnv("PRICE_LOCALE_MODE", "exchange")
	if cfg.LocaleMode != "exchange" && cfg.LocaleMode != "local" {
		errs = append(errs, "PRICE_LOCALE_MODE must be 'exchange' or 'local'")
	}
	cfg.LocalTag = getEnv("LOCALE_TAG", "en-US")

	cfg.StartCapital = getEnvAsFloat("START_CAPITAL", 1000.0)
	if cfg.StartCapital <= 0 {
		errs = append(errs, "START_CAPITAL must be positive")
	}

	cfg.DBPath = getEnv("DB_PATH", "./data/signal_panel.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	cfg.ListenAddr = getEnv("LISTEN_ADDR", ":8080")

	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration reads a millisecond value; invalid or non-positive
// values are reported through errs.
func getEnvAsDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	ms, err := strconv.Atoi(valueStr)
	if err != nil || ms <= 0 {
		*errs = append(*errs, fmt.Sprintf("invalid %s: '%s' (positive milliseconds expected)", key, valueStr))
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}
