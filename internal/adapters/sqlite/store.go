// Package sqlite persists viewer preferences and the closed-trades
// cache in a local SQLite database, implementing ports.PanelStore.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"signalpanel/internal/domain"
	"signalpanel/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements ports.PanelStore using SQLite.
type Store struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite store.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewStore opens (and if necessary creates) the panel database.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/signal_panel.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// WAL mode: the poller writes the trade cache while HTTP handlers read.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrStoreConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrStoreConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, logger: cfg.Logger}
	if err := s.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize store schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Panel store ready", map[string]interface{}{"path": dbPath})
	return s, nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS trade_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		position_size REAL NOT NULL,
		realized_pnl REAL NOT NULL,
		closed_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trade_cache_closed_at ON trade_cache(closed_at DESC);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Preference keys.
const (
	keyTheme           = "theme"
	keyLocaleMode      = "price_locale_mode"
	keyRefreshInterval = "refresh_interval_ms"
)

// Preferences loads the stored viewer preferences. Missing or
// malformed entries fall back to defaults rather than erroring.
func (s *Store) Preferences(ctx context.Context) (domain.Preferences, error) {
	prefs := domain.Preferences{
		Theme:      domain.ThemeDark,
		LocaleMode: domain.LocaleExchange,
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM preferences`)
	if err != nil {
		return prefs, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return prefs, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
		switch key {
		case keyTheme:
			if value == string(domain.ThemeLight) {
				prefs.Theme = domain.ThemeLight
			}
		case keyLocaleMode:
			if value == string(domain.LocaleLocal) {
				prefs.LocaleMode = domain.LocaleLocal
			}
		case keyRefreshInterval:
			if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
				prefs.RefreshInterval = time.Duration(ms) * time.Millisecond
			}
		}
	}
	if err := rows.Err(); err != nil {
		return prefs, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return prefs, nil
}

// SavePreferences upserts all preference keys in one transaction.
func (s *Store) SavePreferences(ctx context.Context, prefs domain.Preferences) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	pairs := [][2]string{
		{keyTheme, string(prefs.Theme)},
		{keyLocaleMode, string(prefs.LocaleMode)},
		{keyRefreshInterval, strconv.FormatInt(prefs.RefreshInterval.Milliseconds(), 10)},
	}
	for _, p := range pairs {
		if _, err := tx.ExecContext(ctx, upsert, p[0], p[1]); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// ReplaceTradeCache swaps the cached closed-trades window wholesale,
// mirroring how the panel rebuilds its view on every successful poll.
func (s *Store) ReplaceTradeCache(ctx context.Context, trades []domain.ClosedTrade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trade_cache`); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	const insert = `INSERT INTO trade_cache
		(symbol, side, entry_price, exit_price, position_size, realized_pnl, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, tr := range trades {
		if _, err := tx.ExecContext(ctx, insert,
			tr.Symbol, string(tr.Side), tr.EntryPrice, tr.ExitPrice,
			tr.PositionSize, tr.RealizedPnL, tr.Timestamp.UTC()); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// CachedTrades returns cached closed trades, newest first.
func (s *Store) CachedTrades(ctx context.Context, limit int) ([]domain.ClosedTrade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, side, entry_price, exit_price,
		position_size, realized_pnl, closed_at
		FROM trade_cache ORDER BY closed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var trades []domain.ClosedTrade
	for rows.Next() {
		var tr domain.ClosedTrade
		var side string
		if err := rows.Scan(&tr.Symbol, &side, &tr.EntryPrice, &tr.ExitPrice,
			&tr.PositionSize, &tr.RealizedPnL, &tr.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
		tr.Side = domain.ParseSide(side)
		trades = append(trades, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return trades, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ports.ErrStoreConnection, err)
	}
	return nil
}
