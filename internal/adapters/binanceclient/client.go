// Package binanceclient implements ports.MarketSource directly
// against Binance futures, used when no dashboard backend URL is
// configured. Read-only: the panel never places orders.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"

	"signalpanel/internal/domain"
	"signalpanel/internal/ports"
)

const (
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Client implements ports.MarketSource using the go-binance library.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration for the Binance kline source. Keys are
// optional; klines are a public endpoint.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a Binance kline source.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
	} else {
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance kline source configured",
		map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{futuresClient: client, logger: cfg.Logger}, nil
}

// Klines retrieves historical candles for the symbol/timeframe.
func (c *Client) Klines(ctx context.Context, symbol, timeframe string, limit int) ([]domain.Candle, error) {
	binanceKlines, err := c.futuresClient.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(limit).
		Do(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: klines", ports.ErrContextCanceled)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: klines", ports.ErrTimeout)
		}
		c.logger.Error(ctx, err, "Binance klines request failed", map[string]interface{}{
			"symbol": symbol, "interval": timeframe,
		})
		return nil, fmt.Errorf("%w: %v", ports.ErrBackendUnavailable, err)
	}

	candles := make([]domain.Candle, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		cd, err := translateKline(bk)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrDecodeFailed, err)
		}
		candles = append(candles, cd)
	}
	return candles, nil
}

func translateKline(bk *futures.Kline) (domain.Candle, error) {
	if bk == nil {
		return domain.Candle{}, errors.New("received nil kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	return domain.Candle{
		Time: bk.OpenTime / 1000,
		Open: open, High: high, Low: low, Close: cls,
	}, nil
}
