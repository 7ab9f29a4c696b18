package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"ticker-board/config"
	"time"

	"github.com/adshao/go-binance/v2"
)

type BinanceStatsClient struct {
	api *binance.Client
}

type StatsClient interface {
	GetTickerStats(ctx context.Context) ([]TickerStats, error)
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]KlineStats, error)
}

func NewBinanceStatsClient(config *config.Config) StatsClient {
	// public market data needs no credentials
	api := binance.NewClient("", "")
	api.BaseURL = strings.TrimRight(config.Binance.ApiUrl, "/")
	api.UserAgent = fmt.Sprintf("%s/%s", Name, Version)
	api.HTTPClient = &http.Client{
		Timeout: 10 * time.Second,
	}

	return &BinanceStatsClient{
		api: api,
	}
}

// GetTickerStats retrieves 24h rolling statistics for all symbols
func (c *BinanceStatsClient) GetTickerStats(ctx context.Context) ([]TickerStats, error) {
	stats, err := c.api.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch 24h ticker statistics: %w", err)
	}

	tickers := make([]TickerStats, 0, len(stats))
	for _, s := range stats {
		if s == nil {
			continue
		}
		tickers = append(tickers, TickerStats{
			Symbol:             s.Symbol,
			LastPrice:          s.LastPrice,
			PriceChangePercent: s.PriceChangePercent,
			CloseTime:          s.CloseTime,
		})
	}

	return tickers, nil
}

// GetKlines retrieves the latest limit candlesticks for symbol, oldest first
func (c *BinanceStatsClient) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]KlineStats, error) {
	klines, err := c.api.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s klines for %s: %w", interval, symbol, err)
	}

	result := make([]KlineStats, 0, len(klines))
	for _, k := range klines {
		if k == nil {
			continue
		}
		result = append(result, KlineStats{
			OpenTime:  k.OpenTime,
			Open:      k.Open,
			Close:     k.Close,
			CloseTime: k.CloseTime,
		})
	}

	return result, nil
}
