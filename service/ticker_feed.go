package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"ticker-board/client"
	"ticker-board/config"
	"ticker-board/data"
	"ticker-board/models"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrMalformedTicker = errors.New("malformed ticker event")
)

type BinanceTickerFeed struct {
	config        *config.Config
	statsClient   client.StatsClient
	streamFactory client.TickerStreamFactory
	store         data.PriceStore
	logger        *slog.Logger
}

// TickerFeed keeps the price store current from the Binance ticker stream
type TickerFeed interface {
	Seed(ctx context.Context) error
	Listen(ctx context.Context) error
	HandleTickerEvent(event *client.MultiStreamWsTickerEvent) error
	HandleKlineEvent(event *client.MultiStreamWsKlineEvent) error
}

func NewBinanceTickerFeed(
	config *config.Config,
	statsClient client.StatsClient,
	streamFactory client.TickerStreamFactory,
	store data.PriceStore,
	logger *slog.Logger,
) TickerFeed {
	return &BinanceTickerFeed{
		config:        config,
		statsClient:   statsClient,
		streamFactory: streamFactory,
		store:         store,
		logger:        logger,
	}
}

// Seed fills the store from the 24h statistics and the latest candle of each
// window so the board has values before the first stream message arrives.
// Only a failed statistics request is returned; candle failures are logged.
func (tf *BinanceTickerFeed) Seed(ctx context.Context) error {
	tf.logger.Debug("Seeding prices", "symbols", tf.store.Symbols())
	err := tf.seedTickers(ctx)
	if err != nil {
		tf.logger.Warn("Error seeding prices", "error", err)
	}

	tf.seedWindows(ctx)
	return err
}

func (tf *BinanceTickerFeed) seedTickers(ctx context.Context) error {
	symbolsSet := createSymbolsSet(tf.store.Symbols())

	stats, err := tf.statsClient.GetTickerStats(ctx)
	if err != nil {
		return err
	}

	seeded := 0
	for _, s := range stats {
		if !symbolsSet[s.Symbol] {
			continue
		}

		snapshot, err := Normalize(s.Symbol, s.LastPrice, s.PriceChangePercent, s.CloseTime)
		if err != nil {
			tf.logger.Warn("Skipping seed entry", "symbol", s.Symbol, "error", err)
			continue
		}
		if err := tf.store.Put(snapshot); err != nil {
			tf.logger.Warn("Skipping seed entry", "symbol", s.Symbol, "error", err)
			continue
		}
		seeded++
	}

	tf.logger.Debug("Finished seeding price data", "seeded", seeded)
	return nil
}

func (tf *BinanceTickerFeed) seedWindows(ctx context.Context) {
	for _, symbol := range tf.store.Symbols() {
		for _, window := range models.Windows {
			if ctx.Err() != nil {
				return
			}

			klines, err := tf.statsClient.GetKlines(ctx, symbol, string(window), 1)
			if err != nil {
				tf.logger.Warn("Error seeding window change", "symbol", symbol, "window", window, "error", err)
				continue
			}
			if len(klines) == 0 {
				continue
			}

			last := klines[len(klines)-1]
			change, err := WindowChange(symbol, last.Open, last.Close)
			if err != nil {
				tf.logger.Warn("Skipping window seed", "symbol", symbol, "window", window, "error", err)
				continue
			}
			if err := tf.store.PutWindowChange(symbol, window, change); err != nil {
				tf.logger.Warn("Skipping window seed", "symbol", symbol, "window", window, "error", err)
			}
		}
	}
}

func createSymbolsSet(symbols []string) map[string]bool {
	result := make(map[string]bool)
	for _, symbol := range symbols {
		result[symbol] = true
	}

	return result
}

// Listen opens one stream per chunk of symbols and blocks until ctx is done
// and every stream has shut down.
func (tf *BinanceTickerFeed) Listen(ctx context.Context) error {
	symbols := tf.store.Symbols()
	symbolsPerStream := tf.config.Binance.SymbolsPerStream
	if symbolsPerStream <= 0 {
		symbolsPerStream = len(symbols)
	}
	tf.logger.Info("Starting ticker feed", "symbols", symbols, "symbols_per_stream", symbolsPerStream)

	if len(symbols) == 0 {
		return errors.New("no symbols to listen to")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var allDoneChs []<-chan struct{}

	var i = 0
	for chunk := range slices.Chunk(symbols, symbolsPerStream) {
		i += 1
		streamID := fmt.Sprintf("stream-%d", i)
		logger := tf.logger.With("stream_id", streamID)

		errHandler := func(err error) {
			logger.Error("Stream error", "error", err)
		}
		handlers := client.StreamHandlers{
			Ticker: func(event *client.MultiStreamWsTickerEvent) {
				if err := tf.HandleTickerEvent(event); err != nil {
					logger.Warn("Dropping ticker event", "stream", event.Stream, "error", err)
				}
			},
			Kline: func(event *client.MultiStreamWsKlineEvent) {
				if err := tf.HandleKlineEvent(event); err != nil {
					logger.Warn("Dropping kline event", "stream", event.Stream, "error", err)
				}
			},
		}

		logger.Info("Creating stream", "symbols", chunk)
		doneCh, err := tf.streamFactory.GetNewStream(streamCtx, chunk, handlers, errHandler)
		if err != nil {
			logger.Error("Failed to create stream", "error", err)
			// stop the streams that did start
			cancel()
			for _, done := range allDoneChs {
				<-done
			}
			return fmt.Errorf("failed to create stream %s: %w", streamID, err)
		}

		allDoneChs = append(allDoneChs, doneCh)
	}

	<-ctx.Done()

	for _, done := range allDoneChs {
		<-done
	}

	tf.logger.Info("Ticker feed stopped")
	return nil
}

// HandleTickerEvent validates a stream event and writes it to the store.
// Rejected events leave the store untouched.
func (tf *BinanceTickerFeed) HandleTickerEvent(event *client.MultiStreamWsTickerEvent) error {
	if event == nil {
		return fmt.Errorf("%w: empty event", ErrMalformedTicker)
	}

	symbol := strings.ToUpper(event.Data.Symbol)
	if symbol == "" {
		symbol = getSymbolFromStreamName(event.Stream)
	}
	if symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrMalformedTicker)
	}
	if !tf.store.IsKnown(symbol) {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if event.Data.Event != "" && event.Data.Event != client.TickerEventType {
		return fmt.Errorf("%w: unexpected event type %q", ErrMalformedTicker, event.Data.Event)
	}

	snapshot, err := Normalize(symbol, event.Data.LastPrice, event.Data.PriceChangePercent, event.Data.Time)
	if err != nil {
		return err
	}

	return tf.store.Put(snapshot)
}

// HandleKlineEvent turns a candle update into the change of its window.
// The change runs from the candle's open to its latest close.
func (tf *BinanceTickerFeed) HandleKlineEvent(event *client.MultiStreamWsKlineEvent) error {
	if event == nil {
		return fmt.Errorf("%w: empty event", ErrMalformedTicker)
	}

	symbol := strings.ToUpper(event.Data.Symbol)
	if symbol == "" {
		symbol = getSymbolFromStreamName(event.Stream)
	}
	if symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrMalformedTicker)
	}
	if !tf.store.IsKnown(symbol) {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if event.Data.Event != "" && event.Data.Event != client.KlineEventType {
		return fmt.Errorf("%w: unexpected event type %q", ErrMalformedTicker, event.Data.Event)
	}

	window, ok := models.ParseWindow(event.Data.Kline.Interval)
	if !ok {
		return fmt.Errorf("%w: unsupported kline interval %q", ErrMalformedTicker, event.Data.Kline.Interval)
	}

	change, err := WindowChange(symbol, event.Data.Kline.Open, event.Data.Kline.Close)
	if err != nil {
		return err
	}

	return tf.store.PutWindowChange(symbol, window, change)
}

// WindowChange parses a candle's open and close into a percent change
func WindowChange(symbol, rawOpen, rawClose string) (decimal.Decimal, error) {
	openPrice, err := decimal.NewFromString(rawOpen)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: open price %q for %s", ErrMalformedTicker, rawOpen, symbol)
	}
	closePrice, err := decimal.NewFromString(rawClose)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: close price %q for %s", ErrMalformedTicker, rawClose, symbol)
	}

	change, ok := models.ChangePercent(openPrice, closePrice)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: open price %q for %s", ErrMalformedTicker, rawOpen, symbol)
	}
	return change, nil
}

// Normalize converts raw ticker fields into a snapshot. eventMillis is a Unix
// timestamp in milliseconds; zero means now.
func Normalize(symbol, lastPrice, percentChange string, eventMillis int64) (models.TickerSnapshot, error) {
	price, err := decimal.NewFromString(lastPrice)
	if err != nil {
		return models.TickerSnapshot{}, fmt.Errorf("%w: last price %q for %s", ErrMalformedTicker, lastPrice, symbol)
	}
	change, err := decimal.NewFromString(percentChange)
	if err != nil {
		return models.TickerSnapshot{}, fmt.Errorf("%w: percent change %q for %s", ErrMalformedTicker, percentChange, symbol)
	}

	var updatedAt time.Time
	if eventMillis > 0 {
		updatedAt = time.UnixMilli(eventMillis).UTC()
	}

	return models.NewTickerSnapshot(strings.ToUpper(symbol), price, change, updatedAt), nil
}

// ensure all keys are upper case
func getSymbolFromStreamName(stream string) string {
	return strings.ToUpper(strings.Split(stream, "@")[0])
}
