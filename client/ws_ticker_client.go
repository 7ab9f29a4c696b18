package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"ticker-board/config"
	"ticker-board/models"
)

type BinanceTickerStreamFactory struct {
	config *config.Config
	logger *slog.Logger
}

type TickerStreamFactory interface {
	GetNewStream(ctx context.Context, symbols []string, handlers StreamHandlers, errHandler ErrorHandler) (doneCh <-chan struct{}, err error)
}

func NewTickerStreamFactory(config *config.Config, logger *slog.Logger) TickerStreamFactory {
	return &BinanceTickerStreamFactory{
		config: config,
		logger: logger,
	}
}

func (f *BinanceTickerStreamFactory) GetNewStream(ctx context.Context, symbols []string, handlers StreamHandlers, errHandler ErrorHandler) (<-chan struct{}, error) {
	if len(symbols) == 0 {
		return nil, errors.New("cannot open a stream without symbols")
	}

	fullWsUrl := StreamURL(f.config.Binance.WebsocketUrl, symbols)
	streamClient := NewWebsocketStreamClient(fullWsUrl, WsOptionsFromConfig(f.config.Stream), f.logger)

	wsHandler := func(message []byte) {
		if err := dispatchMultiStreamEvent(message, handlers); err != nil {
			errHandler(fmt.Errorf("failed to decode ticker message: %w", err))
		}
	}
	return streamClient.Connect(ctx, wsHandler, errHandler)
}

// StreamURL builds the combined ticker and kline stream URL for symbols
func StreamURL(baseURL string, symbols []string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), formatSymbolsUrlSlug(symbols))
}

func formatSymbolsUrlSlug(symbols []string) string {
	var fmtSymbols []string

	for _, symbol := range symbols {
		lower := strings.ToLower(symbol)
		fmtSymbols = append(fmtSymbols, fmt.Sprintf("%s@ticker", lower))
		for _, window := range models.Windows {
			fmtSymbols = append(fmtSymbols, fmt.Sprintf("%s@kline_%s", lower, window))
		}
	}

	var streams = strings.Join(fmtSymbols, "/")
	return fmt.Sprintf("stream?streams=%s", streams)
}

func multiStreamEventMarshaler(message []byte) (*multiStreamEnvelope, error) {
	envelope := new(multiStreamEnvelope)
	err := json.Unmarshal(message, envelope)
	if err != nil {
		return nil, err
	}

	return envelope, nil
}

// dispatchMultiStreamEvent decodes a combined stream frame by its stream name
func dispatchMultiStreamEvent(message []byte, handlers StreamHandlers) error {
	envelope, err := multiStreamEventMarshaler(message)
	if err != nil {
		return err
	}

	_, kind, _ := strings.Cut(envelope.Stream, "@")
	switch {
	case kind == "ticker":
		event := &MultiStreamWsTickerEvent{Stream: envelope.Stream}
		if err := json.Unmarshal(envelope.Data, &event.Data); err != nil {
			return err
		}
		if handlers.Ticker != nil {
			handlers.Ticker(event)
		}
	case strings.HasPrefix(kind, "kline_"):
		event := &MultiStreamWsKlineEvent{Stream: envelope.Stream}
		if err := json.Unmarshal(envelope.Data, &event.Data); err != nil {
			return err
		}
		if handlers.Kline != nil {
			handlers.Kline(event)
		}
	default:
		return fmt.Errorf("unsupported stream %q", envelope.Stream)
	}

	return nil
}
