package client

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"ticker-board/config"
	"time"

	"github.com/gorilla/websocket"
)

func TestFormatSymbolsUrlSlug(t *testing.T) {
	tests := []struct {
		name     string
		symbols  []string
		expected string
	}{
		{
			name:     "Single symbol",
			symbols:  []string{"BTCUSDT"},
			expected: "stream?streams=btcusdt@ticker/btcusdt@kline_1m/btcusdt@kline_5m",
		},
		{
			name:     "Multiple symbols",
			symbols:  []string{"BTCUSDT", "ETHUSDT"},
			expected: "stream?streams=btcusdt@ticker/btcusdt@kline_1m/btcusdt@kline_5m/ethusdt@ticker/ethusdt@kline_1m/ethusdt@kline_5m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := formatSymbolsUrlSlug(tt.symbols); result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestStreamURL(t *testing.T) {
	expected := "wss://stream.binance.com:9443/stream?streams=btcusdt@ticker/btcusdt@kline_1m/btcusdt@kline_5m"

	for _, base := range []string{"wss://stream.binance.com:9443", "wss://stream.binance.com:9443/"} {
		if result := StreamURL(base, []string{"BTCUSDT"}); result != expected {
			t.Errorf("Expected %s, got %s", expected, result)
		}
	}
}

func captureHandlers() (StreamHandlers, *[]*MultiStreamWsTickerEvent, *[]*MultiStreamWsKlineEvent) {
	var tickers []*MultiStreamWsTickerEvent
	var klines []*MultiStreamWsKlineEvent
	return StreamHandlers{
		Ticker: func(event *MultiStreamWsTickerEvent) { tickers = append(tickers, event) },
		Kline:  func(event *MultiStreamWsKlineEvent) { klines = append(klines, event) },
	}, &tickers, &klines
}

func TestDispatchMultiStreamEvent_Ticker(t *testing.T) {
	message := `{"stream":"btcusdt@ticker","data":{"e":"24hrTicker","E":1700000000123,"s":"BTCUSDT",` +
		`"p":"1490.12","P":"2.35","w":"64000.1","c":"65000.12","Q":"0.01","o":"63510.00",` +
		`"h":"65500.00","l":"63000.00","v":"1000","q":"64000000","O":1699913600000,"C":1700000000000,` +
		`"F":1,"L":2,"n":2,"b":"65000.11","B":"1","a":"65000.13","A":"1","x":"63509.99"}}`

	handlers, tickers, klines := captureHandlers()
	if err := dispatchMultiStreamEvent([]byte(message), handlers); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(*tickers) != 1 || len(*klines) != 0 {
		t.Fatalf("Expected 1 ticker and 0 klines, got %d and %d", len(*tickers), len(*klines))
	}
	event := (*tickers)[0]

	if event.Stream != "btcusdt@ticker" {
		t.Errorf("Expected stream btcusdt@ticker, got %s", event.Stream)
	}
	if event.Data.Event != TickerEventType {
		t.Errorf("Expected event %s, got %s", TickerEventType, event.Data.Event)
	}
	if event.Data.Time != 1700000000123 {
		t.Errorf("Expected event time 1700000000123, got %d", event.Data.Time)
	}
	if event.Data.LastPrice != "65000.12" {
		t.Errorf("Expected last price 65000.12, got %s", event.Data.LastPrice)
	}
	if event.Data.CloseTime != 1700000000000 {
		t.Errorf("Expected close time 1700000000000, got %d", event.Data.CloseTime)
	}
	if event.Data.PriceChangePercent != "2.35" {
		t.Errorf("Expected percent change 2.35, got %s", event.Data.PriceChangePercent)
	}
	if event.Data.PriceChange != "1490.12" {
		t.Errorf("Expected price change 1490.12, got %s", event.Data.PriceChange)
	}
}

func TestDispatchMultiStreamEvent_Kline(t *testing.T) {
	message := `{"stream":"ethusdt@kline_5m","data":{"e":"kline","E":1700000000123,"s":"ETHUSDT",` +
		`"k":{"t":1699999800000,"T":1700000099999,"s":"ETHUSDT","i":"5m","f":1,"L":2,` +
		`"o":"3200.00","c":"3203.20","h":"3205.00","l":"3199.00","v":"100","n":2,"x":false}}}`

	handlers, tickers, klines := captureHandlers()
	if err := dispatchMultiStreamEvent([]byte(message), handlers); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(*tickers) != 0 || len(*klines) != 1 {
		t.Fatalf("Expected 0 tickers and 1 kline, got %d and %d", len(*tickers), len(*klines))
	}
	event := (*klines)[0]

	if event.Data.Event != KlineEventType || event.Data.Symbol != "ETHUSDT" {
		t.Errorf("Unexpected kline event %+v", event.Data)
	}
	if event.Data.Kline.Interval != "5m" || event.Data.Kline.Open != "3200.00" || event.Data.Kline.Close != "3203.20" {
		t.Errorf("Unexpected kline %+v", event.Data.Kline)
	}
	if event.Data.Kline.LastTradeID != 2 || event.Data.Kline.Low != "3199.00" {
		t.Errorf("Expected last trade 2 and low 3199.00, got %d and %s", event.Data.Kline.LastTradeID, event.Data.Kline.Low)
	}
	if event.Data.Kline.IsFinal {
		t.Error("Expected open candle")
	}
}

func TestDispatchMultiStreamEvent_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{name: "Not JSON", message: `not json`},
		{name: "Wrong field type", message: `{"stream":"btcusdt@ticker","data":{"c":65000.12}}`},
		{name: "Wrong kline field type", message: `{"stream":"btcusdt@kline_1m","data":{"k":{"o":1}}}`},
		{name: "Unsupported stream", message: `{"stream":"btcusdt@trade","data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers, tickers, klines := captureHandlers()
			if err := dispatchMultiStreamEvent([]byte(tt.message), handlers); err == nil {
				t.Error("Expected error, got nil")
			}
			if len(*tickers)+len(*klines) != 0 {
				t.Error("Expected no handler to be called")
			}
		})
	}
}

func TestBinanceTickerStreamFactory_GetNewStream(t *testing.T) {
	_, wsURL := newTestWsServer(t, func(conn *websocket.Conn, _ int) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"stream":"ethusdt@ticker","data":{"e":"24hrTicker","s":"ETHUSDT","c":"3200.50","P":"-1.10"}}`))
		drainUntilClosed(conn)
	})

	cfg := config.Default()
	cfg.Binance.WebsocketUrl = wsURL
	cfg.Stream.ReconnectDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan *MultiStreamWsTickerEvent, 1)
	errs := make(chan error, 1)
	factory := NewTickerStreamFactory(cfg, slog.Default())
	doneCh, err := factory.GetNewStream(ctx, []string{"ETHUSDT"}, StreamHandlers{
		Ticker: func(event *MultiStreamWsTickerEvent) {
			events <- event
		},
	}, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	select {
	case err := <-errs:
		if !strings.Contains(err.Error(), "failed to decode ticker message") {
			t.Errorf("Unexpected decode error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected decode error for garbage frame")
	}

	select {
	case event := <-events:
		if event.Data.Symbol != "ETHUSDT" || event.Data.LastPrice != "3200.50" {
			t.Errorf("Unexpected event %+v", event.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected ticker event within timeout")
	}

	cancel()
	<-doneCh
}

func TestBinanceTickerStreamFactory_NoSymbols(t *testing.T) {
	factory := NewTickerStreamFactory(config.Default(), slog.Default())
	if _, err := factory.GetNewStream(context.Background(), nil, StreamHandlers{}, func(error) {}); err == nil {
		t.Error("Expected error when no symbols are given, got nil")
	}
}
