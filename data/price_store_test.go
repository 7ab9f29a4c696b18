package data

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"ticker-board/models"
	"time"

	"github.com/shopspring/decimal"
)

func newSnapshot(symbol, price, change string) models.TickerSnapshot {
	return models.NewTickerSnapshot(symbol, decimal.RequireFromString(price), decimal.RequireFromString(change), time.Time{})
}

func TestNewInMemoryPriceStore(t *testing.T) {
	ps := NewInMemoryPriceStore([]string{"BTCUSDT", "ETHUSDT", "BTCUSDT"}, slog.Default())

	if ps == nil {
		t.Fatal("Expected PriceStore to be created, got nil")
	}

	expected := []string{"BTCUSDT", "ETHUSDT"}
	if !reflect.DeepEqual(ps.Symbols(), expected) {
		t.Errorf("Expected symbols %v, got %v", expected, ps.Symbols())
	}

	// No entries until the first message arrives
	table := ps.Snapshot()
	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d entries", table.Len())
	}
}

func TestInMemoryPriceStore_Put(t *testing.T) {
	ps := NewInMemoryPriceStore([]string{"BTCUSDT"}, slog.Default())

	if err := ps.Put(newSnapshot("BTCUSDT", "65000.12", "2.35")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	snapshot, ok := ps.Get("BTCUSDT")
	if !ok {
		t.Fatal("Expected BTCUSDT snapshot to be present")
	}

	if snapshot.Symbol != "BTCUSDT" {
		t.Errorf("Expected symbol BTCUSDT, got %s", snapshot.Symbol)
	}

	if !snapshot.LastPrice.Equal(decimal.RequireFromString("65000.12")) {
		t.Errorf("Expected price 65000.12, got %s", snapshot.LastPrice)
	}

	if ps.UpdatedCount() != 1 {
		t.Errorf("Expected 1 update, got %d", ps.UpdatedCount())
	}
}

func TestInMemoryPriceStore_PutUnknownSymbol(t *testing.T) {
	ps := NewInMemoryPriceStore([]string{"BTCUSDT"}, slog.Default())

	if err := ps.Put(newSnapshot("DOGEUSDT", "0.1", "1")); err == nil {
		t.Error("Expected error for untracked symbol, got nil")
	}

	if _, ok := ps.Get("DOGEUSDT"); ok {
		t.Error("Expected untracked symbol to stay absent")
	}

	if ps.UpdatedCount() != 0 {
		t.Errorf("Expected 0 updates, got %d", ps.UpdatedCount())
	}
}

func TestInMemoryPriceStore_LastWriteWins(t *testing.T) {
	ps := NewInMemoryPriceStore([]string{"BTCUSDT", "ETHUSDT"}, slog.Default())

	updates := []models.TickerSnapshot{
		newSnapshot("BTCUSDT", "50000.00", "1.00"),
		newSnapshot("ETHUSDT", "3000.00", "-0.50"),
		newSnapshot("BTCUSDT", "51000.00", "3.00"), // Update existing
	}

	for _, update := range updates {
		if err := ps.Put(update); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	btc, _ := ps.Get("BTCUSDT")
	if btc.LastPrice.String() != "51000" {
		t.Errorf("Expected BTC price 51000, got %s", btc.LastPrice)
	}
	if btc.PercentChange24h.String() != "3" {
		t.Errorf("Expected BTC change 3, got %s", btc.PercentChange24h)
	}

	eth, _ := ps.Get("ETHUSDT")
	if eth.LastPrice.String() != "3000" {
		t.Errorf("Expected ETH price 3000, got %s", eth.LastPrice)
	}
}

func TestInMemoryPriceStore_SnapshotIsCopy(t *testing.T) {
	ps := NewInMemoryPriceStore([]string{"BTCUSDT", "ETHUSDT"}, slog.Default())
	_ = ps.Put(newSnapshot("BTCUSDT", "50000.00", "1.00"))

	table := ps.Snapshot()
	_ = ps.Put(newSnapshot("ETHUSDT", "3000.00", "1.00"))

	if table.Len() != 1 {
		t.Errorf("Expected earlier snapshot to keep 1 entry, got %d", table.Len())
	}

	if _, ok := table.Get("ETHUSDT"); ok {
		t.Error("Expected earlier snapshot not to see later update")
	}
}

func TestInMemoryPriceStore_ConcurrentPutAndSnapshot(t *testing.T) {
	symbols := []string{"BTCUSDT", "ETHUSDT", "BNBUSDT"}
	ps := NewInMemoryPriceStore(symbols, slog.Default())

	const numUpdates = 200
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < numUpdates; i++ {
			symbol := symbols[i%len(symbols)]
			// price and change move together so a torn read would be visible
			value := fmt.Sprintf("%d", i)
			_ = ps.Put(newSnapshot(symbol, value, value))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < numUpdates; i++ {
			table := ps.Snapshot()
			for symbol, snapshot := range table.GetRawData() {
				if !snapshot.LastPrice.Equal(snapshot.PercentChange24h) {
					t.Errorf("Torn snapshot for %s: price %s change %s", symbol, snapshot.LastPrice, snapshot.PercentChange24h)
					return
				}
			}
		}
	}()

	wg.Wait()

	if ps.UpdatedCount() != numUpdates {
		t.Errorf("Expected %d updates, got %d", numUpdates, ps.UpdatedCount())
	}
}

func TestInMemoryPriceStore_PutWindowChange(t *testing.T) {
	tests := []struct {
		name           string
		putTickerFirst bool
		window         models.Window
		change         string
		expectedCount  uint64
	}{
		{name: "Window change before first ticker", window: models.Window1m, change: "0.12", expectedCount: 1},
		{name: "Window change after ticker", putTickerFirst: true, window: models.Window5m, change: "-0.40", expectedCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := NewInMemoryPriceStore([]string{"BTCUSDT"}, slog.Default())

			if tt.putTickerFirst {
				if err := ps.Put(newSnapshot("BTCUSDT", "65000.12", "2.35")); err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
			}

			if err := ps.PutWindowChange("BTCUSDT", tt.window, decimal.RequireFromString(tt.change)); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if !tt.putTickerFirst {
				if _, ok := ps.Get("BTCUSDT"); ok {
					t.Fatal("Expected no snapshot before the first ticker")
				}
				if err := ps.Put(newSnapshot("BTCUSDT", "65000.12", "2.35")); err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
			}

			snapshot, _ := ps.Get("BTCUSDT")
			change := snapshot.WindowChange(tt.window)
			if !change.Valid || !change.Decimal.Equal(decimal.RequireFromString(tt.change)) {
				t.Errorf("Expected %s change %s, got %+v", tt.window, tt.change, change)
			}

			// a later ticker keeps the window change
			if err := ps.Put(newSnapshot("BTCUSDT", "65100", "2.50")); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			snapshot, _ = ps.Get("BTCUSDT")
			if !snapshot.WindowChange(tt.window).Valid {
				t.Errorf("Expected %s change to survive a ticker update", tt.window)
			}

			if ps.UpdatedCount() != tt.expectedCount+1 {
				t.Errorf("Expected %d updates, got %d", tt.expectedCount+1, ps.UpdatedCount())
			}
		})
	}
}

func TestInMemoryPriceStore_PutWindowChange_UnknownSymbol(t *testing.T) {
	ps := NewInMemoryPriceStore([]string{"BTCUSDT"}, slog.Default())

	if err := ps.PutWindowChange("DOGEUSDT", models.Window1m, decimal.NewFromInt(1)); err == nil {
		t.Error("Expected error for untracked symbol, got nil")
	}
}
