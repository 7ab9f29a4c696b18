package data

import (
	"fmt"
	"log/slog"
	"sync"
	"ticker-board/models"

	"github.com/shopspring/decimal"
)

type InMemoryPriceStore struct {
	symbols      []string
	known        map[string]struct{}
	currentTable models.PriceTable
	windows      map[string]map[models.Window]decimal.Decimal
	updates      uint64
	mu           sync.RWMutex
	logger       *slog.Logger
}

// PriceStore is the keyed table shared by the feed listener and the display loop
type PriceStore interface {
	Put(snapshot models.TickerSnapshot) error
	PutWindowChange(symbol string, window models.Window, change decimal.Decimal) error
	Get(symbol string) (models.TickerSnapshot, bool)
	Snapshot() models.PriceTable
	Symbols() []string
	IsKnown(symbol string) bool
	UpdatedCount() uint64
}

// NewInMemoryPriceStore creates a store whose key set is fixed to symbols.
// Entries stay absent until the first snapshot for that symbol is put.
func NewInMemoryPriceStore(symbols []string, logger *slog.Logger) PriceStore {
	known := make(map[string]struct{}, len(symbols))
	ordered := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if _, dup := known[symbol]; dup {
			continue
		}
		known[symbol] = struct{}{}
		ordered = append(ordered, symbol)
	}

	return &InMemoryPriceStore{
		symbols:      ordered,
		known:        known,
		currentTable: *models.EmptyPriceTable(),
		windows:      make(map[string]map[models.Window]decimal.Decimal),
		logger:       logger,
	}
}

// Update

// Put replaces the snapshot for its symbol. Window changes always come from
// the latest PutWindowChange values, not from snapshot.
func (ps *InMemoryPriceStore) Put(snapshot models.TickerSnapshot) error {
	if !ps.IsKnown(snapshot.Symbol) {
		return fmt.Errorf("symbol %q is not tracked", snapshot.Symbol)
	}

	ps.logger.Debug("Received update", "symbol", snapshot.Symbol, "price", snapshot.LastPrice, "change", snapshot.PercentChange24h)
	ps.mu.Lock()
	for _, w := range models.Windows {
		change, ok := ps.windows[snapshot.Symbol][w]
		snapshot = snapshot.WithWindowChange(w, decimal.NullDecimal{Decimal: change, Valid: ok})
	}
	ps.currentTable.Put(snapshot)
	ps.updates++
	ps.mu.Unlock()
	return nil
}

// PutWindowChange records the latest change for a window. A symbol without a
// snapshot keeps the value until its first Put.
func (ps *InMemoryPriceStore) PutWindowChange(symbol string, window models.Window, change decimal.Decimal) error {
	if !ps.IsKnown(symbol) {
		return fmt.Errorf("symbol %q is not tracked", symbol)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.windows[symbol] == nil {
		ps.windows[symbol] = make(map[models.Window]decimal.Decimal)
	}
	ps.windows[symbol][window] = change

	if current, ok := ps.currentTable.Get(symbol); ok {
		ps.currentTable.Put(current.WithWindowChange(window, decimal.NullDecimal{Decimal: change, Valid: true}))
		ps.updates++
	}
	return nil
}

// Read

func (ps *InMemoryPriceStore) Get(symbol string) (models.TickerSnapshot, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.currentTable.Get(symbol)
}

func (ps *InMemoryPriceStore) Snapshot() models.PriceTable {
	ps.mu.RLock()
	copiedTable := models.CopyPriceTable(&ps.currentTable)
	ps.mu.RUnlock()
	return copiedTable
}

func (ps *InMemoryPriceStore) Symbols() []string {
	symbols := make([]string, len(ps.symbols))
	copy(symbols, ps.symbols)
	return symbols
}

func (ps *InMemoryPriceStore) IsKnown(symbol string) bool {
	_, ok := ps.known[symbol]
	return ok
}

func (ps *InMemoryPriceStore) UpdatedCount() uint64 {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.updates
}
