package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign class of a 24h percent change
type Direction int

const (
	Up Direction = iota
	Down
)

// Window is a short change window fed by kline data
type Window string

const (
	Window1m Window = "1m"
	Window5m Window = "5m"
)

// Windows lists the supported windows, shortest first
var Windows = []Window{Window1m, Window5m}

func ParseWindow(interval string) (Window, bool) {
	for _, w := range Windows {
		if string(w) == interval {
			return w, true
		}
	}
	return "", false
}

// TickerSnapshot is the latest known state for one symbol
type TickerSnapshot struct {
	Symbol           string          `json:"symbol"`
	LastPrice        decimal.Decimal `json:"lastPrice"`
	PercentChange24h decimal.Decimal `json:"percentChange24h"`
	UpdatedAt        time.Time       `json:"updatedAt"`

	// Unset until kline data for the window has been seen
	Change1m decimal.NullDecimal `json:"change1m"`
	Change5m decimal.NullDecimal `json:"change5m"`
}

// NewTickerSnapshot creates a TickerSnapshot, stamping it with the current UTC time when updatedAt is zero
func NewTickerSnapshot(symbol string, lastPrice, percentChange decimal.Decimal, updatedAt time.Time) TickerSnapshot {
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return TickerSnapshot{
		Symbol:           symbol,
		LastPrice:        lastPrice,
		PercentChange24h: percentChange,
		UpdatedAt:        updatedAt,
	}
}

// WindowChange returns the change for w
func (ts TickerSnapshot) WindowChange(w Window) decimal.NullDecimal {
	if w == Window5m {
		return ts.Change5m
	}
	return ts.Change1m
}

// WithWindowChange returns a copy of ts with the change for w replaced
func (ts TickerSnapshot) WithWindowChange(w Window, change decimal.NullDecimal) TickerSnapshot {
	switch w {
	case Window1m:
		ts.Change1m = change
	case Window5m:
		ts.Change5m = change
	}
	return ts
}

// ChangePercent is the move from open to close in percent
func ChangePercent(openPrice, closePrice decimal.Decimal) (decimal.Decimal, bool) {
	if !openPrice.IsPositive() {
		return decimal.Decimal{}, false
	}
	return closePrice.Sub(openPrice).Div(openPrice).Mul(decimal.NewFromInt(100)), true
}

// Direction classifies the 24h change, zero counts as Up
func (ts TickerSnapshot) Direction() Direction {
	if ts.PercentChange24h.IsNegative() {
		return Down
	}
	return Up
}

// PriceTable wrapper for the latest snapshot of each symbol
type PriceTable struct {
	data map[string]TickerSnapshot
}

// EmptyPriceTable returns a new empty table
func EmptyPriceTable() *PriceTable {
	return &PriceTable{
		data: make(map[string]TickerSnapshot),
	}
}

// CopyPriceTable returns a copy of table
func CopyPriceTable(table *PriceTable) PriceTable {
	data := make(map[string]TickerSnapshot, len(table.data))
	for k, v := range table.data {
		data[k] = v
	}
	return PriceTable{
		data: data,
	}
}

func (p *PriceTable) Get(symbol string) (TickerSnapshot, bool) {
	snapshot, ok := p.data[symbol]
	return snapshot, ok
}

// Put replaces the whole snapshot for its symbol
func (p *PriceTable) Put(snapshot TickerSnapshot) {
	if p.data == nil {
		p.data = make(map[string]TickerSnapshot)
	}
	p.data[snapshot.Symbol] = snapshot
}

func (p *PriceTable) Len() int {
	return len(p.data)
}

func (p *PriceTable) GetRawData() map[string]TickerSnapshot {
	return p.data
}
