package display

import (
	"fmt"
	"slices"
	"strings"
	"ticker-board/config"
	"ticker-board/models"

	"github.com/shopspring/decimal"
)

// Placeholder fills every value cell of a symbol that has no data yet
const Placeholder = "—"

var (
	thousand = decimal.NewFromInt(1000)
	one      = decimal.NewFromInt(1)
)

type Row struct {
	Rank     string
	Symbol   string
	Pair     string
	Price    string
	Change   string
	Change5m string
	Change1m string
	Updated  string
	Tone     Tone
	Tone5m   Tone
	Tone1m   Tone
}

// BuildRows returns one row per symbol. Symbols missing from table become
// placeholder rows. With config.SortByPrice rows are ordered by last price,
// highest first, and placeholders go last. names maps symbols to the name
// shown in the Pair column.
func BuildRows(table models.PriceTable, symbols []string, sortMode string, names map[string]string) []Row {
	type entry struct {
		symbol   string
		snapshot models.TickerSnapshot
		ok       bool
	}

	entries := make([]entry, 0, len(symbols))
	for _, symbol := range symbols {
		snapshot, ok := table.Get(symbol)
		entries = append(entries, entry{symbol: symbol, snapshot: snapshot, ok: ok})
	}

	if sortMode == config.SortByPrice {
		slices.SortStableFunc(entries, func(a, b entry) int {
			switch {
			case a.ok && !b.ok:
				return -1
			case !a.ok && b.ok:
				return 1
			case !a.ok && !b.ok:
				return 0
			}
			return b.snapshot.LastPrice.Cmp(a.snapshot.LastPrice)
		})
	}

	rows := make([]Row, 0, len(entries))
	for i, e := range entries {
		rank := fmt.Sprintf("#%d", i+1)
		if !e.ok {
			rows = append(rows, Row{
				Rank:     rank,
				Symbol:   e.symbol,
				Pair:     PairLabel(e.symbol, names[e.symbol]),
				Price:    Placeholder,
				Change:   Placeholder,
				Change5m: Placeholder,
				Change1m: Placeholder,
				Updated:  Placeholder,
				Tone:     ToneNeutral,
				Tone5m:   ToneNeutral,
				Tone1m:   ToneNeutral,
			})
			continue
		}

		change5m, tone5m := windowCell(e.snapshot.Change5m)
		change1m, tone1m := windowCell(e.snapshot.Change1m)
		rows = append(rows, Row{
			Rank:     rank,
			Symbol:   e.symbol,
			Pair:     PairLabel(e.symbol, names[e.symbol]),
			Price:    FormatPrice(e.snapshot.LastPrice),
			Change:   FormatChange(e.snapshot.PercentChange24h),
			Change5m: change5m,
			Change1m: change1m,
			Updated:  e.snapshot.UpdatedAt.Local().Format("15:04:05"),
			Tone:     toneOf(e.snapshot),
			Tone5m:   tone5m,
			Tone1m:   tone1m,
		})
	}

	return rows
}

func toneOf(snapshot models.TickerSnapshot) Tone {
	if snapshot.Direction() == models.Down {
		return ToneDown
	}
	return ToneUp
}

func windowCell(change decimal.NullDecimal) (string, Tone) {
	if !change.Valid {
		return Placeholder, ToneNeutral
	}
	if change.Decimal.IsNegative() {
		return FormatChange(change.Decimal), ToneDown
	}
	return FormatChange(change.Decimal), ToneUp
}

// PairLabel renders "Bitcoin (BTC)" for a named USDT pair and the bare
// symbol when no name is configured.
func PairLabel(symbol, name string) string {
	if name == "" {
		return symbol
	}
	base := strings.TrimSuffix(symbol, "USDT")
	if base == "" {
		base = symbol
	}
	return fmt.Sprintf("%s (%s)", name, base)
}

// FormatPrice picks the precision from the magnitude of price
func FormatPrice(price decimal.Decimal) string {
	abs := price.Abs()
	switch {
	case abs.GreaterThanOrEqual(thousand):
		return price.StringFixed(2)
	case abs.GreaterThanOrEqual(one):
		return price.StringFixed(4)
	default:
		return price.StringFixed(8)
	}
}

// FormatChange renders a percent change with an explicit sign, e.g. +2.35%
func FormatChange(change decimal.Decimal) string {
	if change.IsNegative() {
		return "-" + change.Abs().StringFixed(2) + "%"
	}
	return "+" + change.StringFixed(2) + "%"
}
