package display

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

var header = []string{"#", "Pair", "Price", "24h Change", "5m Change", "1m Change", "Updated"}

// Frame is everything drawn around the rows
type Frame struct {
	Title      string
	RenderedAt time.Time
	Interval   time.Duration
	Sort       string
	Updates    uint64
}

// RenderTable writes one complete board. The output depends only on its
// arguments, so identical input produces identical bytes.
func RenderTable(w io.Writer, rows []Row, frame Frame, palette *Palette) error {
	if _, err := fmt.Fprintf(w, "%s  %s\n", palette.Title(frame.Title), frame.RenderedAt.Format("2006-01-02 15:04:05")); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	for _, row := range rows {
		table.Append([]string{
			row.Rank,
			row.Pair,
			palette.Paint(row.Tone, row.Price),
			palette.Paint(row.Tone, row.Change),
			palette.Paint(row.Tone5m, row.Change5m),
			palette.Paint(row.Tone1m, row.Change1m),
			row.Updated,
		})
	}
	table.Render()

	_, err := fmt.Fprintf(w, "refresh %s | sort %s | updates %d | Ctrl+C to quit\n", frame.Interval, frame.Sort, frame.Updates)
	return err
}
