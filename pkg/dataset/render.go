package dataset

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// DefaultPreviewRows bounds how many rows Render emits by default.
const DefaultPreviewRows = 20

// Render formats the dataset as a plain-text table for human inspection.
// At most maxRows rows are shown (0 means DefaultPreviewRows); a footer
// reports the full row count.
func (d *Dataset) Render(maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	// StyleLight uppercases footers; the row count should read as written.
	tbl.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(d.Columns))
	for i, col := range d.Columns {
		header[i] = col
	}

	tbl.AppendHeader(header)

	shown := len(d.Rows)
	if shown > maxRows {
		shown = maxRows
	}

	for _, row := range d.Rows[:shown] {
		cells := make(table.Row, len(d.Columns))
		for i, col := range d.Columns {
			cells[i] = row.Value(col)
		}

		tbl.AppendRow(cells)
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%d rows total", len(d.Rows))})

	return tbl.Render()
}
