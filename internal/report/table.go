// Package report renders hunt state for line-oriented output.
package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// TableOptions controls column layout.
type TableOptions struct {
	// Right lists right-aligned columns.
	Right map[int]bool
	// MaxWidth > 0 caps the line width by shrinking the Shrink column.
	MaxWidth int
	Shrink   int
}

// FormatTable lays rows out in space-separated columns sized to their widest
// cell. The last column is never padded.
func FormatTable(headers []string, rows [][]string, opts TableOptions) []string {
	cols := len(headers)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}
	fitWidths(widths, opts)

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, layoutRow(headers, widths, opts.Right))
	}
	for _, row := range rows {
		lines = append(lines, layoutRow(row, widths, opts.Right))
	}
	return lines
}

// fitWidths shrinks the chosen column so the full line fits MaxWidth, keeping
// at least room for an ellipsis.
func fitWidths(widths []int, opts TableOptions) {
	if opts.MaxWidth <= 0 || opts.Shrink < 0 || opts.Shrink >= len(widths) {
		return
	}
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	if over := total - opts.MaxWidth; over > 0 {
		widths[opts.Shrink] = max(widths[opts.Shrink]-over, runewidth.StringWidth(ellipsis))
	}
}

func layoutRow(row []string, widths []int, right map[int]bool) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = runewidth.Truncate(row[i], w, ellipsis)
		}
		pad := w - runewidth.StringWidth(cell)
		switch {
		case pad <= 0:
		case right[i]:
			cell = strings.Repeat(" ", pad) + cell
		case i < len(widths)-1:
			cell += strings.Repeat(" ", pad)
		}
		cells[i] = cell
	}
	return strings.Join(cells, " ")
}
