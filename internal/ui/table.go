package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A zero Width fits the widest cell.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders wallet and network listings.
type Table struct {
	Columns []Column
	Rows    []Row
	Marked  int // highlighted row (the default wallet or required network), -1 for none
}

// NewTable creates a new table.
func NewTable(cols ...Column) *Table {
	return &Table{Columns: cols, Marked: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, Row(cells))
}

// Mark highlights the most recently added row.
func (t *Table) Mark() {
	t.Marked = len(t.Rows) - 1
}

func (t *Table) widths() []int {
	out := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Width > 0 {
			out[i] = col.Width
			continue
		}
		w := len(col.Title)
		for _, r := range t.Rows {
			if i < len(r) && len(r[i]) > w {
				w = len(r[i])
			}
		}
		out[i] = w
	}
	return out
}

// Render returns the table as a string. Cells are padded by hand so styled
// text keeps exact column widths.
func (t *Table) Render() string {
	var sb strings.Builder

	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	markStyle := lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)

	pad := func(s string, width int) string {
		if len(s) >= width {
			return s[:width]
		}
		return s + strings.Repeat(" ", width-len(s))
	}
	widths := t.widths()

	var headers, divider []string
	for i, col := range t.Columns {
		headers = append(headers, StyleHeader.Render(pad(col.Title, widths[i])))
		divider = append(divider, StyleMeta.Render(strings.Repeat("-", widths[i])))
	}
	sb.WriteString("  " + strings.Join(headers, " ") + "\n")
	sb.WriteString("  " + strings.Join(divider, " ") + "\n")

	for i, row := range t.Rows {
		style, lead := cellStyle, "  "
		if i == t.Marked {
			style, lead = markStyle, markStyle.Render("*")+" "
		}
		cells := make([]string, len(t.Columns))
		for j := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cells[j] = style.Render(pad(val, widths[j]))
		}
		sb.WriteString(lead + strings.Join(cells, " ") + "\n")
	}
	return sb.String()
}

// KeyValueBlock renders key-value pairs in a bordered box. The border turns
// red when failed is set.
func KeyValueBlock(title string, pairs [][2]string, failed bool) string {
	var sb strings.Builder
	if title != "" {
		if failed {
			sb.WriteString(StyleError.Render(title))
		} else {
			sb.WriteString(StyleTitle.Render(title))
		}
		sb.WriteString("\n")
	}
	keyWidth := 0
	for _, p := range pairs {
		if len(p[0]) > keyWidth {
			keyWidth = len(p[0])
		}
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-*s", keyWidth+1, p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	body := strings.TrimSuffix(sb.String(), "\n")
	if failed {
		return StyleErrorBorder.Render(body)
	}
	return StyleBorder.Render(body)
}
