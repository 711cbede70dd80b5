package pod

import (
	"fmt"
	"io"
	"strings"
)

// FormatFunc is a callback to format/colorize cell values
type FormatFunc func(value string) string

// ColumnSpec defines a column's properties
type ColumnSpec struct {
	Header     string
	BlankValue string     // shown for empty cells, "-" by default
	FormatFunc FormatFunc // applied after width is measured
	MinWidth   int
}

// Table lays out rows under fixed headers. Cell width ignores ANSI color codes.
type Table struct {
	columns []ColumnSpec
	rows    [][]string
	widths  []int
}

func NewTable(cols ...ColumnSpec) *Table {
	t := &Table{
		columns: cols,
		widths:  make([]int, len(cols)),
	}

	for i := range t.columns {
		t.widths[i] = max(t.columns[i].MinWidth, len(t.columns[i].Header))
		if t.columns[i].BlankValue == "" {
			t.columns[i].BlankValue = "-"
		}
	}

	return t
}

// AddRow adds a row; missing or empty cells get the column's blank value
func (t *Table) AddRow(data ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(data) && data[i] != "" {
			row[i] = data[i]
		} else {
			row[i] = t.columns[i].BlankValue
		}
		t.widths[i] = max(t.widths[i], visibleLength(row[i]))
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the header, a rule and every row
func (t *Table) Render(w io.Writer) error {
	cells := make([]string, len(t.columns))

	for i, col := range t.columns {
		cells[i] = pad(col.Header, t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " ")); err != nil {
		return err
	}

	for i := range t.columns {
		cells[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.Join(cells, " ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		for i, val := range row {
			if f := t.columns[i].FormatFunc; f != nil {
				val = f(val)
			}
			cells[i] = pad(val, t.widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " ")); err != nil {
			return err
		}
	}

	return nil
}

func pad(s string, width int) string {
	if n := visibleLength(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// visibleLength counts runes outside ANSI escape sequences
func visibleLength(s string) int {
	length := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			length++
		}
	}
	return length
}
