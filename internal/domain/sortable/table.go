package sortable

import "slices"

// Direction is a sort direction. The zero value means "unspecified".
type Direction string

// Direction values, also used as the `dir` query value.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Header marker classes.
const (
	DefaultHeaderClass = "sortable"
	ClassSortAsc       = "sort-asc"
	ClassSortDesc      = "sort-desc"
)

// ParseDirection returns the Direction for "asc" or "desc", or "" for anything else.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case Ascending, Descending:
		return Direction(s)
	}
	return ""
}

// Flip returns the opposite direction. Unspecified flips to Ascending.
func (d Direction) Flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// Class returns the header class that marks the active direction.
func (d Direction) Class() string {
	if d == Descending {
		return ClassSortDesc
	}
	return ClassSortAsc
}

// Cell is a single table cell.
type Cell struct {
	Text string
}

// Indicator is the direction marker appended to a sortable header.
type Indicator struct {
	Visible bool
}

// Header is a column header cell.
type Header struct {
	Label     string
	Classes   []string
	Indicator *Indicator
}

// HasClass reports whether the header carries class c.
func (h *Header) HasClass(c string) bool {
	return slices.Contains(h.Classes, c)
}

// AddClass adds class c if it is not already present.
func (h *Header) AddClass(c string) {
	if !h.HasClass(c) {
		h.Classes = append(h.Classes, c)
	}
}

// RemoveClass removes every occurrence of class c.
func (h *Header) RemoveClass(c string) {
	h.Classes = slices.DeleteFunc(h.Classes, func(x string) bool { return x == c })
}

// Row is one body row. Inactive rows always sort after active rows.
type Row struct {
	ID       string
	Cells    []Cell
	Inactive bool
}

// Cell returns the cell at column i, or an empty cell when the row is short.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[i]
}

// Table is an ordered set of headers and body rows.
type Table struct {
	Headers []Header
	Rows    []Row
}

// NewRow builds a row from plain cell texts.
func NewRow(id string, inactive bool, texts ...string) Row {
	cells := make([]Cell, len(texts))
	for i, t := range texts {
		cells[i] = Cell{Text: t}
	}
	return Row{ID: id, Cells: cells, Inactive: inactive}
}

// NewHeaders builds headers from labels, marking each one with class when class is non-empty.
func NewHeaders(class string, labels ...string) []Header {
	headers := make([]Header, len(labels))
	for i, l := range labels {
		headers[i] = Header{Label: l}
		if class != "" {
			headers[i].Classes = []string{class}
		}
	}
	return headers
}
