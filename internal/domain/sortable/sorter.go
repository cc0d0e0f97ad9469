// Package sortable reorders table rows by column, keeping inactive rows pinned
// to the bottom regardless of column or direction.
package sortable

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CompareFunc overrides the default cell comparison. It receives both cells,
// the column index and the active direction; its sign is used as-is for both
// directions.
type CompareFunc func(a, b Cell, column int, dir Direction) int

// Options configures a Sorter.
type Options struct {
	SortBy      int       // initial column, default 0
	SortOrder   Direction // initial direction, default Ascending
	HeaderClass string    // marker for sortable headers, default "sortable"
	SortFunc    CompareFunc
}

// State is the remembered sort state of one table.
type State struct {
	Column    int
	Direction Direction
	last      map[int]Direction
}

// Sorter attaches sort behavior to a Table. A Sorter owns its state and is
// not safe for concurrent use.
type Sorter struct {
	table    *Table
	opts     Options
	state    State
	handlers map[int]func()
	collator *collate.Collator
}

var (
	nonNumeric   = regexp.MustCompile(`[^\d.\-]`)
	numberPrefix = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)`)
)

// New registers a click handler and an indicator on every header carrying the
// marker class, then sorts by the configured column and direction.
// PRE: t is non-nil
// POST: t.Rows is sorted by opts.SortBy in opts.SortOrder
func New(t *Table, opts Options) *Sorter {
	if opts.SortOrder == "" {
		opts.SortOrder = Ascending
	}
	if opts.HeaderClass == "" {
		opts.HeaderClass = DefaultHeaderClass
	}
	s := &Sorter{
		table:    t,
		opts:     opts,
		state:    State{Column: -1, last: make(map[int]Direction)},
		handlers: make(map[int]func()),
		collator: collate.New(language.Hebrew),
	}
	for i := range t.Headers {
		h := &t.Headers[i]
		if !h.HasClass(opts.HeaderClass) {
			continue
		}
		col := i
		s.handlers[col] = func() { s.Sort(col, "") }
		h.Indicator = &Indicator{}
	}
	s.Sort(opts.SortBy, opts.SortOrder)
	return s
}

// Table returns the table this sorter is attached to.
func (s *Sorter) Table() *Table {
	return s.table
}

// State returns the active column and direction.
func (s *Sorter) State() (int, Direction) {
	return s.state.Column, s.state.Direction
}

// Sortable reports whether column col has a click handler.
func (s *Sorter) Sortable(col int) bool {
	_, ok := s.handlers[col]
	return ok
}

// Click runs the click handler of column col. It reports false when the
// column is not sortable.
func (s *Sorter) Click(col int) bool {
	h, ok := s.handlers[col]
	if !ok {
		return false
	}
	h()
	return true
}

// Next returns the direction a click on column col would select.
func (s *Sorter) Next(col int) Direction {
	return s.pick(col, "")
}

func (s *Sorter) pick(col int, dir Direction) Direction {
	if dir != "" {
		return dir
	}
	if col == s.state.Column {
		return s.state.last[col].Flip()
	}
	return Ascending
}

// Sort reorders the table by column col. An empty dir toggles the direction
// when col is already active and selects Ascending otherwise.
// POST: active rows are ordered by col; inactive rows follow in their prior order
// INVARIANT: row count and cell contents are unchanged
func (s *Sorter) Sort(col int, dir Direction) {
	dir = s.pick(col, dir)
	s.state.Column = col
	s.state.Direction = dir
	s.state.last[col] = dir

	s.decorate(col, dir)

	active := make([]Row, 0, len(s.table.Rows))
	var inactive []Row
	for _, r := range s.table.Rows {
		if r.Inactive {
			inactive = append(inactive, r)
		} else {
			active = append(active, r)
		}
	}

	slices.SortStableFunc(active, func(a, b Row) int {
		return s.compare(a.Cell(col), b.Cell(col), col, dir)
	})

	s.table.Rows = append(active, inactive...)
}

func (s *Sorter) decorate(col int, dir Direction) {
	for i := range s.table.Headers {
		h := &s.table.Headers[i]
		if !h.HasClass(s.opts.HeaderClass) {
			continue
		}
		if h.Indicator != nil {
			h.Indicator.Visible = false
		}
		h.RemoveClass(ClassSortAsc)
		h.RemoveClass(ClassSortDesc)
		if i == col {
			h.AddClass(dir.Class())
			if h.Indicator != nil {
				h.Indicator.Visible = true
			}
		}
	}
}

func (s *Sorter) compare(a, b Cell, col int, dir Direction) int {
	if s.opts.SortFunc != nil {
		return s.opts.SortFunc(a, b, col, dir)
	}

	x := strings.TrimSpace(a.Text)
	y := strings.TrimSpace(b.Text)

	var c int
	xn, xok := parseNumber(x)
	yn, yok := parseNumber(y)
	if xok && yok {
		c = cmp.Compare(xn, yn)
	} else {
		c = s.collator.CompareString(x, y)
	}

	if dir == Descending {
		return -c
	}
	return c
}

// parseNumber reads the leading number of s after dropping every character
// other than digits, '.' and '-'.
func parseNumber(s string) (float64, bool) {
	m := numberPrefix.FindString(nonNumeric.ReplaceAllString(s, ""))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
