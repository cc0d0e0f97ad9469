// Package tui is a terminal roster browser. It keeps one sorter per view and
// drives it with keypresses the way a browser drives header clicks.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"babis/internal/domain/sortable"
)

const (
	minColumnWidth = 6
	maxColumnWidth = 28
)

// Model is the bubbletea model of one roster table.
type Model struct {
	title  string
	labels []string
	all    []sortable.Row
	table  *sortable.Table
	sorter *sortable.Sorter
	focus  int
	cursor int
	offset int
	width  int
	height int

	filterInput   textinput.Model
	filterFocused bool
	filterText    string
}

// New builds a model sorted by column col in direction dir.
// PRE: labels is non-empty
// POST: rows are sorted and inactive rows trail active ones
func New(title string, labels []string, rows []sortable.Row, col int, dir sortable.Direction) Model {
	ti := textinput.New()
	ti.Placeholder = "הקלד לסינון…"
	ti.Prompt = "סינון: "
	ti.PromptStyle = filterActiveStyle
	ti.CharLimit = 64

	if col < 0 || col >= len(labels) {
		col = 0
	}
	m := Model{
		title:       title,
		labels:      labels,
		all:         rows,
		focus:       col,
		height:      24,
		width:       100,
		filterInput: ti,
	}
	m.rebuild(col, dir)
	return m
}

// rebuild re-creates the table from the filtered rows and sorts it.
func (m *Model) rebuild(col int, dir sortable.Direction) {
	filter := strings.ToLower(strings.TrimSpace(m.filterText))
	var rows []sortable.Row
	for _, r := range m.all {
		if filter == "" || matches(r, filter) {
			rows = append(rows, r)
		}
	}
	m.table = &sortable.Table{
		Headers: sortable.NewHeaders(sortable.DefaultHeaderClass, m.labels...),
		Rows:    rows,
	}
	m.sorter = sortable.New(m.table, sortable.Options{SortBy: col, SortOrder: dir})
	if m.cursor >= len(rows) {
		m.cursor = max(0, len(rows)-1)
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

func matches(r sortable.Row, filter string) bool {
	for _, c := range r.Cells {
		if strings.Contains(strings.ToLower(c.Text), filter) {
			return true
		}
	}
	return false
}

// State returns the active sort column and direction.
func (m Model) State() (int, sortable.Direction) {
	return m.sorter.State()
}

// Focus returns the focused header index.
func (m Model) Focus() int {
	return m.focus
}

// RowIDs returns the displayed row IDs in order.
func (m Model) RowIDs() []string {
	ids := make([]string, len(m.table.Rows))
	for i, r := range m.table.Rows {
		ids[i] = r.ID
	}
	return ids
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filterFocused {
			return m.updateFilter(msg)
		}

		visible := m.visibleRows()
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "left", "h":
			if m.focus > 0 {
				m.focus--
			}
		case "right", "l":
			if m.focus < len(m.labels)-1 {
				m.focus++
			}
		case "enter", " ":
			m.sorter.Click(m.focus)
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			col := int(msg.Runes[0] - '1')
			if m.sorter.Click(col) {
				m.focus = col
			}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.table.Rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+visible {
					m.offset = m.cursor - visible + 1
				}
			}
		case "/":
			m.filterFocused = true
			m.filterInput.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterFocused = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.filterText = ""
	case "enter":
		m.filterFocused = false
		m.filterInput.Blur()
		return m, nil
	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.filterText = m.filterInput.Value()
		col, dir := m.sorter.State()
		m.rebuild(col, dir)
		return m, cmd
	}
	col, dir := m.sorter.State()
	m.rebuild(col, dir)
	return m, nil
}

func (m Model) visibleRows() int {
	// title + filter + header + separator + footer
	return max(1, m.height-7)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", m.title, len(m.table.Rows))) + "\n")

	switch {
	case m.filterFocused:
		b.WriteString(m.filterInput.View() + "\n")
	case m.filterText != "":
		b.WriteString(filterInactiveStyle.Render("  סינון: "+m.filterText) + "\n")
	default:
		b.WriteString("\n")
	}

	widths := m.columnWidths()
	var headerCells []string
	for i, h := range m.table.Headers {
		label := h.Label
		if h.Indicator != nil && h.Indicator.Visible {
			if h.HasClass(sortable.ClassSortDesc) {
				label += " ▼"
			} else {
				label += " ▲"
			}
		}
		style := headerStyle
		if i == m.focus {
			style = headerFocusStyle
		}
		headerCells = append(headerCells, style.Width(widths[i]).Render(label))
	}
	b.WriteString("  " + strings.Join(headerCells, "") + "\n")

	total := 0
	for _, w := range widths {
		total += w
	}
	b.WriteString("  " + lipgloss.NewStyle().Foreground(subtle).Render(strings.Repeat("─", total)) + "\n")

	if len(m.table.Rows) == 0 {
		b.WriteString(emptyStyle.Render("אין רשומות") + "\n")
	} else {
		end := min(m.offset+m.visibleRows(), len(m.table.Rows))
		for i := m.offset; i < end; i++ {
			b.WriteString(m.renderRow(m.table.Rows[i], widths, i == m.cursor) + "\n")
		}
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) columnWidths() []int {
	widths := make([]int, len(m.labels))
	for i, l := range m.labels {
		widths[i] = max(minColumnWidth, lipgloss.Width(l)+5)
	}
	for _, r := range m.table.Rows {
		for i := range widths {
			widths[i] = max(widths[i], min(maxColumnWidth, lipgloss.Width(r.Cell(i).Text)+2))
		}
	}
	return widths
}

func (m Model) renderRow(r sortable.Row, widths []int, selected bool) string {
	var cells []string
	for i, w := range widths {
		style := cellStyle
		switch {
		case selected:
			style = selectedStyle
		case r.Inactive:
			style = inactiveStyle
		}
		cells = append(cells, style.Width(w).Render(truncate(r.Cell(i).Text, w-2)))
	}
	prefix := "  "
	if selected {
		prefix = cursorStyle.Render("▸ ")
	}
	return prefix + strings.Join(cells, "")
}

// truncate shortens s to n display columns.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if lipgloss.Width(s) <= n || n < 2 {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > n-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func (m Model) renderFooter() string {
	shortcuts := []struct{ key, desc string }{
		{"←/→", "עמודה"}, {"enter", "מיון"}, {"1-9", "מיון לפי עמודה"},
		{"↑/↓", "שורה"}, {"/", "סינון"}, {"q", "יציאה"},
	}
	var parts []string
	for _, s := range shortcuts {
		parts = append(parts, footerKeyStyle.Render(s.key)+" "+footerDescStyle.Render(s.desc))
	}
	return footerStyle.Render(strings.Join(parts, "  "))
}

// Run starts the browser full-screen and blocks until the user quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
