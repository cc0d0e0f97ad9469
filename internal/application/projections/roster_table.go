package projections

import (
	"context"
	"fmt"
	"strings"

	"babis/internal/adapters/storage/client"
	"babis/internal/adapters/storage/instructor"
	"babis/internal/application/listutil"
	domainClient "babis/internal/domain/client"
	domainInstructor "babis/internal/domain/instructor"
	"babis/internal/domain/sortable"
)

// Roster table names, used in URLs and on the command line.
const (
	TableInstructors          = "instructors"
	TablePrivateClients       = "private"
	TableInstitutionalClients = "institutional"
)

// Tables lists every roster table in navigation order.
func Tables() []string {
	return []string{TableInstructors, TablePrivateClients, TableInstitutionalClients}
}

// Titles maps table names to their display titles.
var Titles = map[string]string{
	TableInstructors:          "מדריכים",
	TablePrivateClients:       "לקוחות פרטיים",
	TableInstitutionalClients: "לקוחות מוסדיים",
}

// Columns returns the column labels of a roster table.
func Columns(table string) ([]string, error) {
	switch table {
	case TableInstructors:
		return domainInstructor.Columns, nil
	case TablePrivateClients:
		return domainClient.Columns(domainClient.KindPrivate), nil
	case TableInstitutionalClients:
		return domainClient.Columns(domainClient.KindInstitutional), nil
	}
	return nil, fmt.Errorf("unknown table %q", table)
}

// RosterQuery carries query parameters.
type RosterQuery struct {
	Sort   listutil.SortParams
	Search string
	Page   listutil.PageParams // zero PerPage returns every row
}

// HeaderView describes one column header after sorting.
type HeaderView struct {
	Index    int
	Label    string
	Sortable bool
	Active   bool
	Dir      sortable.Direction // set on the active header only
	Next     sortable.Direction // direction a click on this header selects
	Classes  string
}

// RowView is one sorted roster row.
type RowView struct {
	ID       string
	Cells    []string
	Inactive bool
	Fields   map[string]string
}

// RosterTable carries the query result.
type RosterTable struct {
	Name     string
	Title    string
	Headers  []HeaderView
	Rows     []RowView
	Column   int
	Dir      sortable.Direction
	Page     listutil.PageInfo
	Inactive int
}

// RosterDeps holds dependencies for the roster queries.
type RosterDeps struct {
	InstructorStore InstructorStore
	ClientStore     ClientStore
}

// QueryRosterTable dispatches to the query for the named table.
// PRE: table is one of Tables()
// POST: Returns the sorted table or an error for unknown tables
func QueryRosterTable(ctx context.Context, table string, query RosterQuery, deps RosterDeps) (RosterTable, error) {
	switch table {
	case TableInstructors:
		return QueryInstructorTable(ctx, query, deps)
	case TablePrivateClients:
		return QueryClientTable(ctx, domainClient.KindPrivate, query, deps)
	case TableInstitutionalClients:
		return QueryClientTable(ctx, domainClient.KindInstitutional, query, deps)
	}
	return RosterTable{}, fmt.Errorf("unknown table %q", table)
}

// QueryInstructorTable loads instructors and sorts them by the requested column.
// PRE: query.Sort.Column is a valid column index
// POST: Active instructors are ordered by the column; inactive ones follow
func QueryInstructorTable(ctx context.Context, query RosterQuery, deps RosterDeps) (RosterTable, error) {
	list, err := deps.InstructorStore.List(ctx, instructor.ListFilter{Search: query.Search})
	if err != nil {
		return RosterTable{}, fmt.Errorf("list instructors: %w", err)
	}

	rows := make([]sortable.Row, 0, len(list))
	fields := make(map[string]map[string]string, len(list))
	for _, in := range list {
		rows = append(rows, sortable.NewRow(in.ID, !in.Active, in.Cells()...))
		fields[in.ID] = in.Fields()
	}
	return buildTable(TableInstructors, domainInstructor.Columns, rows, fields, query), nil
}

// QueryClientTable loads one client table and sorts it by the requested column.
// PRE: kind is a valid client kind
// POST: Active clients are ordered by the column; inactive ones follow
func QueryClientTable(ctx context.Context, kind string, query RosterQuery, deps RosterDeps) (RosterTable, error) {
	if !domainClient.ValidKind(kind) {
		return RosterTable{}, domainClient.ErrInvalidKind
	}
	list, err := deps.ClientStore.List(ctx, client.ListFilter{Kind: kind, Search: query.Search})
	if err != nil {
		return RosterTable{}, fmt.Errorf("list %s clients: %w", kind, err)
	}

	rows := make([]sortable.Row, 0, len(list))
	fields := make(map[string]map[string]string, len(list))
	for _, c := range list {
		rows = append(rows, sortable.NewRow(c.ID, !c.Active, c.Cells()...))
		fields[c.ID] = c.Fields()
	}
	name := TablePrivateClients
	if kind == domainClient.KindInstitutional {
		name = TableInstitutionalClients
	}
	return buildTable(name, domainClient.Columns(kind), rows, fields, query), nil
}

func buildTable(name string, columns []string, rows []sortable.Row, fields map[string]map[string]string, query RosterQuery) RosterTable {
	col := query.Sort.Column
	if col < 0 || col >= len(columns) {
		col = 0
	}
	t := &sortable.Table{
		Headers: sortable.NewHeaders(sortable.DefaultHeaderClass, columns...),
		Rows:    rows,
	}
	s := sortable.New(t, sortable.Options{SortBy: col, SortOrder: query.Sort.Dir})
	activeCol, dir := s.State()

	result := RosterTable{
		Name:   name,
		Title:  Titles[name],
		Column: activeCol,
		Dir:    dir,
	}
	for i, h := range t.Headers {
		hv := HeaderView{
			Index:    i,
			Label:    h.Label,
			Sortable: s.Sortable(i),
			Active:   i == activeCol,
			Next:     s.Next(i),
			Classes:  strings.Join(h.Classes, " "),
		}
		if hv.Active {
			hv.Dir = dir
		}
		result.Headers = append(result.Headers, hv)
	}

	for _, r := range t.Rows {
		if r.Inactive {
			result.Inactive++
		}
	}

	visible := t.Rows
	if query.Page.PerPage > 0 {
		result.Page = listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, len(t.Rows))
		start, end := result.Page.Window()
		visible = t.Rows[start:end]
	} else {
		result.Page = listutil.NewPageInfo(1, max(len(t.Rows), 1), len(t.Rows))
	}

	for _, r := range visible {
		cells := make([]string, len(columns))
		for i := range columns {
			cells[i] = r.Cell(i).Text
		}
		result.Rows = append(result.Rows, RowView{
			ID:       r.ID,
			Cells:    cells,
			Inactive: r.Inactive,
			Fields:   fields[r.ID],
		})
	}
	return result
}
