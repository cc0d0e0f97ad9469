package orchestrators

import (
	"context"
	"io"
	"log/slog"

	"babis/internal/adapters/spreadsheet"
	"babis/internal/application/listutil"
	"babis/internal/application/projections"
	"babis/internal/domain/instructor"
	"babis/internal/domain/roster"
)

// ExportRosterInput selects the table and the order to export it in.
type ExportRosterInput struct {
	Table  string
	Sort   listutil.SortParams
	Search string
	Writer io.Writer
}

// ExportRosterDeps holds dependencies for the export orchestrator.
type ExportRosterDeps struct {
	Roster projections.RosterDeps
}

// ExecuteExportRoster writes a roster table as an xlsx workbook in the same
// order the table page shows it, with a trailing status column.
// PRE: Table is one of projections.Tables(); Writer is non-nil
// POST: Workbook written; returns the number of data rows
// INVARIANT: Inactive rows are last and struck through
func ExecuteExportRoster(ctx context.Context, input ExportRosterInput, deps ExportRosterDeps) (int, error) {
	t, err := projections.QueryRosterTable(ctx, input.Table, projections.RosterQuery{
		Sort:   input.Sort,
		Search: input.Search,
	}, deps.Roster)
	if err != nil {
		return 0, err
	}

	sheet := spreadsheet.Sheet{Name: t.Title}
	for _, h := range t.Headers {
		sheet.Headers = append(sheet.Headers, h.Label)
	}
	sheet.Headers = append(sheet.Headers, instructor.FieldStatus)

	for _, r := range t.Rows {
		cells := append(append([]string(nil), r.Cells...), roster.StatusText(!r.Inactive))
		sheet.Rows = append(sheet.Rows, spreadsheet.Row{Cells: cells, Struck: r.Inactive})
	}

	if err := spreadsheet.Write(input.Writer, sheet); err != nil {
		return 0, err
	}
	slog.Info("roster_export", "table", input.Table, "rows", len(sheet.Rows), "sort", t.Column, "dir", t.Dir)
	return len(sheet.Rows), nil
}
