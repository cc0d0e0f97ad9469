package orchestrators

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"babis/internal/adapters/spreadsheet"
	clientStore "babis/internal/adapters/storage/client"
	instructorStore "babis/internal/adapters/storage/instructor"
	"babis/internal/application/projections"
	"babis/internal/domain/client"
	"babis/internal/domain/instructor"
	"babis/internal/domain/roster"
)

// InstructorLister lists instructors for import matching.
type InstructorLister interface {
	InstructorStore
	List(ctx context.Context, filter instructorStore.ListFilter) ([]instructor.Instructor, error)
}

// ClientLister lists clients for import matching.
type ClientLister interface {
	ClientStore
	List(ctx context.Context, filter clientStore.ListFilter) ([]client.Client, error)
}

// ImportRosterInput carries the workbook and import options.
// PRE: Reader yields an xlsx workbook whose first row holds the table's column labels
// POST: Returns aggregate counts and per-row errors; writes are skipped when DryRun=true
// INVARIANT: Existing entries are never deleted; IDs are preserved on update
type ImportRosterInput struct {
	Table  string
	Reader io.Reader
	DryRun bool
}

// ImportRosterResult holds aggregate counts and per-row errors from an import run.
type ImportRosterResult struct {
	Total   int
	Created int
	Updated int
	Errors  []ImportRowError
	DryRun  bool
	Unknown []string
}

// ImportRowError describes a validation or processing error for a single sheet row.
type ImportRowError struct {
	Row     int
	Message string
}

// ImportRosterDeps holds external dependencies for the import orchestrator.
type ImportRosterDeps struct {
	InstructorStore InstructorLister
	ClientStore     ClientLister
	GenerateID      func() string
	Now             func() time.Time
}

// ImportValidationError is returned when the sheet structure is invalid.
type ImportValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ImportValidationError) Error() string {
	return e.Message
}

// ExecuteImportRoster reads a roster workbook and creates or updates entries,
// matching existing ones by their first column (name or organization).
// A row is inactive when its status column reads "לא פעיל" or the row is struck through.
// PRE: Table is one of projections.Tables()
// POST: Entries created/updated per row unless DryRun; aggregate counts returned
func ExecuteImportRoster(ctx context.Context, input ImportRosterInput, deps ImportRosterDeps) (ImportRosterResult, error) {
	columns, err := projections.Columns(input.Table)
	if err != nil {
		return ImportRosterResult{}, err
	}

	sheet, err := spreadsheet.Read(input.Reader)
	if err != nil {
		return ImportRosterResult{}, err
	}

	keyCol := columns[0]
	if sheet.Index(keyCol) < 0 && !(input.Table == projections.TableInstitutionalClients && sheet.Index(client.FieldOrgAlias) >= 0) {
		return ImportRosterResult{}, &ImportValidationError{Message: "sheet missing required column: " + keyCol}
	}

	known := map[string]bool{instructor.FieldStatus: true, client.FieldOrgAlias: true}
	for _, c := range columns {
		known[c] = true
	}
	result := ImportRosterResult{DryRun: input.DryRun}
	for _, h := range sheet.Headers {
		if !known[h] {
			result.Unknown = append(result.Unknown, h)
		}
	}

	imp, err := newImporter(ctx, input.Table, deps)
	if err != nil {
		return ImportRosterResult{}, err
	}

	for i, row := range sheet.Rows {
		rowNum := i + 2
		result.Total++

		rec := sheet.Record(i)
		if row.Struck {
			rec[instructor.FieldStatus] = roster.StatusInactive
		}

		created, err := imp.apply(ctx, rec, input.DryRun)
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	slog.Info("roster_import",
		"table", input.Table,
		"dry_run", input.DryRun,
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"errors", len(result.Errors),
	)
	return result, nil
}

// importer applies one sheet record to a roster table.
type importer struct {
	apply func(ctx context.Context, rec map[string]string, dryRun bool) (created bool, err error)
}

// overlay returns the stored fields with the sheet's values on top, so
// columns the sheet lacks keep their stored value.
func overlay(stored, rec map[string]string) map[string]string {
	for k, v := range rec {
		stored[k] = v
	}
	return stored
}

func matchKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func newImporter(ctx context.Context, table string, deps ImportRosterDeps) (*importer, error) {
	if table == projections.TableInstructors {
		existing, err := deps.InstructorStore.List(ctx, instructorStore.ListFilter{})
		if err != nil {
			return nil, fmt.Errorf("list instructors: %w", err)
		}
		byName := make(map[string]instructor.Instructor, len(existing))
		for _, in := range existing {
			byName[matchKey(in.Name)] = in
		}
		return &importer{apply: func(ctx context.Context, rec map[string]string, dryRun bool) (bool, error) {
			in, ok := byName[matchKey(rec[instructor.FieldName])]
			if ok {
				rec = overlay(in.Fields(), rec)
			} else {
				in = instructor.Instructor{ID: generateID(deps.GenerateID), CreatedAt: now(deps.Now)}
			}
			in.Apply(rec)
			if err := in.Validate(); err != nil {
				return false, err
			}
			if !dryRun {
				if err := deps.InstructorStore.Save(ctx, in); err != nil {
					slog.Error("roster_import_save_failed", "table", table, "err", err)
					return false, fmt.Errorf("save failed (see server log)")
				}
			}
			byName[matchKey(in.Name)] = in
			return !ok, nil
		}}, nil
	}

	kind := client.KindPrivate
	if table == projections.TableInstitutionalClients {
		kind = client.KindInstitutional
	}
	existing, err := deps.ClientStore.List(ctx, clientStore.ListFilter{Kind: kind})
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	byName := make(map[string]client.Client, len(existing))
	for _, c := range existing {
		byName[matchKey(c.Name)] = c
	}
	return &importer{apply: func(ctx context.Context, rec map[string]string, dryRun bool) (bool, error) {
		probe := client.Client{Kind: kind}
		probe.Apply(rec)
		c, ok := byName[matchKey(probe.Name)]
		if ok {
			rec = overlay(c.Fields(), rec)
		} else {
			c = client.Client{ID: generateID(deps.GenerateID), Kind: kind, CreatedAt: now(deps.Now)}
		}
		c.Apply(rec)
		if err := c.Validate(); err != nil {
			return false, err
		}
		if !dryRun {
			if err := deps.ClientStore.Save(ctx, c); err != nil {
				slog.Error("roster_import_save_failed", "table", table, "err", err)
				return false, fmt.Errorf("save failed (see server log)")
			}
		}
		byName[matchKey(c.Name)] = c
		return !ok, nil
	}}, nil
}
