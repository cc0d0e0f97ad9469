package web

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	instructorStore "babis/internal/adapters/storage/instructor"
	"babis/internal/application/listutil"
	"babis/internal/application/orchestrators"
	"babis/internal/application/projections"
)

// entryJSON is the API representation of a roster entry.
type entryJSON struct {
	ID        string            `json:"id"`
	Active    bool              `json:"active"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
}

// handleAPIListInstructors handles GET /api/instructors?q=&active=1
func handleAPIListInstructors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := stores.InstructorStore.List(r.Context(), instructorStore.ListFilter{
		Search:     listutil.ParseSearch(q).Search,
		ActiveOnly: q.Get("active") == "1",
	})
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]entryJSON, 0, len(list))
	for _, in := range list {
		out = append(out, entryJSON{ID: in.ID, Active: in.Active, Data: in.Fields(), CreatedAt: in.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAPIAddInstructor handles POST /api/instructors with a flat field object.
func handleAPIAddInstructor(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := strictDecode(r, &fields); err != nil {
		writeJSON(w, http.StatusBadRequest, mutationResponse{Error: "invalid request"})
		return
	}
	id, err := orchestrators.ExecuteAddInstructor(r.Context(), orchestrators.AddInstructorInput{Fields: fields}, instructorDeps())
	if err != nil {
		mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mutationResponse{Success: true, ID: id})
}

// handleAPIGetClient handles GET /api/clients/{id}
func handleAPIGetClient(w http.ResponseWriter, r *http.Request) {
	c, err := stores.ClientStore.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "client not found"})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		entryJSON
		Kind string `json:"kind"`
	}{entryJSON{ID: c.ID, Active: c.Active, Data: c.Fields(), CreatedAt: c.CreatedAt}, c.Kind})
}

// handleAPIUpdateClient handles PUT /api/clients/{id} with a flat field object.
// The client keeps its kind.
func handleAPIUpdateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var fields map[string]string
	if err := strictDecode(r, &fields); err != nil {
		writeJSON(w, http.StatusBadRequest, mutationResponse{Error: "invalid request"})
		return
	}
	c, err := stores.ClientStore.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, mutationResponse{Error: "client not found"})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	err = orchestrators.ExecuteUpdateClient(ctx, orchestrators.UpdateClientInput{Kind: c.Kind, ID: id, Fields: fields}, clientDeps())
	if err != nil {
		mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, ID: id})
}

// handleExport handles GET /export/{table}.xlsx, keeping the sort and search
// of the page the link came from.
func handleExport(w http.ResponseWriter, r *http.Request) {
	table, ok := strings.CutSuffix(r.PathValue("file"), ".xlsx")
	if !ok {
		http.NotFound(w, r)
		return
	}
	columns, err := projections.Columns(table)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	var buf bytes.Buffer
	n, err := orchestrators.ExecuteExportRoster(r.Context(), orchestrators.ExportRosterInput{
		Table:  table,
		Sort:   listutil.ParseSortParams(q, len(columns)),
		Search: listutil.ParseSearch(q).Search,
		Writer: &buf,
	}, orchestrators.ExportRosterDeps{Roster: rosterDeps()})
	if err != nil {
		internalError(w, err)
		return
	}

	slog.Info("roster_event", "event", "exported", "table", table, "rows", n)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+table+`.xlsx"`)
	buf.WriteTo(w)
}
