package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"babis/internal/application/listutil"
	"babis/internal/application/orchestrators"
	"babis/internal/application/projections"
	clientDomain "babis/internal/domain/client"
	"babis/internal/domain/instructor"
	"babis/internal/domain/roster"
)

const (
	tableInstructors   = projections.TableInstructors
	tablePrivate       = projections.TablePrivateClients
	tableInstitutional = projections.TableInstitutionalClients

	kindPrivate       = clientDomain.KindPrivate
	kindInstitutional = clientDomain.KindInstitutional
)

// tablePaths maps roster tables to their page paths.
var tablePaths = map[string]string{
	tableInstructors:   "/instructors",
	tablePrivate:       "/clients/private",
	tableInstitutional: "/clients/institutional",
}

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfToken":      func() string { return csrf.Token(r) },
		"renderMarkdown": renderMarkdown,
		"isNotes":        func(label string) bool { return label == instructor.FieldNotes },
		"add":            func(a, b int) int { return a + b },
		"json": func(v any) string {
			b, _ := json.Marshal(v)
			return string(b)
		},
		"navTables": projections.Tables,
		"tableTitle": func(t string) string { return projections.Titles[t] },
		"tablePath":  func(t string) string { return tablePaths[t] },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func rosterDeps() projections.RosterDeps {
	return projections.RosterDeps{
		InstructorStore: stores.InstructorStore,
		ClientStore:     stores.ClientStore,
	}
}

// dashboardEntry summarises one roster table on the dashboard.
type dashboardEntry struct {
	Table    string
	Title    string
	Path     string
	Total    int
	Inactive int
}

// handleDashboard handles GET /
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var entries []dashboardEntry
	for _, table := range projections.Tables() {
		t, err := projections.QueryRosterTable(ctx, table, projections.RosterQuery{}, rosterDeps())
		if err != nil {
			internalError(w, err)
			return
		}
		entries = append(entries, dashboardEntry{
			Table:    table,
			Title:    t.Title,
			Path:     tablePaths[table],
			Total:    t.Page.Total,
			Inactive: t.Inactive,
		})
	}

	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, entries)
		return
	}
	renderTemplate(w, r, "dashboard.html", map[string]any{
		"Title":   "לוח בקרה",
		"Entries": entries,
	})
}

// handleHealthz reports liveness and request/query counters.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	total, slow := requestStats.Snapshot()
	body := map[string]any{
		"status":        "ok",
		"requests":      total,
		"slow_requests": slow,
	}
	if queryStats != nil {
		qs := queryStats()
		body["queries"] = qs.Total
		body["slow_queries"] = qs.Slow
	}
	writeJSON(w, http.StatusOK, body)
}

// rosterPageView is the template data of a roster table page.
type rosterPageView struct {
	Title      string
	Table      projections.RosterTable
	Path       string
	HeaderURLs []string
	PageURLs   map[int]string
	Search     string
	FormFields []string
	StatusKey  string
	Inactive   string
	AddURL     string
	UpdateURL  string
}

// rosterPage returns the GET handler of one roster table. Sorting is
// stateless: the column and direction come from the sort and dir parameters
// and every header links to the direction its next click selects.
func rosterPage(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		columns, err := projections.Columns(table)
		if err != nil {
			internalError(w, err)
			return
		}

		q := r.URL.Query()
		lp := listutil.ParseListParams(q, len(columns))
		if defaultPerPage == 0 && q.Get("per_page") == "" {
			lp.PerPage = 0
		} else if q.Get("per_page") == "" {
			lp.PerPage = defaultPerPage
		}

		result, err := projections.QueryRosterTable(ctx, table, projections.RosterQuery{
			Sort:   lp.SortParams,
			Search: lp.Search,
			Page:   lp.PageParams,
		}, rosterDeps())
		if err != nil {
			internalError(w, err)
			return
		}

		if !isHTMLRequest(r) {
			writeJSON(w, http.StatusOK, result)
			return
		}

		path := tablePaths[table]
		view := rosterPageView{
			Title:      result.Title,
			Table:      result,
			Path:       path,
			HeaderURLs: make([]string, len(result.Headers)),
			PageURLs:   map[int]string{},
			Search:     lp.Search,
			FormFields: columns,
			StatusKey:  instructor.FieldStatus,
			Inactive:   roster.StatusInactive,
		}
		for i, h := range result.Headers {
			view.HeaderURLs[i] = path + "?" + lp.Query(h.Index, h.Next).Encode()
		}
		if result.Page.ShowPagination() {
			for _, n := range result.Page.PageNumbers() {
				pq := lp.Query(result.Column, result.Dir)
				pq.Set("page", strconv.Itoa(n))
				pq.Set("per_page", strconv.Itoa(result.Page.PerPage))
				view.PageURLs[n] = path + "?" + pq.Encode()
			}
		}
		switch table {
		case tableInstructors:
			view.AddURL, view.UpdateURL = "/add_instructor", "/update_instructor"
		case tablePrivate:
			view.AddURL, view.UpdateURL = "/add_private_client", "/update_private_client"
		case tableInstitutional:
			view.AddURL, view.UpdateURL = "/add_institutional_client", "/update_institutional_client"
		}
		renderTemplate(w, r, "roster.html", view)
	}
}

// mutationRequest is the body of the add/update endpoints.
type mutationRequest struct {
	ID   string            `json:"id,omitempty"`
	Data map[string]string `json:"data"`
}

// mutationResponse is the reply of the add/update endpoints.
type mutationResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	ID      string `json:"id,omitempty"`
}

// decodeMutation reads a mutation body, replying with 400 on failure.
func decodeMutation(w http.ResponseWriter, r *http.Request, needID bool) (mutationRequest, bool) {
	var req mutationRequest
	if err := strictDecode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, mutationResponse{Error: "invalid request"})
		return req, false
	}
	if req.Data == nil {
		writeJSON(w, http.StatusBadRequest, mutationResponse{Error: "no data received"})
		return req, false
	}
	if needID && req.ID == "" {
		writeJSON(w, http.StatusBadRequest, mutationResponse{Error: "missing id"})
		return req, false
	}
	return req, true
}

// mutationError maps orchestrator errors onto status codes. Validation
// messages are safe to show; anything else is logged and hidden.
func mutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrators.ErrNotFound):
		writeJSON(w, http.StatusNotFound, mutationResponse{Error: "not found"})
	case errors.Is(err, roster.ErrNameRequired),
		errors.Is(err, roster.ErrNameTooLong),
		errors.Is(err, roster.ErrInvalidEmail),
		errors.Is(err, clientDomain.ErrInvalidKind):
		writeJSON(w, http.StatusBadRequest, mutationResponse{Error: err.Error()})
	default:
		slog.Error("internal_error", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, mutationResponse{Error: "internal server error"})
	}
}

func instructorDeps() orchestrators.InstructorDeps {
	return orchestrators.InstructorDeps{
		InstructorStore: stores.InstructorStore,
		Notifier:        notifier,
		GenerateID:      generateID,
		Now:             timeNow,
	}
}

func clientDeps() orchestrators.ClientDeps {
	return orchestrators.ClientDeps{
		ClientStore: stores.ClientStore,
		Notifier:    notifier,
		GenerateID:  generateID,
		Now:         timeNow,
	}
}

// handleAddInstructor handles POST /add_instructor
func handleAddInstructor(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMutation(w, r, false)
	if !ok {
		return
	}
	id, err := orchestrators.ExecuteAddInstructor(r.Context(), orchestrators.AddInstructorInput{Fields: req.Data}, instructorDeps())
	if err != nil {
		mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, ID: id})
}

// handleUpdateInstructor handles POST /update_instructor
func handleUpdateInstructor(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMutation(w, r, true)
	if !ok {
		return
	}
	err := orchestrators.ExecuteUpdateInstructor(r.Context(), orchestrators.UpdateInstructorInput{ID: req.ID, Fields: req.Data}, instructorDeps())
	if err != nil {
		mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, ID: req.ID})
}

// handleAddClient returns the POST handler adding a client of one kind.
func handleAddClient(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeMutation(w, r, false)
		if !ok {
			return
		}
		id, err := orchestrators.ExecuteAddClient(r.Context(), orchestrators.AddClientInput{Kind: kind, Fields: req.Data}, clientDeps())
		if err != nil {
			mutationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mutationResponse{Success: true, ID: id})
	}
}

// handleUpdateClient returns the POST handler updating a client of one kind.
func handleUpdateClient(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeMutation(w, r, true)
		if !ok {
			return
		}
		err := orchestrators.ExecuteUpdateClient(r.Context(), orchestrators.UpdateClientInput{Kind: kind, ID: req.ID, Fields: req.Data}, clientDeps())
		if err != nil {
			mutationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mutationResponse{Success: true, ID: req.ID})
	}
}
