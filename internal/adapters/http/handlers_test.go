package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"babis/internal/adapters/email"
	"babis/internal/adapters/http/middleware"
	"babis/internal/adapters/spreadsheet"
	"babis/internal/adapters/storage"
	clientStore "babis/internal/adapters/storage/client"
	instructorStore "babis/internal/adapters/storage/instructor"
	"babis/internal/application/projections"
	clientDomain "babis/internal/domain/client"
	instructorDomain "babis/internal/domain/instructor"
)

type recordingNotifier struct {
	changes []email.Change
}

// Notify records the change for assertions.
func (n *recordingNotifier) Notify(ctx context.Context, c email.Change) {
	n.changes = append(n.changes, c)
}

// setupServer wires NewMux against an in-memory database.
func setupServer(t *testing.T, opts Options) (http.Handler, *Stores) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	tdb := storage.NewTimedDB(db, storage.DefaultSlowQueryMs)

	s := &Stores{
		InstructorStore: instructorStore.NewSQLiteStore(tdb),
		ClientStore:     clientStore.NewSQLiteStore(tdb),
	}
	RateLimitPerSecond = 1000
	if opts.QueryStats == nil {
		opts.QueryStats = tdb.Stats
	}
	return NewMux(s, opts), s
}

func seedInstructors(t *testing.T, s *Stores) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []instructorDomain.Instructor{
		{ID: "i1", Name: "גלית", Phone: "053-2000000", Active: true},
		{ID: "i2", Name: "אבי", Phone: "050-1000000", Active: false},
		{ID: "i3", Name: "בני", Phone: "054-3000000", Active: true},
		{ID: "i4", Name: "דנה", Phone: "052-7000000", Notes: "**ותיקה**", Active: true},
	}
	for n, in := range list {
		in.CreatedAt = base.Add(time.Duration(n) * time.Minute)
		if err := s.InstructorStore.Save(context.Background(), in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func get(t *testing.T, h http.Handler, target string, html bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if html {
		req.Header.Set("Accept", "text/html")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, mutationResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var resp mutationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s response %q: %v", target, rr.Body.String(), err)
	}
	return rr, resp
}

// TestRosterPage_SortsAndPinsInactive verifies the HTML table honors sort params.
func TestRosterPage_SortsAndPinsInactive(t *testing.T) {
	h, s := setupServer(t, Options{})
	seedInstructors(t, s)

	rr := get(t, h, "/instructors?sort=0&dir=desc", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()

	order := []string{"דנה", "גלית", "בני", "אבי"}
	for i := 1; i < len(order); i++ {
		if strings.Index(body, order[i-1]) > strings.Index(body, order[i]) {
			t.Errorf("%s rendered after %s", order[i-1], order[i])
		}
	}
	if !strings.Contains(body, `class="inactive"`) {
		t.Error("inactive row not marked")
	}
	if !strings.Contains(body, `class="sortable sort-desc"`) {
		t.Error("active header missing sort-desc class")
	}
	if !strings.Contains(body, "<strong>ותיקה</strong>") {
		t.Error("notes column not rendered as markdown")
	}
}

// TestRosterPage_HeaderLinksToggle verifies the active header links to the flipped direction.
func TestRosterPage_HeaderLinksToggle(t *testing.T) {
	h, s := setupServer(t, Options{})
	seedInstructors(t, s)

	body := get(t, h, "/instructors?sort=0&dir=asc", true).Body.String()
	if !strings.Contains(body, `href="/instructors?dir=desc&amp;sort=0"`) {
		t.Errorf("active header should link to desc:\n%s", body)
	}
	if !strings.Contains(body, `href="/instructors?dir=asc&amp;sort=1"`) {
		t.Error("other headers should link to asc")
	}
}

// TestRosterPage_JSON verifies non-HTML requests get the sorted table as JSON.
func TestRosterPage_JSON(t *testing.T) {
	h, s := setupServer(t, Options{})
	seedInstructors(t, s)

	rr := get(t, h, "/instructors?sort=1", false)
	var table projections.RosterTable
	if err := json.Unmarshal(rr.Body.Bytes(), &table); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var ids []string
	for _, r := range table.Rows {
		ids = append(ids, r.ID)
	}
	want := []string{"i4", "i1", "i3", "i2"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", ids, want)
	}
	if table.Inactive != 1 {
		t.Errorf("inactive = %d, want 1", table.Inactive)
	}
}

// TestRosterPage_Search verifies q narrows the table.
func TestRosterPage_Search(t *testing.T) {
	h, s := setupServer(t, Options{})
	seedInstructors(t, s)

	var table projections.RosterTable
	json.Unmarshal(get(t, h, "/instructors?q=דנה", false).Body.Bytes(), &table)
	if len(table.Rows) != 1 || table.Rows[0].ID != "i4" {
		t.Errorf("rows = %+v, want only i4", table.Rows)
	}
}

// TestRosterPage_Paginates verifies per_page splits the table after sorting.
func TestRosterPage_Paginates(t *testing.T) {
	h, s := setupServer(t, Options{PerPage: 10})
	seedInstructors(t, s)

	var table projections.RosterTable
	json.Unmarshal(get(t, h, "/instructors?per_page=10&page=1", false).Body.Bytes(), &table)
	if table.Page.Total != 4 || len(table.Rows) != 4 {
		t.Errorf("page = %+v, rows = %d", table.Page, len(table.Rows))
	}
}

// TestAddInstructor verifies the JSON add endpoint persists and notifies.
func TestAddInstructor(t *testing.T) {
	n := &recordingNotifier{}
	h, s := setupServer(t, Options{Notifier: n})

	rr, resp := postJSON(t, h, "POST", "/add_instructor", `{"data":{"שם":"רותם","טלפון":"050-1","פעיל":""}}`)
	if rr.Code != http.StatusOK || !resp.Success || resp.ID == "" {
		t.Fatalf("status = %d, resp = %+v", rr.Code, resp)
	}
	got, err := s.InstructorStore.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "רותם" || !got.Active {
		t.Errorf("stored = %+v", got)
	}
	if len(n.changes) != 1 || n.changes[0].Kind != email.ChangeAdded {
		t.Errorf("changes = %+v", n.changes)
	}
}

// TestMutations_Errors verifies error replies keep the {success, error} shape.
func TestMutations_Errors(t *testing.T) {
	h, s := setupServer(t, Options{})
	s.ClientStore.Save(context.Background(), clientDomain.Client{ID: "org1", Kind: clientDomain.KindInstitutional, Name: "עירייה", Active: true})

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"missing name", "/add_instructor", `{"data":{"טלפון":"1"}}`, http.StatusBadRequest},
		{"no data", "/add_instructor", `{}`, http.StatusBadRequest},
		{"unknown field", "/add_instructor", `{"data":{},"sheet":"x"}`, http.StatusBadRequest},
		{"bad email", "/add_private_client", `{"data":{"שם":"נועה","מייל":"nope"}}`, http.StatusBadRequest},
		{"missing id", "/update_instructor", `{"data":{"שם":"x"}}`, http.StatusBadRequest},
		{"unknown id", "/update_instructor", `{"id":"nope","data":{"שם":"x"}}`, http.StatusNotFound},
		{"wrong table", "/update_private_client", `{"id":"org1","data":{"שם":"x"}}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := postJSON(t, h, "POST", tt.target, tt.body)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("resp = %+v, want failure with message", resp)
			}
		})
	}
}

// TestUpdateInstitutionalClient verifies updates go through and deactivation notifies.
func TestUpdateInstitutionalClient(t *testing.T) {
	n := &recordingNotifier{}
	h, s := setupServer(t, Options{Notifier: n})
	ctx := context.Background()
	s.ClientStore.Save(ctx, clientDomain.Client{ID: "org1", Kind: clientDomain.KindInstitutional, Name: "עירייה", Active: true})

	rr, resp := postJSON(t, h, "POST", "/update_institutional_client",
		`{"id":"org1","data":{"ארגון":"עיריית חיפה","איש קשר":"שרה","פעיל":"לא פעיל"}}`)
	if rr.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, resp = %+v", rr.Code, resp)
	}
	got, _ := s.ClientStore.GetByID(ctx, "org1")
	if got.Name != "עיריית חיפה" || got.ContactPerson != "שרה" || got.Active {
		t.Errorf("stored = %+v", got)
	}
	if len(n.changes) != 1 || n.changes[0].Kind != email.ChangeDeactivated {
		t.Errorf("changes = %+v", n.changes)
	}
}

// TestAPIInstructors verifies the list and add API.
func TestAPIInstructors(t *testing.T) {
	h, s := setupServer(t, Options{})
	seedInstructors(t, s)

	rr, resp := postJSON(t, h, "POST", "/api/instructors", `{"שם":"יעל"}`)
	if rr.Code != http.StatusCreated || !resp.Success {
		t.Fatalf("status = %d, resp = %+v", rr.Code, resp)
	}

	var all []entryJSON
	json.Unmarshal(get(t, h, "/api/instructors", false).Body.Bytes(), &all)
	if len(all) != 5 {
		t.Errorf("list = %d, want 5", len(all))
	}
	var active []entryJSON
	json.Unmarshal(get(t, h, "/api/instructors?active=1", false).Body.Bytes(), &active)
	if len(active) != 4 {
		t.Errorf("active list = %d, want 4", len(active))
	}
}

// TestAPIClient verifies GET and PUT /api/clients/{id}.
func TestAPIClient(t *testing.T) {
	h, s := setupServer(t, Options{})
	ctx := context.Background()
	s.ClientStore.Save(ctx, clientDomain.Client{ID: "p1", Kind: clientDomain.KindPrivate, Name: "נועה", Active: true})

	rr := get(t, h, "/api/clients/p1", false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"kind":"private"`) {
		t.Fatalf("GET status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr := get(t, h, "/api/clients/missing", false); rr.Code != http.StatusNotFound {
		t.Errorf("missing GET status = %d, want 404", rr.Code)
	}

	rr, resp := postJSON(t, h, "PUT", "/api/clients/p1", `{"שם":"נועה כהן","צורך מיוחד":"נגישות"}`)
	if rr.Code != http.StatusOK || !resp.Success {
		t.Fatalf("PUT status = %d, resp = %+v", rr.Code, resp)
	}
	got, _ := s.ClientStore.GetByID(ctx, "p1")
	if got.Name != "נועה כהן" || got.SpecialNeed != "נגישות" || got.Kind != clientDomain.KindPrivate {
		t.Errorf("stored = %+v", got)
	}
	if rr, _ := postJSON(t, h, "PUT", "/api/clients/missing", `{"שם":"x"}`); rr.Code != http.StatusNotFound {
		t.Errorf("missing PUT status = %d, want 404", rr.Code)
	}
}

// TestExport verifies the workbook keeps the page order and strikes inactive rows.
func TestExport(t *testing.T) {
	h, s := setupServer(t, Options{})
	seedInstructors(t, s)

	rr := get(t, h, "/export/instructors.xlsx?sort=0&dir=asc", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "instructors.xlsx") {
		t.Errorf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	sheet, err := spreadsheet.Read(rr.Body)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(sheet.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(sheet.Rows))
	}
	if sheet.Rows[0].Cells[0] != "בני" || !sheet.Rows[3].Struck {
		t.Errorf("rows = %+v", sheet.Rows)
	}

	for _, target := range []string{"/export/unknown.xlsx", "/export/instructors.csv"} {
		if rr := get(t, h, target, false); rr.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", target, rr.Code)
		}
	}
}

// TestDashboard verifies the dashboard counts every table.
func TestDashboard(t *testing.T) {
	h, s := setupServer(t, Options{})
	seedInstructors(t, s)

	var entries []dashboardEntry
	json.Unmarshal(get(t, h, "/", false).Body.Bytes(), &entries)
	if len(entries) != 3 || entries[0].Total != 4 || entries[0].Inactive != 1 {
		t.Errorf("entries = %+v", entries)
	}
	if rr := get(t, h, "/", true); !strings.Contains(rr.Body.String(), `href="/clients/institutional"`) {
		t.Error("dashboard should link every table")
	}
	if rr := get(t, h, "/nope", false); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rr.Code)
	}
}

// TestHealthz verifies counters are reported.
func TestHealthz(t *testing.T) {
	h, s := setupServer(t, Options{})
	seedInstructors(t, s)
	get(t, h, "/instructors", false)

	var body map[string]any
	json.Unmarshal(get(t, h, "/healthz", false).Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if q, _ := body["queries"].(float64); q < 1 {
		t.Errorf("queries = %v, want >= 1", body["queries"])
	}
}

// TestNewMux_BasicAuth verifies credentials are required except on /healthz.
func TestNewMux_BasicAuth(t *testing.T) {
	hash, err := middleware.HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h, _ := setupServer(t, Options{AdminUser: "office", AdminPasswordHash: hash})

	if rr := get(t, h, "/instructors", false); rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if rr := get(t, h, "/healthz", false); rr.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rr.Code)
	}

	req := httptest.NewRequest("GET", "/instructors", nil)
	req.SetBasicAuth("office", "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authorized status = %d, want 200", rr.Code)
	}
}

// TestNewMux_FormPostNeedsCSRF verifies non-JSON posts are rejected without a token.
func TestNewMux_FormPostNeedsCSRF(t *testing.T) {
	h, _ := setupServer(t, Options{})

	req := httptest.NewRequest("POST", "/add_instructor", strings.NewReader("שם=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

// TestStatic verifies embedded assets are served.
func TestStatic(t *testing.T) {
	h, _ := setupServer(t, Options{})
	rr := get(t, h, "/static/roster.js", false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "showModal") {
		t.Errorf("status = %d", rr.Code)
	}
}
