package projections

import (
	"context"
	"errors"
	"testing"

	"babis/internal/adapters/storage/client"
	"babis/internal/adapters/storage/instructor"
	"babis/internal/application/listutil"
	domainClient "babis/internal/domain/client"
	domainInstructor "babis/internal/domain/instructor"
	"babis/internal/domain/sortable"
)

type mockInstructorStore struct {
	instructors []domainInstructor.Instructor
	lastFilter  instructor.ListFilter
	err         error
}

// List returns all seeded instructors.
// PRE: filter is valid
// POST: Returns all seeded instructors and records the filter
func (m *mockInstructorStore) List(_ context.Context, filter instructor.ListFilter) ([]domainInstructor.Instructor, error) {
	m.lastFilter = filter
	return m.instructors, m.err
}

type mockClientStore struct {
	clients []domainClient.Client
}

// List returns seeded clients of the requested kind.
// PRE: filter is valid
// POST: Returns clients whose kind matches filter.Kind
func (m *mockClientStore) List(_ context.Context, filter client.ListFilter) ([]domainClient.Client, error) {
	var out []domainClient.Client
	for _, c := range m.clients {
		if filter.Kind == "" || c.Kind == filter.Kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func seededInstructors() *mockInstructorStore {
	return &mockInstructorStore{instructors: []domainInstructor.Instructor{
		{ID: "i1", Name: "גלית", Phone: "052-3000000", Active: true},
		{ID: "i2", Name: "אבי", Phone: "050-1000000", Active: false},
		{ID: "i3", Name: "בני", Phone: "054-2000000", Active: true},
		{ID: "i4", Name: "דנה", Phone: "058-9000000", Active: true},
	}}
}

func rowIDs(t RosterTable) []string {
	var out []string
	for _, r := range t.Rows {
		out = append(out, r.ID)
	}
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestQueryInstructorTable_DefaultSort verifies the default sort is column 0 ascending with inactive rows last.
func TestQueryInstructorTable_DefaultSort(t *testing.T) {
	deps := RosterDeps{InstructorStore: seededInstructors()}

	got, err := QueryInstructorTable(context.Background(), RosterQuery{}, deps)
	if err != nil {
		t.Fatalf("QueryInstructorTable: %v", err)
	}
	if want := []string{"i3", "i1", "i4", "i2"}; !sameIDs(rowIDs(got), want) {
		t.Errorf("order = %v, want %v", rowIDs(got), want)
	}
	if got.Column != 0 || got.Dir != sortable.Ascending {
		t.Errorf("state = (%d, %s), want (0, asc)", got.Column, got.Dir)
	}
	if got.Inactive != 1 || !got.Rows[3].Inactive {
		t.Errorf("inactive count = %d, last row inactive = %v", got.Inactive, got.Rows[3].Inactive)
	}
	if got.Rows[0].Fields[domainInstructor.FieldName] != "בני" {
		t.Errorf("fields not attached: %v", got.Rows[0].Fields)
	}
}

// TestQueryInstructorTable_HeaderState verifies header classes and next-click directions.
func TestQueryInstructorTable_HeaderState(t *testing.T) {
	deps := RosterDeps{InstructorStore: seededInstructors()}
	query := RosterQuery{Sort: listutil.SortParams{Column: 1, Dir: sortable.Descending}}

	got, err := QueryInstructorTable(context.Background(), query, deps)
	if err != nil {
		t.Fatalf("QueryInstructorTable: %v", err)
	}
	if want := []string{"i4", "i3", "i1", "i2"}; !sameIDs(rowIDs(got), want) {
		t.Errorf("order = %v, want %v", rowIDs(got), want)
	}

	phone := got.Headers[1]
	if !phone.Active || phone.Dir != sortable.Descending || phone.Next != sortable.Ascending {
		t.Errorf("phone header = %+v", phone)
	}
	if phone.Classes != "sortable sort-desc" {
		t.Errorf("phone classes = %q", phone.Classes)
	}
	name := got.Headers[0]
	if name.Active || name.Next != sortable.Ascending || name.Classes != "sortable" {
		t.Errorf("name header = %+v", name)
	}
}

// TestQueryInstructorTable_Pagination verifies pages are cut after sorting.
func TestQueryInstructorTable_Pagination(t *testing.T) {
	deps := RosterDeps{InstructorStore: seededInstructors()}
	query := RosterQuery{Page: listutil.PageParams{Page: 2, PerPage: 3}}

	got, err := QueryInstructorTable(context.Background(), query, deps)
	if err != nil {
		t.Fatalf("QueryInstructorTable: %v", err)
	}
	if want := []string{"i2"}; !sameIDs(rowIDs(got), want) {
		t.Errorf("page 2 = %v, want %v", rowIDs(got), want)
	}
	if got.Page.Total != 4 || got.Page.TotalPages != 2 {
		t.Errorf("page info = %+v", got.Page)
	}
}

// TestQueryInstructorTable_PassesSearch verifies the search text reaches the store.
func TestQueryInstructorTable_PassesSearch(t *testing.T) {
	store := seededInstructors()
	_, err := QueryInstructorTable(context.Background(), RosterQuery{Search: "יוגה"}, RosterDeps{InstructorStore: store})
	if err != nil {
		t.Fatalf("QueryInstructorTable: %v", err)
	}
	if store.lastFilter.Search != "יוגה" {
		t.Errorf("search = %q", store.lastFilter.Search)
	}
}

// TestQueryInstructorTable_StoreError verifies store errors propagate.
func TestQueryInstructorTable_StoreError(t *testing.T) {
	store := &mockInstructorStore{err: errors.New("db down")}
	if _, err := QueryInstructorTable(context.Background(), RosterQuery{}, RosterDeps{InstructorStore: store}); err == nil {
		t.Error("expected error")
	}
}

// TestQueryRosterTable_Clients verifies client tables are split by kind and use their own columns.
func TestQueryRosterTable_Clients(t *testing.T) {
	deps := RosterDeps{ClientStore: &mockClientStore{clients: []domainClient.Client{
		{ID: "p1", Kind: domainClient.KindPrivate, Name: "נועה", Active: true},
		{ID: "o1", Kind: domainClient.KindInstitutional, Name: "מתנ\"ס", ContactPerson: "רוני", Active: true},
		{ID: "o2", Kind: domainClient.KindInstitutional, Name: "בית ספר", ContactPerson: "אורית", Active: true},
	}}}
	query := RosterQuery{Sort: listutil.SortParams{Column: 1}}

	got, err := QueryRosterTable(context.Background(), TableInstitutionalClients, query, deps)
	if err != nil {
		t.Fatalf("QueryRosterTable: %v", err)
	}
	if want := []string{"o2", "o1"}; !sameIDs(rowIDs(got), want) {
		t.Errorf("order = %v, want %v", rowIDs(got), want)
	}
	if got.Headers[0].Label != domainClient.FieldOrganization || got.Title != "לקוחות מוסדיים" {
		t.Errorf("headers = %+v, title = %q", got.Headers, got.Title)
	}

	if _, err := QueryRosterTable(context.Background(), "vip", RosterQuery{}, deps); err == nil {
		t.Error("expected error for unknown table")
	}
}
