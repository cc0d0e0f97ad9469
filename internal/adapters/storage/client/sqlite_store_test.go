package client

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"babis/internal/adapters/storage"
	domain "babis/internal/domain/client"
)

func newTestStore(t *testing.T) *SQLiteStore {
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
	return NewSQLiteStore(db)
}

func seed(t *testing.T, store *SQLiteStore, clients ...domain.Client) {
	t.Helper()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range clients {
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.Save(context.Background(), c); err != nil {
			t.Fatalf("Save %s: %v", c.ID, err)
		}
	}
}

// TestSQLiteStore_ListByKind verifies private and institutional clients are kept apart.
func TestSQLiteStore_ListByKind(t *testing.T) {
	store := newTestStore(t)
	seed(t, store,
		domain.Client{ID: "p1", Kind: domain.KindPrivate, Name: "נועה", SpecialNeed: "שמיעה", Active: true},
		domain.Client{ID: "o1", Kind: domain.KindInstitutional, Name: "עיריית חיפה", ContactPerson: "רוני", Active: true},
		domain.Client{ID: "p2", Kind: domain.KindPrivate, Name: "אלון", Active: false},
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"private", ListFilter{Kind: domain.KindPrivate}, []string{"p1", "p2"}},
		{"institutional", ListFilter{Kind: domain.KindInstitutional}, []string{"o1"}},
		{"all", ListFilter{}, []string{"p1", "o1", "p2"}},
		{"search contact person", ListFilter{Search: "רוני"}, []string{"o1"}},
		{"active private", ListFilter{Kind: domain.KindPrivate, ActiveOnly: true}, []string{"p1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("row %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

// TestSQLiteStore_ListSearchIsLiteral verifies % in a search is not a wildcard.
func TestSQLiteStore_ListSearchIsLiteral(t *testing.T) {
	store := newTestStore(t)
	seed(t, store,
		domain.Client{ID: "p1", Kind: domain.KindPrivate, Name: "נועה", Notes: "הנחה 50%", Active: true},
		domain.Client{ID: "p2", Kind: domain.KindPrivate, Name: "אלון", Notes: "תעריף 500", Active: true},
	)

	got, err := store.List(context.Background(), ListFilter{Search: "50%"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("got %d rows, want only p1", len(got))
	}
}

// TestSQLiteStore_SaveKeepsKind verifies an update cannot move a client between tables.
func TestSQLiteStore_SaveKeepsKind(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, domain.Client{ID: "p1", Kind: domain.KindPrivate, Name: "נועה", Active: true})
	ctx := context.Background()

	err := store.Save(ctx, domain.Client{ID: "p1", Kind: domain.KindInstitutional, Name: "נועה לוי", Active: false})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Kind != domain.KindPrivate || got.Name != "נועה לוי" || got.Active {
		t.Errorf("got %+v", got)
	}
}

// TestSQLiteStore_GetByID_NotFound verifies missing rows wrap sql.ErrNoRows.
func TestSQLiteStore_GetByID_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}
