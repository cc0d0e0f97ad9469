package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"babis/internal/adapters/storage"
	domain "babis/internal/domain/client"
)

const columns = "id, kind, name, contact_person, phone, email, special_need, notes, active, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new client store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var entity domain.Client
	var active int
	var createdAt string
	err := row.Scan(
		&entity.ID,
		&entity.Kind,
		&entity.Name,
		&entity.ContactPerson,
		&entity.Phone,
		&entity.Email,
		&entity.SpecialNeed,
		&entity.Notes,
		&active,
		&createdAt,
	)
	if err != nil {
		return domain.Client{}, err
	}
	entity.Active = active != 0
	entity.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return entity, nil
}

// GetByID retrieves a Client by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Client, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM client WHERE id = ?", id)
	entity, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Client{}, fmt.Errorf("client not found: %w", err)
	}
	return entity, err
}

// Save persists a Client to the database. The kind of an existing client
// never changes.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Client) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := "INSERT INTO client (" + columns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON CONFLICT(id) DO UPDATE SET name=excluded.name, contact_person=excluded.contact_person, " +
		"phone=excluded.phone, email=excluded.email, special_need=excluded.special_need, " +
		"notes=excluded.notes, active=excluded.active"

	createdAt := entity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	active := 0
	if entity.Active {
		active = 1
	}
	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Kind,
		entity.Name,
		entity.ContactPerson,
		entity.Phone,
		entity.Email,
		entity.SpecialNeed,
		entity.Notes,
		active,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a Client from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM client WHERE id = ?", id)
	return err
}

// List returns clients in insertion order.
// PRE: filter.Kind is empty or a valid kind
// POST: Returns clients matching the filter; Search matches any text column
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Client, error) {
	query := "SELECT " + columns + " FROM client WHERE 1=1"
	var args []any
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.Search != "" {
		query += " AND (name LIKE ? ESCAPE '\\' OR contact_person LIKE ? ESCAPE '\\' OR phone LIKE ? ESCAPE '\\' OR email LIKE ? ESCAPE '\\' OR special_need LIKE ? ESCAPE '\\' OR notes LIKE ? ESCAPE '\\')"
		like := storage.LikePattern(filter.Search)
		args = append(args, like, like, like, like, like, like)
	}
	if filter.ActiveOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Client
	for rows.Next() {
		entity, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
