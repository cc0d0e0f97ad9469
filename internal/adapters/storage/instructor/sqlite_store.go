package instructor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"babis/internal/adapters/storage"
	domain "babis/internal/domain/instructor"
)

const columns = "id, name, phone, email, expertise, notes, active, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new instructor store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstructor(row scanner) (domain.Instructor, error) {
	var entity domain.Instructor
	var active int
	var createdAt string
	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Phone,
		&entity.Email,
		&entity.Expertise,
		&entity.Notes,
		&active,
		&createdAt,
	)
	if err != nil {
		return domain.Instructor{}, err
	}
	entity.Active = active != 0
	entity.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return entity, nil
}

// GetByID retrieves an Instructor by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Instructor, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM instructor WHERE id = ?", id)
	entity, err := scanInstructor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Instructor{}, fmt.Errorf("instructor not found: %w", err)
	}
	return entity, err
}

// Save persists an Instructor to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Instructor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fields := strings.Split(columns, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	var updates []string
	for _, f := range fields[1:] {
		if f == "created_at" {
			continue
		}
		updates = append(updates, f+"=excluded."+f)
	}

	query := fmt.Sprintf(
		"INSERT INTO instructor (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		columns,
		placeholders,
		strings.Join(updates, ", "),
	)

	createdAt := entity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.Phone,
		entity.Email,
		entity.Expertise,
		entity.Notes,
		boolToInt(entity.Active),
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes an Instructor from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM instructor WHERE id = ?", id)
	return err
}

// List returns instructors in insertion order.
// PRE: none
// POST: Returns instructors matching the filter; Search matches any text column
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Instructor, error) {
	query := "SELECT " + columns + " FROM instructor WHERE 1=1"
	var args []any
	if filter.Search != "" {
		query += " AND (name LIKE ? ESCAPE '\\' OR phone LIKE ? ESCAPE '\\' OR email LIKE ? ESCAPE '\\' OR expertise LIKE ? ESCAPE '\\' OR notes LIKE ? ESCAPE '\\')"
		like := storage.LikePattern(filter.Search)
		args = append(args, like, like, like, like, like)
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

	var results []domain.Instructor
	for rows.Next() {
		entity, err := scanInstructor(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
