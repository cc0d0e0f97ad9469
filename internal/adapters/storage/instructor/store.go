package instructor

import (
	"context"

	domain "babis/internal/domain/instructor"
)

// Store persists Instructor state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Instructor, error)
	Save(ctx context.Context, value domain.Instructor) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Instructor, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
}
