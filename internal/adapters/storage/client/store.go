package client

import (
	"context"

	domain "babis/internal/domain/client"
)

// Store persists Client state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Client, error)
	Save(ctx context.Context, value domain.Client) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Client, error)
}

// ListFilter carries filtering parameters for List operations.
// An empty Kind lists both client tables.
type ListFilter struct {
	Kind       string
	Search     string
	ActiveOnly bool
	Limit      int
}
