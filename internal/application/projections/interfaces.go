package projections

import (
	"context"

	"babis/internal/adapters/storage/client"
	"babis/internal/adapters/storage/instructor"
	domainClient "babis/internal/domain/client"
	domainInstructor "babis/internal/domain/instructor"
)

// InstructorStore interface for instructor queries.
type InstructorStore interface {
	List(ctx context.Context, filter instructor.ListFilter) ([]domainInstructor.Instructor, error)
}

// ClientStore interface for client queries.
type ClientStore interface {
	List(ctx context.Context, filter client.ListFilter) ([]domainClient.Client, error)
}
