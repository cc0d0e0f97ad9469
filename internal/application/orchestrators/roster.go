package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"babis/internal/adapters/email"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an update names an unknown roster entry.
var ErrNotFound = errors.New("roster entry not found")

// Notifier receives roster change notices. *email.Notifier satisfies it.
type Notifier interface {
	Notify(ctx context.Context, c email.Change)
}

// generateID returns a new entity ID, falling back to uuid.
func generateID(gen func() string) string {
	if gen != nil {
		return gen()
	}
	return uuid.New().String()
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

func notFound(id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func notify(ctx context.Context, n Notifier, c email.Change) {
	if n != nil {
		n.Notify(ctx, c)
	}
}
