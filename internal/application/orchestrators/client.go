package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"babis/internal/adapters/email"
	"babis/internal/domain/client"
)

var clientTitles = map[string]string{
	client.KindPrivate:       "לקוחות פרטיים",
	client.KindInstitutional: "לקוחות מוסדיים",
}

// ClientStore defines the interface for client persistence.
type ClientStore interface {
	GetByID(ctx context.Context, id string) (client.Client, error)
	Save(ctx context.Context, c client.Client) error
}

// AddClientInput carries input for the orchestrator.
type AddClientInput struct {
	Kind   string
	Fields map[string]string // keyed by client.Field* names
}

// ClientDeps holds dependencies for the client orchestrators.
type ClientDeps struct {
	ClientStore ClientStore
	Notifier    Notifier
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteAddClient appends a client to the private or institutional table.
// PRE: Kind is a valid client kind; Fields carries a name or organization
// POST: Client persisted with a fresh ID
func ExecuteAddClient(ctx context.Context, input AddClientInput, deps ClientDeps) (string, error) {
	c := client.Client{
		ID:        generateID(deps.GenerateID),
		Kind:      input.Kind,
		CreatedAt: now(deps.Now),
	}
	c.Apply(input.Fields)

	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := deps.ClientStore.Save(ctx, c); err != nil {
		return "", err
	}

	slog.Info("roster_event", "event", "client_added", "client_id", c.ID, "kind", c.Kind)
	notify(ctx, deps.Notifier, email.Change{Kind: email.ChangeAdded, Table: clientTitles[c.Kind], Name: c.Name, ID: c.ID})
	return c.ID, nil
}

// UpdateClientInput carries input for the orchestrator.
type UpdateClientInput struct {
	Kind   string
	ID     string
	Fields map[string]string
}

// ExecuteUpdateClient replaces the editable fields of a client.
// PRE: ID names an existing client of the given Kind
// POST: All editable fields replaced from Fields
// INVARIANT: A client never moves between the private and institutional tables
func ExecuteUpdateClient(ctx context.Context, input UpdateClientInput, deps ClientDeps) error {
	if input.ID == "" {
		return errors.New("client ID is required")
	}
	if !client.ValidKind(input.Kind) {
		return client.ErrInvalidKind
	}

	c, err := deps.ClientStore.GetByID(ctx, input.ID)
	if err != nil {
		return notFound(input.ID, err)
	}
	if c.Kind != input.Kind {
		return fmt.Errorf("%w: %s is not a %s client", ErrNotFound, input.ID, input.Kind)
	}
	wasActive := c.Active

	c.Apply(input.Fields)
	if err := c.Validate(); err != nil {
		return err
	}
	if err := deps.ClientStore.Save(ctx, c); err != nil {
		return err
	}

	slog.Info("roster_event", "event", "client_updated", "client_id", c.ID, "kind", c.Kind, "active", c.Active)
	if wasActive && !c.Active {
		notify(ctx, deps.Notifier, email.Change{Kind: email.ChangeDeactivated, Table: clientTitles[c.Kind], Name: c.Name, ID: c.ID})
	}
	return nil
}
