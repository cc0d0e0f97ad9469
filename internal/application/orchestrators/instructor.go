package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"babis/internal/adapters/email"
	"babis/internal/domain/instructor"
)

const instructorsTitle = "מדריכים"

// InstructorStore defines the interface for instructor persistence.
type InstructorStore interface {
	GetByID(ctx context.Context, id string) (instructor.Instructor, error)
	Save(ctx context.Context, i instructor.Instructor) error
}

// AddInstructorInput carries input for the orchestrator.
type AddInstructorInput struct {
	Fields map[string]string // keyed by instructor.Field* names
}

// InstructorDeps holds dependencies for the instructor orchestrators.
type InstructorDeps struct {
	InstructorStore InstructorStore
	Notifier        Notifier
	GenerateID      func() string
	Now             func() time.Time
}

// ExecuteAddInstructor appends a new instructor to the roster.
// PRE: Fields carries at least a name
// POST: Instructor persisted with a fresh ID; active unless the status field says otherwise
func ExecuteAddInstructor(ctx context.Context, input AddInstructorInput, deps InstructorDeps) (string, error) {
	in := instructor.Instructor{
		ID:        generateID(deps.GenerateID),
		CreatedAt: now(deps.Now),
	}
	in.Apply(input.Fields)

	if err := in.Validate(); err != nil {
		return "", err
	}
	if err := deps.InstructorStore.Save(ctx, in); err != nil {
		return "", err
	}

	slog.Info("roster_event", "event", "instructor_added", "instructor_id", in.ID)
	notify(ctx, deps.Notifier, email.Change{Kind: email.ChangeAdded, Table: instructorsTitle, Name: in.Name, ID: in.ID})
	return in.ID, nil
}

// UpdateInstructorInput carries input for the orchestrator.
type UpdateInstructorInput struct {
	ID     string
	Fields map[string]string
}

// ExecuteUpdateInstructor replaces the editable fields of an instructor.
// PRE: ID names an existing instructor
// POST: All editable fields replaced from Fields; CreatedAt unchanged
// INVARIANT: A missing status field leaves the instructor active
func ExecuteUpdateInstructor(ctx context.Context, input UpdateInstructorInput, deps InstructorDeps) error {
	if input.ID == "" {
		return errors.New("instructor ID is required")
	}

	in, err := deps.InstructorStore.GetByID(ctx, input.ID)
	if err != nil {
		return notFound(input.ID, err)
	}
	wasActive := in.Active

	in.Apply(input.Fields)
	if err := in.Validate(); err != nil {
		return err
	}
	if err := deps.InstructorStore.Save(ctx, in); err != nil {
		return err
	}

	slog.Info("roster_event", "event", "instructor_updated", "instructor_id", in.ID, "active", in.Active)
	if wasActive && !in.Active {
		notify(ctx, deps.Notifier, email.Change{Kind: email.ChangeDeactivated, Table: instructorsTitle, Name: in.Name, ID: in.ID})
	}
	return nil
}
