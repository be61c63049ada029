package component

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetByIdentifier returns every persisted instance of a part number
	// within a project, in instance-number order.
	GetByIdentifier(ctx context.Context, projectID uuid.UUID, identifier string) ([]*Component, error)
	GetByProject(ctx context.Context, projectID uuid.UUID) ([]*Component, error)
	Create(ctx context.Context, c *Component) error
	Update(ctx context.Context, c *Component) error
	// ReplaceMilestones deletes any prior milestone rows for the component
	// and inserts the given list in order.
	ReplaceMilestones(ctx context.Context, componentID uuid.UUID, milestones []Milestone) error
}
