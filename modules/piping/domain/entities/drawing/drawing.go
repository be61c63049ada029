package drawing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Drawing groups components under a number/title pair.
type Drawing struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Number    string
	Title     string
	CreatedAt time.Time
}

// New builds a drawing ready for insertion, as happens when an import
// references a drawing number the project has never seen.
func New(projectID uuid.UUID, number, title string) *Drawing {
	return &Drawing{
		ID:        uuid.New(),
		ProjectID: projectID,
		Number:    number,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
}

type Repository interface {
	GetByNumber(ctx context.Context, projectID uuid.UUID, number string) (*Drawing, error)
	GetByProject(ctx context.Context, projectID uuid.UUID) ([]*Drawing, error)
	Create(ctx context.Context, d *Drawing) error
}
