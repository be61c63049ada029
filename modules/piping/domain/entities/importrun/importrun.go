package importrun

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run is the persisted audit record of one import job.
type Run struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	UserID    *uuid.UUID
	Filename  string

	TotalRows     int
	CreatedRows   int
	UpdatedRows   int
	SkippedRows   int
	FailedRows    int
	ErrorCount    int
	WarningCount  int
	PartialResult bool
	Success       bool

	StartedAt  time.Time
	FinishedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, r *Run) error
}
