package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/drawing"
	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/importrun"
	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/template"
	"github.com/fieldforge/pipetrak/modules/piping/importer"
	"github.com/fieldforge/pipetrak/pkg/composables"
)

// Store wires the pgx repositories behind the importer's persistence
// contract. Every call made inside InTx shares one transaction pulled
// from the context.
type Store struct {
	pool       *pgxpool.Pool
	components component.Repository
	drawings   drawing.Repository
	templates  template.Repository
	runs       importrun.Repository
}

var _ importer.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:       pool,
		components: NewComponentRepository(),
		drawings:   NewDrawingRepository(),
		templates:  NewTemplateRepository(),
		runs:       NewImportRunRepository(),
	}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.InTx(composables.WithPool(ctx, s.pool), fn)
}

func (s *Store) InSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.InNestedTx(ctx, fn)
}

func (s *Store) TemplatesByProject(ctx context.Context, projectID uuid.UUID) ([]*template.Template, error) {
	return s.templates.GetByProject(s.withConn(ctx), projectID)
}

func (s *Store) FindComponents(ctx context.Context, projectID uuid.UUID, identifier string) ([]*component.Component, error) {
	return s.components.GetByIdentifier(s.withConn(ctx), projectID, identifier)
}

func (s *Store) CreateComponent(ctx context.Context, c *component.Component) error {
	return s.components.Create(s.withConn(ctx), c)
}

func (s *Store) UpdateComponent(ctx context.Context, c *component.Component) error {
	return s.components.Update(s.withConn(ctx), c)
}

func (s *Store) ReplaceMilestones(ctx context.Context, componentID uuid.UUID, milestones []component.Milestone) error {
	return s.components.ReplaceMilestones(s.withConn(ctx), componentID, milestones)
}

// EnsureDrawing finds the project's drawing by number, creating it on the
// first reference. Runs in the caller's transaction, so a rolled-back
// batch leaves no orphan drawing behind.
func (s *Store) EnsureDrawing(ctx context.Context, projectID uuid.UUID, number, title string) (uuid.UUID, error) {
	ctx = s.withConn(ctx)
	d, err := s.drawings.GetByNumber(ctx, projectID, number)
	if err == nil {
		return d.ID, nil
	}
	if !errors.Is(err, ErrDrawingNotFound) {
		return uuid.Nil, err
	}
	created := drawing.New(projectID, number, title)
	if err := s.drawings.Create(ctx, created); err != nil {
		return uuid.Nil, errors.Wrap(err, "create drawing")
	}
	return created.ID, nil
}

func (s *Store) CreateRun(ctx context.Context, r *importrun.Run) error {
	return s.InTx(ctx, func(txCtx context.Context) error {
		return s.runs.Create(txCtx, r)
	})
}

// Components exposes read access for the progress reports.
func (s *Store) Components(ctx context.Context, projectID uuid.UUID) ([]*component.Component, error) {
	return s.components.GetByProject(s.withConn(ctx), projectID)
}

// withConn guarantees repositories find something to execute against:
// the surrounding transaction when there is one, the pool otherwise.
func (s *Store) withConn(ctx context.Context) context.Context {
	if _, err := composables.UseTx(ctx); err == nil {
		return ctx
	}
	return composables.WithPool(ctx, s.pool)
}
