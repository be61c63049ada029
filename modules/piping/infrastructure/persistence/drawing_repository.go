package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/drawing"
	"github.com/fieldforge/pipetrak/pkg/composables"
)

var ErrDrawingNotFound = fmt.Errorf("drawing not found")

const drawingFindQuery = `SELECT id, project_id, number, title, created_at FROM drawings`

type DrawingRepository struct{}

func NewDrawingRepository() drawing.Repository {
	return &DrawingRepository{}
}

func (r *DrawingRepository) GetByNumber(ctx context.Context, projectID uuid.UUID, number string) (*drawing.Drawing, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var d drawing.Drawing
	err = tx.QueryRow(ctx, drawingFindQuery+" WHERE project_id = $1 AND number = $2", projectID, number).
		Scan(&d.ID, &d.ProjectID, &d.Number, &d.Title, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDrawingNotFound
		}
		return nil, errors.Wrap(err, "query drawing")
	}
	return &d, nil
}

func (r *DrawingRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]*drawing.Drawing, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, drawingFindQuery+" WHERE project_id = $1 ORDER BY number", projectID)
	if err != nil {
		return nil, errors.Wrap(err, "query drawings")
	}
	defer rows.Close()

	var out []*drawing.Drawing
	for rows.Next() {
		var d drawing.Drawing
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Number, &d.Title, &d.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan drawing")
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *DrawingRepository) Create(ctx context.Context, d *drawing.Drawing) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		ctx,
		`INSERT INTO drawings (id, project_id, number, title, created_at) VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.ProjectID, d.Number, d.Title, d.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert drawing")
	}
	return nil
}
