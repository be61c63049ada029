package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/template"
	"github.com/fieldforge/pipetrak/pkg/composables"
)

type TemplateRepository struct{}

func NewTemplateRepository() template.Repository {
	return &TemplateRepository{}
}

func (r *TemplateRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]*template.Template, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(
		ctx,
		`SELECT id, project_id, name FROM milestone_templates WHERE project_id = $1 ORDER BY name`,
		projectID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query templates")
	}
	defer rows.Close()

	var out []*template.Template
	for rows.Next() {
		var t template.Template
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name); err != nil {
			return nil, errors.Wrap(err, "scan template")
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range out {
		if err := r.loadMilestones(ctx, t); err != nil {
			return nil, err
		}
		if err := t.Validate(); err != nil {
			return nil, errors.Wrap(err, "template invariant")
		}
	}
	return out, nil
}

func (r *TemplateRepository) loadMilestones(ctx context.Context, t *template.Template) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(
		ctx,
		`SELECT name, weight FROM template_milestones WHERE template_id = $1 ORDER BY position`,
		t.ID,
	)
	if err != nil {
		return errors.Wrap(err, "query template milestones")
	}
	defer rows.Close()

	for rows.Next() {
		var m template.Milestone
		if err := rows.Scan(&m.Name, &m.Weight); err != nil {
			return errors.Wrap(err, "scan template milestone")
		}
		t.Milestones = append(t.Milestones, m)
	}
	return rows.Err()
}
