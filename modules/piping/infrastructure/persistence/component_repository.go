package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
	"github.com/fieldforge/pipetrak/pkg/composables"
)

var ErrComponentNotFound = fmt.Errorf("component not found")

const componentFindQuery = `
	SELECT id, project_id, identifier, type, spec, size, material, area, system, test_package,
	       drawing_number, drawing_id, template_id, workflow,
	       instance_number, instance_total, display_label, created_at, updated_at
	FROM components`

type ComponentRepository struct{}

func NewComponentRepository() component.Repository {
	return &ComponentRepository{}
}

func (r *ComponentRepository) GetByIdentifier(ctx context.Context, projectID uuid.UUID, identifier string) ([]*component.Component, error) {
	query := componentFindQuery + " WHERE project_id = $1 AND identifier = $2 ORDER BY instance_number"
	return r.queryComponents(ctx, query, projectID, identifier)
}

func (r *ComponentRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]*component.Component, error) {
	query := componentFindQuery + " WHERE project_id = $1 ORDER BY identifier, instance_number"
	return r.queryComponents(ctx, query, projectID)
}

func (r *ComponentRepository) Create(ctx context.Context, c *component.Component) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		ctx,
		`INSERT INTO components (
			id, project_id, identifier, type, spec, size, material, area, system, test_package,
			drawing_number, drawing_id, template_id, workflow,
			instance_number, instance_total, display_label, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		c.ID, c.ProjectID, c.Identifier, c.Type, c.Spec, c.Size, c.Material, c.Area, c.System, c.TestPackage,
		c.DrawingNumber, c.DrawingID, c.TemplateID, string(c.Workflow),
		c.InstanceNumber, c.InstanceTotal, c.DisplayLabel, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert component")
	}
	return nil
}

func (r *ComponentRepository) Update(ctx context.Context, c *component.Component) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(
		ctx,
		`UPDATE components SET
			type = $2, spec = $3, size = $4, material = $5, area = $6, system = $7, test_package = $8,
			drawing_number = $9, drawing_id = $10, template_id = $11, workflow = $12,
			instance_number = $13, instance_total = $14, display_label = $15, updated_at = $16
		WHERE id = $1`,
		c.ID, c.Type, c.Spec, c.Size, c.Material, c.Area, c.System, c.TestPackage,
		c.DrawingNumber, c.DrawingID, c.TemplateID, string(c.Workflow),
		c.InstanceNumber, c.InstanceTotal, c.DisplayLabel, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update component")
	}
	if tag.RowsAffected() == 0 {
		return ErrComponentNotFound
	}
	return nil
}

func (r *ComponentRepository) ReplaceMilestones(ctx context.Context, componentID uuid.UUID, milestones []component.Milestone) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM component_milestones WHERE component_id = $1`, componentID); err != nil {
		return errors.Wrap(err, "delete prior milestones")
	}
	for i, m := range milestones {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO component_milestones (
				component_id, position, name, weight, completed, percent,
				qty_complete, qty_required, unit, completed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			componentID, i, m.Name, m.Weight, m.Completed, m.Percent,
			m.QtyComplete, m.QtyRequired, m.Unit, m.CompletedAt,
		)
		if err != nil {
			return errors.Wrapf(err, "insert milestone %q", m.Name)
		}
	}
	return nil
}

func (r *ComponentRepository) queryComponents(ctx context.Context, query string, args ...any) ([]*component.Component, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query components")
	}
	defer rows.Close()

	var out []*component.Component
	for rows.Next() {
		var c component.Component
		var workflow string
		if err := rows.Scan(
			&c.ID, &c.ProjectID, &c.Identifier, &c.Type, &c.Spec, &c.Size, &c.Material, &c.Area, &c.System, &c.TestPackage,
			&c.DrawingNumber, &c.DrawingID, &c.TemplateID, &workflow,
			&c.InstanceNumber, &c.InstanceTotal, &c.DisplayLabel, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan component")
		}
		c.Workflow = component.WorkflowKind(workflow)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range out {
		if err := r.loadMilestones(ctx, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *ComponentRepository) loadMilestones(ctx context.Context, c *component.Component) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(
		ctx,
		`SELECT name, weight, completed, percent, qty_complete, qty_required, unit, completed_at
		 FROM component_milestones WHERE component_id = $1 ORDER BY position`,
		c.ID,
	)
	if err != nil {
		return errors.Wrap(err, "query milestones")
	}
	defer rows.Close()

	for rows.Next() {
		var m component.Milestone
		if err := rows.Scan(&m.Name, &m.Weight, &m.Completed, &m.Percent, &m.QtyComplete, &m.QtyRequired, &m.Unit, &m.CompletedAt); err != nil {
			return errors.Wrap(err, "scan milestone")
		}
		c.Milestones = append(c.Milestones, m)
	}
	return rows.Err()
}
