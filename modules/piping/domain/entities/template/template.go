package template

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Standard milestone set names. Every project is seeded with these five;
// the import path only ever reads them.
const (
	Full       = "Full Milestone Set"
	Reduced    = "Reduced Milestone Set"
	FieldWeld  = "Field Weld"
	Insulation = "Insulation"
	Paint      = "Paint"
)

// WeightTolerance bounds rounding drift on a template's weight sum.
const WeightTolerance = 0.01

// Milestone is one weighted checklist step definition.
type Milestone struct {
	Name   string
	Weight float64
}

// Template is a named, ordered milestone checklist copied onto components
// at creation time.
type Template struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	Name       string
	Milestones []Milestone
}

// Validate checks the weight-sum invariant.
func (t *Template) Validate() error {
	var sum float64
	for _, m := range t.Milestones {
		sum += m.Weight
	}
	if math.Abs(sum-100) > WeightTolerance {
		return fmt.Errorf("template %q milestone weights sum to %.2f, want 100", t.Name, sum)
	}
	return nil
}

// Standard returns the five built-in milestone sets. Used when seeding a
// project and by dry-run template resolution, which never opens the store.
func Standard() []*Template {
	return []*Template{
		{
			Name: Full,
			Milestones: []Milestone{
				{Name: "Received", Weight: 5},
				{Name: "Fit-up", Weight: 10},
				{Name: "Welded", Weight: 30},
				{Name: "Installed", Weight: 30},
				{Name: "Tested", Weight: 15},
				{Name: "Insulated", Weight: 5},
				{Name: "Commissioned", Weight: 5},
			},
		},
		{
			Name: Reduced,
			Milestones: []Milestone{
				{Name: "Received", Weight: 10},
				{Name: "Installed", Weight: 60},
				{Name: "Tested", Weight: 30},
			},
		},
		{
			Name: FieldWeld,
			Milestones: []Milestone{
				{Name: "Fit-up", Weight: 10},
				{Name: "Welded", Weight: 60},
				{Name: "Tested", Weight: 30},
			},
		},
		{
			Name: Insulation,
			Milestones: []Milestone{
				{Name: "Received", Weight: 20},
				{Name: "Insulated", Weight: 80},
			},
		},
		{
			Name: Paint,
			Milestones: []Milestone{
				{Name: "Received", Weight: 20},
				{Name: "Primed", Weight: 30},
				{Name: "Painted", Weight: 50},
			},
		},
	}
}

type Repository interface {
	GetByProject(ctx context.Context, projectID uuid.UUID) ([]*Template, error)
}
