package services

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
	"github.com/fieldforge/pipetrak/modules/piping/progress"
)

// ComponentReader is the read surface the progress report needs.
type ComponentReader interface {
	Components(ctx context.Context, projectID uuid.UUID) ([]*component.Component, error)
}

// ComponentProgress is one component's recomputed state. Nothing here is
// read back from storage; percent and status always come from the
// milestones.
type ComponentProgress struct {
	ComponentID  uuid.UUID        `json:"componentId"`
	DisplayLabel string           `json:"displayLabel"`
	Area         string           `json:"area,omitempty"`
	System       string           `json:"system,omitempty"`
	Percent      int              `json:"percent"`
	Status       component.Status `json:"status"`
}

// AreaProgress is the rollup of every component sharing an area. The
// percent is the plain average of the member percentages.
type AreaProgress struct {
	Area       string `json:"area"`
	Components int    `json:"components"`
	Completed  int    `json:"completed"`
	Percent    int    `json:"percent"`
}

type ProjectProgress struct {
	ProjectID  uuid.UUID           `json:"projectId"`
	Components []ComponentProgress `json:"components"`
	Areas      []AreaProgress      `json:"areas"`
	Overall    int                 `json:"overall"`
}

type ProgressService struct {
	components ComponentReader
}

func NewProgressService(components ComponentReader) *ProgressService {
	return &ProgressService{components: components}
}

// Project recomputes progress for every component in the project and
// rolls it up by area. Components without an area land in one unnamed
// bucket.
func (s *ProgressService) Project(ctx context.Context, projectID uuid.UUID) (*ProjectProgress, error) {
	comps, err := s.components.Components(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := &ProjectProgress{ProjectID: projectID}
	byArea := make(map[string]*AreaProgress)
	sum := 0

	for _, c := range comps {
		pct, status := progress.Compute(c.Workflow, c.Milestones)
		out.Components = append(out.Components, ComponentProgress{
			ComponentID:  c.ID,
			DisplayLabel: c.DisplayLabel,
			Area:         c.Area,
			System:       c.System,
			Percent:      pct,
			Status:       status,
		})
		sum += pct

		ap := byArea[c.Area]
		if ap == nil {
			ap = &AreaProgress{Area: c.Area}
			byArea[c.Area] = ap
		}
		ap.Components++
		ap.Percent += pct
		if status == component.StatusCompleted {
			ap.Completed++
		}
	}

	for _, ap := range byArea {
		ap.Percent = int(math.Round(float64(ap.Percent) / float64(ap.Components)))
		out.Areas = append(out.Areas, *ap)
	}
	sort.Slice(out.Areas, func(i, j int) bool { return out.Areas[i].Area < out.Areas[j].Area })

	if len(comps) > 0 {
		out.Overall = int(math.Round(float64(sum) / float64(len(comps))))
	}
	return out, nil
}
