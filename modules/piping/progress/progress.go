// Package progress derives completion percentages and lifecycle status from
// milestone state. Both the import pipeline and live recomputation go
// through Compute; nothing else may derive these values.
package progress

import (
	"math"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
)

// Compute returns the weight-normalized completion percentage (0-100) and
// the derived lifecycle status for one component's milestone set.
func Compute(kind component.WorkflowKind, milestones []component.Milestone) (int, component.Status) {
	if len(milestones) == 0 {
		return 0, component.StatusNotStarted
	}

	var weightSum, earned float64
	anyProgress := false
	allComplete := true

	for _, m := range milestones {
		w := m.Weight
		if w <= 0 {
			// Unweighted entries still participate; they count equally.
			w = 1
		}
		frac := fraction(kind, m)
		weightSum += w
		earned += w * frac

		if frac > 0 {
			anyProgress = true
		}
		if frac < 1 {
			allComplete = false
		}
	}

	pct := 0
	if weightSum > 0 {
		pct = int(math.Round(earned / weightSum * 100))
	}

	switch {
	case allComplete:
		return pct, component.StatusCompleted
	case anyProgress:
		return pct, component.StatusInProgress
	default:
		return pct, component.StatusNotStarted
	}
}

// fraction maps one milestone entry to its completion fraction in [0, 1].
func fraction(kind component.WorkflowKind, m component.Milestone) float64 {
	switch kind {
	case component.WorkflowPercentage:
		return clamp01(m.Percent / 100)
	case component.WorkflowQuantity:
		// Zero required quantity contributes nothing rather than dividing
		// by zero.
		if m.QtyRequired <= 0 {
			return 0
		}
		return clamp01(m.QtyComplete / m.QtyRequired)
	default:
		if m.Completed {
			return 1
		}
		return 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
