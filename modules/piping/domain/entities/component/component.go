package component

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkflowKind determines how milestone done-ness is recorded for a
// component: binary flag, percentage, or quantity pair.
type WorkflowKind string

const (
	WorkflowDiscrete   WorkflowKind = "DISCRETE"
	WorkflowPercentage WorkflowKind = "PERCENTAGE"
	WorkflowQuantity   WorkflowKind = "QUANTITY"
)

func (k WorkflowKind) Valid() bool {
	switch k {
	case WorkflowDiscrete, WorkflowPercentage, WorkflowQuantity:
		return true
	}
	return false
}

// Status is always derived from milestone state, never written directly.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Milestone is one checklist step of a component. Which value field carries
// meaning depends on the owning component's workflow kind.
type Milestone struct {
	Name        string
	Weight      float64
	Completed   bool
	Percent     float64
	QtyComplete float64
	QtyRequired float64
	Unit        string
	CompletedAt *time.Time

	// ValuePresent records whether the source file carried an explicit
	// value for this entry. Absence is a validator warning, not an error.
	ValuePresent bool
}

// Component is one trackable physical item instance on a drawing.
type Component struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	Identifier string
	Type       string

	Spec        string
	Size        string
	Material    string
	Area        string
	System      string
	TestPackage string

	DrawingNumber string
	DrawingID     *uuid.UUID
	TemplateID    uuid.UUID
	Workflow      WorkflowKind

	// Instance bookkeeping for part numbers repeating on one drawing.
	// (drawing, identifier, instance number) is unique in the store.
	InstanceNumber int
	InstanceTotal  int
	DisplayLabel   string

	Milestones []Milestone

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayLabel renders the human identifier for one occurrence of a part.
func FormatDisplayLabel(identifier string, instance, total int) string {
	if total <= 1 {
		return identifier
	}
	return fmt.Sprintf("%s (%d of %d)", identifier, instance, total)
}
