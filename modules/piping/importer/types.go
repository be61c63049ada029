// Package importer implements the bulk ingestion pipeline: file parsing,
// field normalization, template resolution, validation, instance tracking,
// and transactional batch persistence.
package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/template"
)

// FormatError reports a file the ingestor cannot read at all. It is the
// only per-file condition that aborts a job before it starts.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported import file %s: %s", e.Path, e.Reason)
}

// RawRow is one source row before normalization. Values are keyed by the
// source column/property name; spreadsheet and CSV input yields strings,
// JSON input may yield booleans and numbers.
type RawRow struct {
	Index  int
	Values map[string]any
}

// RawRecordSet is the ingestor's output: component rows plus any auxiliary
// drawing and milestone rows the file carried.
type RawRecordSet struct {
	Components []RawRow
	Drawings   []RawRow
	Milestones []RawRow
}

// Record is the canonical component record. Produced by the normalizer,
// annotated by the template resolver, and read-only from then on.
type Record struct {
	RowIndex   int
	Identifier string
	Type       string

	Spec        string
	Size        string
	Material    string
	Area        string
	System      string
	TestPackage string

	DrawingNumber string

	Workflow    component.WorkflowKind
	WorkflowRaw string
	// WorkflowMatched reports whether WorkflowRaw mapped onto a kind;
	// unmatched text falls back to DISCRETE and gets flagged.
	WorkflowMatched bool

	Milestones []component.Milestone

	// Set by the template resolver.
	Template *template.Template

	// Set by the instance assignment pass before persistence.
	InstanceNumber int
	InstanceTotal  int
}

// Severity of a validation finding. Errors gate persistence unless the job
// explicitly allows partial success; warnings never gate.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Validation error codes.
const (
	CodeMissingIdentifier    = "MISSING_IDENTIFIER"
	CodeInvalidWorkflow      = "INVALID_WORKFLOW"
	CodeUnknownDrawing       = "UNKNOWN_DRAWING"
	CodeDuplicateInImport    = "DUPLICATE_IN_IMPORT"
	CodeMissingMilestoneName = "MISSING_MILESTONE_NAME"
	CodeMissingPercentValue  = "MISSING_PERCENT_VALUE"
	CodeMissingQuantityValue = "MISSING_QUANTITY_VALUE"
	CodeDuplicateExists      = "DUPLICATE_EXISTS"
	CodeDuplicateSkipped     = "DUPLICATE_SKIPPED"
	CodeRecordFailed         = "RECORD_FAILED"
	CodeBatchFailed          = "BATCH_FAILED"
)

// ValidationError is one per-row finding.
type ValidationError struct {
	Row       int      `json:"row"`
	Field     string   `json:"field"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Current   string   `json:"current,omitempty"`
	Suggested string   `json:"suggested,omitempty"`
}

// DuplicatePolicy governs records whose identifier already exists in the
// store. Intra-file duplicates are always a validation error regardless of
// policy.
type DuplicatePolicy string

const (
	DuplicateError  DuplicatePolicy = "error"
	DuplicateSkip   DuplicatePolicy = "skip"
	DuplicateUpdate DuplicatePolicy = "update"
)

// Options configures one import job.
type Options struct {
	ProjectID    uuid.UUID
	UserID       *uuid.UUID
	Policy       DuplicatePolicy
	DryRun       bool
	AllowPartial bool

	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
	BatchPause   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Policy == "" {
		o.Policy = DuplicateError
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	return o
}

// Result is the per-job aggregate. Immutable once returned.
type Result struct {
	RunID uuid.UUID `json:"run_id"`

	TotalRows     int `json:"total_rows"`
	ProcessedRows int `json:"processed_rows"`
	SucceededRows int `json:"succeeded_rows"`
	FailedRows    int `json:"failed_rows"`

	CreatedRows int `json:"created_rows"`
	UpdatedRows int `json:"updated_rows"`
	SkippedRows int `json:"skipped_rows"`

	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`

	Partial bool `json:"partial"`
	Success bool `json:"success"`
	DryRun  bool `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
