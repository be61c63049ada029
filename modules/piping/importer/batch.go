package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/importrun"
	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/template"
	"github.com/fieldforge/pipetrak/modules/piping/progress"
)

// Store is the persistence collaborator of one import job. The pgx
// implementation lives in infrastructure/persistence; tests use an
// in-memory fake. Transactional atomicity and the (drawing, identifier,
// instance) uniqueness constraint are the store's responsibility.
type Store interface {
	// InTx runs fn inside one transaction; every Store call made with the
	// context fn receives joins that transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// InSavepoint runs fn inside a savepoint on the surrounding
	// transaction. A failing fn discards only its own writes; the batch
	// transaction stays open for the remaining records.
	InSavepoint(ctx context.Context, fn func(ctx context.Context) error) error

	TemplatesByProject(ctx context.Context, projectID uuid.UUID) ([]*template.Template, error)
	FindComponents(ctx context.Context, projectID uuid.UUID, identifier string) ([]*component.Component, error)
	CreateComponent(ctx context.Context, c *component.Component) error
	UpdateComponent(ctx context.Context, c *component.Component) error
	ReplaceMilestones(ctx context.Context, componentID uuid.UUID, milestones []component.Milestone) error
	// EnsureDrawing finds a drawing by number or creates it implicitly.
	EnsureDrawing(ctx context.Context, projectID uuid.UUID, number, title string) (uuid.UUID, error)
	CreateRun(ctx context.Context, r *importrun.Run) error
}

// BatchEngine durably writes validated, normalized records in fixed-size
// sequential batches, one transaction per batch.
type BatchEngine struct {
	store         Store
	log           *logrus.Entry
	opts          Options
	drawingTitles map[string]string
}

func NewBatchEngine(store Store, log *logrus.Entry, opts Options, drawingTitles map[string]string) *BatchEngine {
	return &BatchEngine{
		store:         store,
		log:           log,
		opts:          opts.withDefaults(),
		drawingTitles: drawingTitles,
	}
}

type batchResult struct {
	processed int
	succeeded int
	failed    int
	created   int
	updated   int
	skipped   int
	errors    []ValidationError
	warnings  []ValidationError
}

// Persist writes all records and consolidates per-batch results into the
// given job result. Batches run strictly one after another to bound load
// on the store.
func (e *BatchEngine) Persist(ctx context.Context, records []Record, res *Result) {
	res.TotalRows = len(records)

	batches := chunkRecords(records, e.opts.BatchSize)
	for bi, batch := range batches {
		br, err := e.runBatchWithRetry(ctx, bi, batch)
		if err != nil {
			// The whole batch failed after exhausting retries: one
			// aggregate error, not one per row.
			res.ProcessedRows += len(batch)
			res.FailedRows += len(batch)
			res.Errors = append(res.Errors, ValidationError{
				Row:      batch[0].RowIndex,
				Field:    "batch",
				Code:     CodeBatchFailed,
				Message:  fmt.Sprintf("batch %d (%d records) failed after %d attempts: %v", bi+1, len(batch), e.opts.MaxAttempts, err),
				Severity: SeverityError,
			})
		} else {
			res.ProcessedRows += br.processed
			res.SucceededRows += br.succeeded
			res.FailedRows += br.failed
			res.CreatedRows += br.created
			res.UpdatedRows += br.updated
			res.SkippedRows += br.skipped
			res.Errors = append(res.Errors, br.errors...)
			res.Warnings = append(res.Warnings, br.warnings...)
		}

		if bi < len(batches)-1 && e.opts.BatchPause > 0 {
			time.Sleep(e.opts.BatchPause)
		}
	}

	res.Partial = res.SucceededRows > 0 && res.SucceededRows < res.TotalRows
	res.Success = res.FailedRows == 0
}

func (e *BatchEngine) runBatchWithRetry(ctx context.Context, bi int, batch []Record) (batchResult, error) {
	var br batchResult
	var err error

	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		// Reset on every attempt: a failed transaction wrote nothing, so
		// its per-row accounting is void.
		br = batchResult{}
		err = e.store.InTx(ctx, func(txCtx context.Context) error {
			for i := range batch {
				e.processRecord(txCtx, &batch[i], &br)
			}
			return nil
		})
		if err == nil {
			return br, nil
		}
		if attempt == e.opts.MaxAttempts {
			break
		}

		backoff := e.opts.RetryBackoff << (attempt - 1)
		e.log.WithFields(logrus.Fields{
			"batch":   bi + 1,
			"attempt": attempt,
			"backoff": backoff.String(),
		}).WithError(err).Warn("batch write failed, retrying")
		time.Sleep(backoff)
	}
	return br, err
}

// processRecord writes one record inside the surrounding batch
// transaction. Each record's writes run under their own savepoint, so a
// row-level SQL failure discards that row alone instead of poisoning the
// transaction; the rest of the batch still commits. Only transaction-level
// failures propagate.
func (e *BatchEngine) processRecord(ctx context.Context, rec *Record, br *batchResult) {
	br.processed++

	if rec.Identifier == "" {
		// Validation already reported MISSING_IDENTIFIER for this row;
		// here it only counts against the totals.
		br.failed++
		return
	}

	err := e.store.InSavepoint(ctx, func(spCtx context.Context) error {
		return e.writeRecord(spCtx, rec, br)
	})
	if err != nil {
		e.recordFailure(rec, br, err)
	}
}

func (e *BatchEngine) writeRecord(ctx context.Context, rec *Record, br *batchResult) error {
	var drawingID *uuid.UUID
	if rec.DrawingNumber != "" {
		id, err := e.store.EnsureDrawing(ctx, e.opts.ProjectID, rec.DrawingNumber, e.drawingTitles[rec.DrawingNumber])
		if err != nil {
			return fmt.Errorf("ensure drawing %q: %w", rec.DrawingNumber, err)
		}
		drawingID = &id
	}

	comp := e.buildComponent(rec, drawingID)

	existing, err := e.store.FindComponents(ctx, e.opts.ProjectID, rec.Identifier)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", rec.Identifier, err)
	}

	if len(existing) > 0 {
		switch e.opts.Policy {
		case DuplicateSkip:
			br.skipped++
			br.warnings = append(br.warnings, ValidationError{
				Row:      rec.RowIndex,
				Field:    "identifier",
				Code:     CodeDuplicateSkipped,
				Message:  fmt.Sprintf("component %q already exists, skipped", rec.Identifier),
				Severity: SeverityWarning,
				Current:  rec.Identifier,
			})
			return nil
		case DuplicateUpdate:
			target := matchInstance(existing, comp)
			if target == nil {
				break // new instance of an existing part number
			}
			comp.ID = target.ID
			comp.CreatedAt = target.CreatedAt
			if err := e.store.UpdateComponent(ctx, comp); err != nil {
				return fmt.Errorf("update %q: %w", rec.Identifier, err)
			}
			if err := e.store.ReplaceMilestones(ctx, comp.ID, comp.Milestones); err != nil {
				return fmt.Errorf("write milestones for %q: %w", rec.Identifier, err)
			}
			br.updated++
			br.succeeded++
			e.logProgress(comp)
			return nil
		default:
			br.failed++
			br.errors = append(br.errors, ValidationError{
				Row:      rec.RowIndex,
				Field:    "identifier",
				Code:     CodeDuplicateExists,
				Message:  fmt.Sprintf("component %q already exists in the project", rec.Identifier),
				Severity: SeverityError,
				Current:  rec.Identifier,
			})
			return nil
		}
	}

	comp.ID = uuid.New()
	if err := e.store.CreateComponent(ctx, comp); err != nil {
		return fmt.Errorf("create %q: %w", rec.Identifier, err)
	}
	if err := e.store.ReplaceMilestones(ctx, comp.ID, comp.Milestones); err != nil {
		return fmt.Errorf("write milestones for %q: %w", rec.Identifier, err)
	}
	br.created++
	br.succeeded++
	e.logProgress(comp)
	return nil
}

func (e *BatchEngine) recordFailure(rec *Record, br *batchResult, err error) {
	br.failed++
	br.errors = append(br.errors, ValidationError{
		Row:      rec.RowIndex,
		Field:    "record",
		Code:     CodeRecordFailed,
		Message:  err.Error(),
		Severity: SeverityError,
		Current:  rec.Identifier,
	})
}

func (e *BatchEngine) logProgress(comp *component.Component) {
	pct, status := progress.Compute(comp.Workflow, comp.Milestones)
	e.log.WithFields(logrus.Fields{
		"component": comp.DisplayLabel,
		"percent":   pct,
		"status":    status,
	}).Debug("component written")
}

// buildComponent maps a canonical record onto the persisted shape,
// copying template milestones when the file carried none and filling
// missing weights with equal shares.
func (e *BatchEngine) buildComponent(rec *Record, drawingID *uuid.UUID) *component.Component {
	milestones := rec.Milestones
	if len(milestones) == 0 && rec.Template != nil {
		milestones = make([]component.Milestone, 0, len(rec.Template.Milestones))
		for _, m := range rec.Template.Milestones {
			milestones = append(milestones, component.Milestone{Name: m.Name, Weight: m.Weight})
		}
	} else {
		milestones = append([]component.Milestone(nil), milestones...)
	}
	defaultWeights(milestones)

	var templateID uuid.UUID
	if rec.Template != nil {
		templateID = rec.Template.ID
	}

	now := time.Now().UTC()
	return &component.Component{
		ProjectID:      e.opts.ProjectID,
		Identifier:     rec.Identifier,
		Type:           rec.Type,
		Spec:           rec.Spec,
		Size:           rec.Size,
		Material:       rec.Material,
		Area:           rec.Area,
		System:         rec.System,
		TestPackage:    rec.TestPackage,
		DrawingNumber:  rec.DrawingNumber,
		DrawingID:      drawingID,
		TemplateID:     templateID,
		Workflow:       rec.Workflow,
		InstanceNumber: rec.InstanceNumber,
		InstanceTotal:  rec.InstanceTotal,
		DisplayLabel:   Label(*rec),
		Milestones:     milestones,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// defaultWeights assigns an equal share of 100 to entries missing a weight,
// divided across the component's own milestone count.
func defaultWeights(milestones []component.Milestone) {
	if len(milestones) == 0 {
		return
	}
	share := 100 / float64(len(milestones))
	for i := range milestones {
		if milestones[i].Weight <= 0 {
			milestones[i].Weight = share
		}
	}
}

// matchInstance finds the persisted row for the same physical occurrence:
// same drawing and instance number.
func matchInstance(existing []*component.Component, incoming *component.Component) *component.Component {
	for _, c := range existing {
		if c.InstanceNumber == incoming.InstanceNumber && sameDrawing(c, incoming) {
			return c
		}
	}
	return nil
}

func sameDrawing(a, b *component.Component) bool {
	return a.DrawingNumber == b.DrawingNumber
}

func chunkRecords(records []Record, size int) [][]Record {
	if len(records) == 0 {
		return nil
	}
	var out [][]Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}
