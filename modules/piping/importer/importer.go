package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/importrun"
	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/template"
)

// Job runs one import end to end: ingest, normalize, resolve, validate,
// persist. All per-job state (instance counters, drawing titles, results)
// lives on the job; nothing is shared between jobs.
type Job struct {
	store Store
	log   *logrus.Entry
	opts  Options
}

func NewJob(store Store, log *logrus.Entry, opts Options) *Job {
	return &Job{store: store, log: log, opts: opts.withDefaults()}
}

// Run executes the job for one file. A FormatError or a project without
// templates aborts before any row is touched; every other condition is
// captured into the result so the job always completes with one.
func (j *Job) Run(ctx context.Context, path string) (*Result, error) {
	res := &Result{
		RunID:     uuid.New(),
		DryRun:    j.opts.DryRun,
		StartedAt: time.Now().UTC(),
	}
	log := j.log.WithField("run_id", res.RunID)

	log.WithField("file", path).Info("parsing import file")
	set, err := Ingest(path)
	if err != nil {
		return nil, err
	}

	records := NormalizeComponents(set)
	drawingTitles := NormalizeDrawings(set)

	templates, err := j.loadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := NewTemplateResolver(templates, log)
	if err != nil {
		return nil, err
	}
	resolver.Annotate(records)

	log.WithField("records", len(records)).Info("validating")
	validation := Validate(records, drawingTitles)
	res.Errors = append(res.Errors, validation.Errors...)
	res.Warnings = append(res.Warnings, validation.Warnings...)

	if !validation.Valid && !j.opts.AllowPartial {
		res.TotalRows = len(records)
		res.FailedRows = len(records)
		res.Success = false
		res.FinishedAt = time.Now().UTC()
		return res, nil
	}

	if j.opts.DryRun {
		// Report the would-be outcome without ever opening the store.
		badRows := len(rowsWithErrors(validation.Errors))
		res.TotalRows = len(records)
		res.ProcessedRows = len(records)
		res.SucceededRows = len(records) - badRows
		res.FailedRows = badRows
		res.Partial = res.FailedRows > 0 && res.SucceededRows > 0
		res.Success = res.FailedRows == 0
		res.FinishedAt = time.Now().UTC()
		return res, nil
	}

	tracker := NewInstanceTracker(records)
	AssignInstances(records, tracker)

	log.WithField("records", len(records)).Info("importing")
	engine := NewBatchEngine(j.store, log, j.opts, drawingTitles)
	engine.Persist(ctx, records, res)
	res.FinishedAt = time.Now().UTC()

	if err := j.store.CreateRun(ctx, runRecord(path, j.opts, res)); err != nil {
		// The data is in; a missing audit row is worth a warning, not a
		// failed job.
		log.WithError(err).Warn("failed to write import run record")
	}

	return res, nil
}

// loadTemplates reads the project's milestone templates, or serves the
// built-in standard set on dry runs so the store is never opened.
func (j *Job) loadTemplates(ctx context.Context) ([]*template.Template, error) {
	if j.opts.DryRun {
		return template.Standard(), nil
	}
	return j.store.TemplatesByProject(ctx, j.opts.ProjectID)
}

func rowsWithErrors(errs []ValidationError) map[int]struct{} {
	rows := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		rows[e.Row] = struct{}{}
	}
	return rows
}

func runRecord(path string, opts Options, res *Result) *importrun.Run {
	return &importrun.Run{
		ID:            res.RunID,
		ProjectID:     opts.ProjectID,
		UserID:        opts.UserID,
		Filename:      path,
		TotalRows:     res.TotalRows,
		CreatedRows:   res.CreatedRows,
		UpdatedRows:   res.UpdatedRows,
		SkippedRows:   res.SkippedRows,
		FailedRows:    res.FailedRows,
		ErrorCount:    len(res.Errors),
		WarningCount:  len(res.Warnings),
		PartialResult: res.Partial,
		Success:       res.Success,
		StartedAt:     res.StartedAt,
		FinishedAt:    res.FinishedAt,
	}
}
