package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/importrun"
	"github.com/fieldforge/pipetrak/pkg/composables"
)

type ImportRunRepository struct{}

func NewImportRunRepository() importrun.Repository {
	return &ImportRunRepository{}
}

func (r *ImportRunRepository) Create(ctx context.Context, run *importrun.Run) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		ctx,
		`INSERT INTO import_runs (
			id, project_id, user_id, filename,
			total_rows, created_rows, updated_rows, skipped_rows, failed_rows,
			error_count, warning_count, partial_result, success,
			started_at, finished_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		run.ID, run.ProjectID, run.UserID, run.Filename,
		run.TotalRows, run.CreatedRows, run.UpdatedRows, run.SkippedRows, run.FailedRows,
		run.ErrorCount, run.WarningCount, run.PartialResult, run.Success,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert import run")
	}
	return nil
}
