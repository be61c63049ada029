package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldforge/pipetrak/modules/piping/importer"
	"github.com/fieldforge/pipetrak/modules/piping/infrastructure/persistence"
	"github.com/fieldforge/pipetrak/modules/piping/services"
	"github.com/fieldforge/pipetrak/pkg/configuration"
)

type importCmdOptions struct {
	projectID      uuid.UUID
	userID         *uuid.UUID
	dryRun         bool
	skipDuplicates bool
	updateExisting bool
	allowPartial   bool
	jsonOut        bool
}

func newImportCmd() *cobra.Command {
	var opts importCmdOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import components from an Excel, CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate and report without writing anything")
	cmd.Flags().BoolVar(&opts.skipDuplicates, "skip-duplicates", false, "Skip rows whose component already exists")
	cmd.Flags().BoolVar(&opts.updateExisting, "update-existing", false, "Update components that already exist")
	cmd.Flags().BoolVar(&opts.allowPartial, "allow-partial", false, "Import valid rows even when some rows fail validation")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the result as one JSON line")

	var project, user string
	cmd.Flags().StringVar(&project, "project-id", "", "Project UUID (required)")
	cmd.Flags().StringVar(&user, "user-id", "", "User UUID recorded on the import run")

	_ = cmd.MarkFlagRequired("project-id")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(strings.TrimSpace(project))
		if err != nil {
			return withCode(exitFailure, fmt.Errorf("invalid --project-id: %w", err))
		}
		opts.projectID = id
		if user != "" {
			uid, err := uuid.Parse(strings.TrimSpace(user))
			if err != nil {
				return withCode(exitFailure, fmt.Errorf("invalid --user-id: %w", err))
			}
			opts.userID = &uid
		}
		if opts.skipDuplicates && opts.updateExisting {
			return withCode(exitFailure, fmt.Errorf("--skip-duplicates and --update-existing are mutually exclusive"))
		}
		return nil
	}

	return cmd
}

func runImport(ctx context.Context, path string, opts importCmdOptions) error {
	conf := configuration.Use()
	log := conf.Logger().WithField("command", "import")

	policy := importer.DuplicateError
	switch {
	case opts.skipDuplicates:
		policy = importer.DuplicateSkip
	case opts.updateExisting:
		policy = importer.DuplicateUpdate
	}

	jobOpts := importer.Options{
		ProjectID:    opts.projectID,
		UserID:       opts.userID,
		Policy:       policy,
		DryRun:       opts.dryRun,
		AllowPartial: opts.allowPartial,
		BatchSize:    conf.Import.BatchSize,
		MaxAttempts:  conf.Import.MaxAttempts,
		RetryBackoff: conf.Import.RetryBackoff,
		BatchPause:   conf.Import.BatchPause,
	}

	var store importer.Store
	if !opts.dryRun {
		pool, err := connectDB(ctx)
		if err != nil {
			return withCode(exitFailure, err)
		}
		defer pool.Close()
		store = persistence.NewStore(pool)
	}

	svc := services.NewImportService(store, log)
	res, err := svc.Import(ctx, path, jobOpts)
	if err != nil {
		return withCode(exitFailure, err)
	}

	if opts.jsonOut {
		if err := writeJSONLine(res); err != nil {
			return err
		}
	} else {
		printImportSummary(res)
	}

	if !res.Success {
		printRemediation(res)
		return withCode(exitFailure, fmt.Errorf("import failed: %d of %d rows not imported", res.FailedRows, res.TotalRows))
	}
	return nil
}
