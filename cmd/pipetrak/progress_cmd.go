package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldforge/pipetrak/modules/piping/infrastructure/persistence"
	"github.com/fieldforge/pipetrak/modules/piping/services"
)

func newProgressCmd() *cobra.Command {
	var project string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Report per-area completion for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(project))
			if err != nil {
				return withCode(exitFailure, fmt.Errorf("invalid --project-id: %w", err))
			}
			return runProgress(cmd.Context(), id, jsonOut)
		},
	}

	cmd.Flags().StringVar(&project, "project-id", "", "Project UUID (required)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as one JSON line")
	_ = cmd.MarkFlagRequired("project-id")

	return cmd
}

func runProgress(ctx context.Context, projectID uuid.UUID, jsonOut bool) error {
	pool, err := connectDB(ctx)
	if err != nil {
		return withCode(exitFailure, err)
	}
	defer pool.Close()

	svc := services.NewProgressService(persistence.NewStore(pool))
	report, err := svc.Project(ctx, projectID)
	if err != nil {
		return withCode(exitFailure, err)
	}

	if jsonOut {
		return writeJSONLine(report)
	}

	fmt.Printf("project %s: %d%% complete (%d components)\n", projectID, report.Overall, len(report.Components))
	for _, area := range report.Areas {
		name := area.Area
		if name == "" {
			name = "(no area)"
		}
		fmt.Printf("  %-20s %3d%%  %d/%d complete\n", name, area.Percent, area.Completed, area.Components)
	}
	return nil
}
