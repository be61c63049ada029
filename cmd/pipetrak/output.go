package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fieldforge/pipetrak/modules/piping/importer"
)

func writeJSONLine(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitFailure, fmt.Errorf("json encode: %w", err))
	}
	return nil
}

func printImportSummary(res *importer.Result) {
	mode := "applied"
	if res.DryRun {
		mode = "dry_run"
	}
	fmt.Printf("run %s (%s)\n", res.RunID, mode)
	fmt.Printf("  total:     %d\n", res.TotalRows)
	fmt.Printf("  created:   %d\n", res.CreatedRows)
	fmt.Printf("  updated:   %d\n", res.UpdatedRows)
	fmt.Printf("  skipped:   %d\n", res.SkippedRows)
	fmt.Printf("  failed:    %d\n", res.FailedRows)
	if len(res.Warnings) > 0 {
		fmt.Printf("  warnings:  %d\n", len(res.Warnings))
	}
	if res.Partial {
		fmt.Println("  result:    PARTIAL")
	}
}

func printRemediation(res *importer.Result) {
	report := importer.ValidationResult{
		Errors:   res.Errors,
		Warnings: res.Warnings,
	}.RemediationReport()
	if report != "" {
		fmt.Fprintln(os.Stderr, report)
	}
}
