package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
)

// ValidationResult gates persistence. Errors block the job unless partial
// success is explicitly allowed; warnings never block.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// Validate checks canonical records for structural completeness, enumerated
// values, intra-job duplication, and drawing cross-references. It never
// mutates its input and never fails for data problems.
func Validate(records []Record, knownDrawings map[string]string) ValidationResult {
	var res ValidationResult

	duplicates := make(map[string][]int, len(records))
	for _, rec := range records {
		if rec.Identifier != "" {
			duplicates[rec.Identifier] = append(duplicates[rec.Identifier], rec.RowIndex)
		}
	}

	for _, rec := range records {
		if rec.Identifier == "" {
			res.Errors = append(res.Errors, ValidationError{
				Row:      rec.RowIndex,
				Field:    "identifier",
				Code:     CodeMissingIdentifier,
				Message:  "component identifier is required",
				Severity: SeverityError,
			})
		} else if rows := duplicates[rec.Identifier]; len(rows) > 1 {
			res.Errors = append(res.Errors, ValidationError{
				Row:      rec.RowIndex,
				Field:    "identifier",
				Code:     CodeDuplicateInImport,
				Message:  fmt.Sprintf("identifier %q appears on rows %s", rec.Identifier, joinRows(rows)),
				Severity: SeverityError,
				Current:  rec.Identifier,
			})
		}

		if rec.WorkflowRaw != "" && !rec.WorkflowMatched {
			res.Errors = append(res.Errors, ValidationError{
				Row:       rec.RowIndex,
				Field:     "workflow",
				Code:      CodeInvalidWorkflow,
				Message:   fmt.Sprintf("workflow %q is not one of DISCRETE, PERCENTAGE, QUANTITY", rec.WorkflowRaw),
				Severity:  SeverityError,
				Current:   rec.WorkflowRaw,
				Suggested: string(component.WorkflowDiscrete),
			})
		}

		if rec.DrawingNumber != "" {
			if _, ok := knownDrawings[rec.DrawingNumber]; !ok {
				// Drawings may be created implicitly at persistence time,
				// so an unknown reference is only a warning.
				res.Warnings = append(res.Warnings, ValidationError{
					Row:      rec.RowIndex,
					Field:    "drawing",
					Code:     CodeUnknownDrawing,
					Message:  fmt.Sprintf("drawing %q is not part of this import and will be created", rec.DrawingNumber),
					Severity: SeverityWarning,
					Current:  rec.DrawingNumber,
				})
			}
		}

		valuePresent := false
		for _, m := range rec.Milestones {
			if m.Name == "" {
				res.Errors = append(res.Errors, ValidationError{
					Row:      rec.RowIndex,
					Field:    "milestones",
					Code:     CodeMissingMilestoneName,
					Message:  "milestone entry has no name",
					Severity: SeverityError,
				})
			}
			if m.ValuePresent {
				valuePresent = true
			}
		}

		if len(rec.Milestones) > 0 && !valuePresent {
			switch rec.Workflow {
			case component.WorkflowPercentage:
				res.Warnings = append(res.Warnings, ValidationError{
					Row:      rec.RowIndex,
					Field:    "milestones",
					Code:     CodeMissingPercentValue,
					Message:  "percentage workflow component has no percentage values; they default to zero",
					Severity: SeverityWarning,
				})
			case component.WorkflowQuantity:
				res.Warnings = append(res.Warnings, ValidationError{
					Row:      rec.RowIndex,
					Field:    "milestones",
					Code:     CodeMissingQuantityValue,
					Message:  "quantity workflow component has no quantity values; they default to zero",
					Severity: SeverityWarning,
				})
			}
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprintf("%d", r)
	}
	return strings.Join(parts, ", ")
}

// maxExamplesPerCode bounds the remediation report; nobody reads the
// four-hundredth duplicate.
const maxExamplesPerCode = 5

// RemediationReport renders findings grouped by code with the first few
// examples each, ready to print on validation failure.
func (r ValidationResult) RemediationReport() string {
	findings := make([]ValidationError, 0, len(r.Errors)+len(r.Warnings))
	findings = append(findings, r.Errors...)
	findings = append(findings, r.Warnings...)
	if len(findings) == 0 {
		return "no validation findings\n"
	}

	byCode := make(map[string][]ValidationError)
	codes := make([]string, 0)
	for _, f := range findings {
		if _, ok := byCode[f.Code]; !ok {
			codes = append(codes, f.Code)
		}
		byCode[f.Code] = append(byCode[f.Code], f)
	}
	sort.Strings(codes)

	var b strings.Builder
	for _, code := range codes {
		group := byCode[code]
		fmt.Fprintf(&b, "%s (%d %s)\n", code, len(group), string(group[0].Severity))
		for i, f := range group {
			if i == maxExamplesPerCode {
				fmt.Fprintf(&b, "  ... and %d more\n", len(group)-maxExamplesPerCode)
				break
			}
			fmt.Fprintf(&b, "  row %d, %s: %s", f.Row, f.Field, f.Message)
			if f.Suggested != "" {
				fmt.Fprintf(&b, " (suggested: %s)", f.Suggested)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
