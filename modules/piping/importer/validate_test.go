package importer_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
	"github.com/fieldforge/pipetrak/modules/piping/importer"
)

func findingsByCode(findings []importer.ValidationError, code string) []importer.ValidationError {
	var out []importer.ValidationError
	for _, f := range findings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

func TestValidate_MissingIdentifier(t *testing.T) {
	t.Parallel()

	records := []importer.Record{
		{RowIndex: 2, Identifier: "SP-001"},
		{RowIndex: 3},
	}
	res := importer.Validate(records, nil)
	require.False(t, res.Valid)

	errs := findingsByCode(res.Errors, importer.CodeMissingIdentifier)
	require.Len(t, errs, 1)
	require.Equal(t, 3, errs[0].Row)
}

func TestValidate_DuplicateInImportFlagsEveryOccurrence(t *testing.T) {
	t.Parallel()

	records := []importer.Record{
		{RowIndex: 2, Identifier: "GK-005"},
		{RowIndex: 3, Identifier: "SP-001"},
		{RowIndex: 4, Identifier: "GK-005"},
	}
	res := importer.Validate(records, nil)
	require.False(t, res.Valid)

	dups := findingsByCode(res.Errors, importer.CodeDuplicateInImport)
	require.Len(t, dups, 2)
	require.Equal(t, []int{2, 4}, []int{dups[0].Row, dups[1].Row})
	require.Contains(t, dups[0].Message, "rows 2, 4")
}

func TestValidate_InvalidWorkflow(t *testing.T) {
	t.Parallel()

	records := []importer.Record{
		{RowIndex: 2, Identifier: "SP-001", WorkflowRaw: "banana", Workflow: component.WorkflowDiscrete},
		// Absent workflow text means the default kind; nothing to flag.
		{RowIndex: 3, Identifier: "SP-002", Workflow: component.WorkflowDiscrete},
		{RowIndex: 4, Identifier: "SP-003", WorkflowRaw: "percentage", Workflow: component.WorkflowPercentage, WorkflowMatched: true},
	}
	res := importer.Validate(records, nil)

	errs := findingsByCode(res.Errors, importer.CodeInvalidWorkflow)
	require.Len(t, errs, 1)
	require.Equal(t, 2, errs[0].Row)
	require.Equal(t, "banana", errs[0].Current)
	require.Equal(t, string(component.WorkflowDiscrete), errs[0].Suggested)
}

func TestValidate_UnrecognizedWorkflowTextSurvivesThePipeline(t *testing.T) {
	t.Parallel()

	set := &importer.RawRecordSet{Components: []importer.RawRow{
		{Index: 2, Values: map[string]any{"Component ID": "SP-001", "Workflow Type": "banana"}},
		{Index: 3, Values: map[string]any{"Component ID": "SP-002", "Workflow Type": "qty tracked"}},
	}}

	records := importer.NormalizeComponents(set)
	res := importer.Validate(records, nil)
	require.False(t, res.Valid)

	errs := findingsByCode(res.Errors, importer.CodeInvalidWorkflow)
	require.Len(t, errs, 1)
	require.Equal(t, 2, errs[0].Row)
	require.Equal(t, "banana", errs[0].Current)
	require.Equal(t, string(component.WorkflowDiscrete), errs[0].Suggested)
	// The record still carries the fallback kind so a partial import can
	// proceed with it.
	require.Equal(t, component.WorkflowDiscrete, records[0].Workflow)
}

func TestValidate_UnknownDrawingIsWarning(t *testing.T) {
	t.Parallel()

	records := []importer.Record{
		{RowIndex: 2, Identifier: "SP-001", DrawingNumber: "P-35F11"},
		{RowIndex: 3, Identifier: "SP-002", DrawingNumber: "P-99X01"},
	}
	res := importer.Validate(records, map[string]string{"P-35F11": "Unit 35 piping"})
	require.True(t, res.Valid)

	warns := findingsByCode(res.Warnings, importer.CodeUnknownDrawing)
	require.Len(t, warns, 1)
	require.Equal(t, "P-99X01", warns[0].Current)
}

func TestValidate_MilestoneFindings(t *testing.T) {
	t.Parallel()

	records := []importer.Record{
		{RowIndex: 2, Identifier: "SP-001", Workflow: component.WorkflowPercentage, Milestones: []component.Milestone{
			{Name: "Welded"},
		}},
		{RowIndex: 3, Identifier: "FW-001", Workflow: component.WorkflowQuantity, Milestones: []component.Milestone{
			{Name: ""},
		}},
		{RowIndex: 4, Identifier: "SP-002", Workflow: component.WorkflowPercentage, Milestones: []component.Milestone{
			{Name: "Welded", Percent: 40, ValuePresent: true},
		}},
	}
	res := importer.Validate(records, nil)

	require.Len(t, findingsByCode(res.Errors, importer.CodeMissingMilestoneName), 1)
	require.Len(t, findingsByCode(res.Warnings, importer.CodeMissingPercentValue), 1)
	require.Len(t, findingsByCode(res.Warnings, importer.CodeMissingQuantityValue), 1)
	require.Equal(t, 2, findingsByCode(res.Warnings, importer.CodeMissingPercentValue)[0].Row)
}

func TestRemediationReport(t *testing.T) {
	t.Parallel()

	records := []importer.Record{
		{RowIndex: 2, Identifier: "SP-001", WorkflowRaw: "banana", Workflow: component.WorkflowKind("BANANA")},
	}
	for i := 0; i < 7; i++ {
		records = append(records, importer.Record{RowIndex: 10 + i})
	}
	res := importer.Validate(records, nil)

	report := res.RemediationReport()
	require.Contains(t, report, fmt.Sprintf("%s (1 error)", importer.CodeInvalidWorkflow))
	require.Contains(t, report, fmt.Sprintf("%s (7 error)", importer.CodeMissingIdentifier))
	require.Contains(t, report, "... and 2 more")
	require.Contains(t, report, "(suggested: DISCRETE)")

	// Codes render in sorted order.
	require.Less(t,
		strings.Index(report, importer.CodeInvalidWorkflow),
		strings.Index(report, importer.CodeMissingIdentifier),
	)
}

func TestRemediationReport_NoFindings(t *testing.T) {
	t.Parallel()

	res := importer.Validate([]importer.Record{{RowIndex: 2, Identifier: "SP-001"}}, nil)
	require.True(t, res.Valid)
	require.Equal(t, "no validation findings\n", res.RemediationReport())
}
