package importer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
	"github.com/fieldforge/pipetrak/modules/piping/importer"
)

func TestNormalizeComponents_FieldAliases(t *testing.T) {
	t.Parallel()

	set := &importer.RawRecordSet{Components: []importer.RawRow{
		{Index: 2, Values: map[string]any{
			"Tag":            "SP-001",
			"Component Type": "SPOOL",
			"DWG":            "P-35F11",
			"Workflow Type":  "discrete checkbox",
			"Specification":  "CS150",
			"Test Pkg":       "TP-04",
			"area":           "A-100",
		}},
	}}

	records := importer.NormalizeComponents(set)
	require.Len(t, records, 1)

	rec := records[0]
	require.Equal(t, 2, rec.RowIndex)
	require.Equal(t, "SP-001", rec.Identifier)
	require.Equal(t, "SPOOL", rec.Type)
	require.Equal(t, "P-35F11", rec.DrawingNumber)
	require.Equal(t, component.WorkflowDiscrete, rec.Workflow)
	require.Equal(t, "CS150", rec.Spec)
	require.Equal(t, "TP-04", rec.TestPackage)
	// Case-insensitive fallback on the alias table.
	require.Equal(t, "A-100", rec.Area)
}

func TestNormalizeComponents_WorkflowText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		want    component.WorkflowKind
		matched bool
	}{
		{"Percentage of completion", component.WorkflowPercentage, true},
		{"qty tracked", component.WorkflowQuantity, true},
		{"Quantity", component.WorkflowQuantity, true},
		{"Discrete", component.WorkflowDiscrete, true},
		{"checkbox", component.WorkflowDiscrete, true},
		{"", component.WorkflowDiscrete, false},
		{"something else", component.WorkflowDiscrete, false},
	}
	for _, tc := range cases {
		set := &importer.RawRecordSet{Components: []importer.RawRow{
			{Index: 2, Values: map[string]any{"Component ID": "X-1", "Workflow": tc.raw}},
		}}
		records := importer.NormalizeComponents(set)
		require.Len(t, records, 1)
		require.Equal(t, tc.want, records[0].Workflow, "raw %q", tc.raw)
		require.Equal(t, tc.matched, records[0].WorkflowMatched, "raw %q", tc.raw)
		require.Equal(t, tc.raw, records[0].WorkflowRaw)
	}
}

func TestNormalizeComponents_InlineDiscreteMilestones(t *testing.T) {
	t.Parallel()

	set := &importer.RawRecordSet{Components: []importer.RawRow{
		{Index: 2, Values: map[string]any{
			"Component ID": "SP-001",
			"Received":     "x",
			"Fit-up":       "YES",
			"Welded":       "0",
			"Welded Date":  "2024-03-15",
			"Tested":       "1",
		}},
	}}

	records := importer.NormalizeComponents(set)
	require.Len(t, records, 1)

	byName := map[string]component.Milestone{}
	for _, m := range records[0].Milestones {
		byName[m.Name] = m
	}
	require.Len(t, byName, 4)
	require.True(t, byName["Received"].Completed)
	require.True(t, byName["Fit-up"].Completed)
	require.False(t, byName["Welded"].Completed)
	require.True(t, byName["Tested"].Completed)
	require.True(t, byName["Welded"].ValuePresent)

	require.NotNil(t, byName["Welded"].CompletedAt)
	require.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), byName["Welded"].CompletedAt.UTC())
}

func TestNormalizeComponents_SerialDate(t *testing.T) {
	t.Parallel()

	set := &importer.RawRecordSet{Components: []importer.RawRow{
		{Index: 2, Values: map[string]any{
			"Component ID": "SP-001",
			"Welded":       "yes",
			"Welded Date":  "45123",
		}},
	}}

	records := importer.NormalizeComponents(set)
	require.Len(t, records[0].Milestones, 1)
	at := records[0].Milestones[0].CompletedAt
	require.NotNil(t, at)
	require.Equal(t, time.Date(2023, time.July, 16, 0, 0, 0, 0, time.UTC), at.UTC())
}

func TestNormalizeComponents_PercentageValues(t *testing.T) {
	t.Parallel()

	set := &importer.RawRecordSet{Components: []importer.RawRow{
		{Index: 2, Values: map[string]any{
			"Component ID": "SP-001",
			"Workflow":     "percentage",
			"Welded":       "75.5",
			"Installed":    "abc",
		}},
	}}

	records := importer.NormalizeComponents(set)
	byName := map[string]component.Milestone{}
	for _, m := range records[0].Milestones {
		byName[m.Name] = m
	}
	require.InDelta(t, 75.5, byName["Welded"].Percent, 1e-9)
	require.True(t, byName["Welded"].ValuePresent)
	// Unparseable values survive as entries but carry no value.
	require.False(t, byName["Installed"].ValuePresent)
}

func TestNormalizeComponents_EmbeddedMilestones(t *testing.T) {
	t.Parallel()

	set := &importer.RawRecordSet{Components: []importer.RawRow{
		{Index: 1, Values: map[string]any{
			"Component ID": "FW-100",
			"Workflow":     "quantity",
			"milestones": []any{
				map[string]any{"name": "Welded", "weight": 60.0, "qtyComplete": 3.0, "qtyRequired": 5.0, "unit": "EA"},
				map[string]any{"name": "Tested", "weight": 40.0},
			},
		}},
	}}

	records := importer.NormalizeComponents(set)
	require.Len(t, records[0].Milestones, 2)

	welded := records[0].Milestones[0]
	require.Equal(t, "Welded", welded.Name)
	require.InDelta(t, 60, welded.Weight, 1e-9)
	require.InDelta(t, 3, welded.QtyComplete, 1e-9)
	require.InDelta(t, 5, welded.QtyRequired, 1e-9)
	require.Equal(t, "EA", welded.Unit)
	require.True(t, welded.ValuePresent)
	require.False(t, records[0].Milestones[1].ValuePresent)
}

func TestNormalizeComponents_MilestoneSheetMerge(t *testing.T) {
	t.Parallel()

	set := &importer.RawRecordSet{
		Components: []importer.RawRow{
			{Index: 2, Values: map[string]any{"Component ID": "SP-001"}},
			{Index: 3, Values: map[string]any{"Component ID": "SP-002"}},
		},
		Milestones: []importer.RawRow{
			{Index: 2, Values: map[string]any{
				"Component ID":   "SP-001",
				"Milestone Name": "Welded",
				"Completed":      "yes",
				"Weight":         "30",
			}},
			{Index: 3, Values: map[string]any{
				"Component ID":   "SP-999",
				"Milestone Name": "Orphan",
			}},
		},
	}

	records := importer.NormalizeComponents(set)
	require.Len(t, records[0].Milestones, 1)
	require.Equal(t, "Welded", records[0].Milestones[0].Name)
	require.True(t, records[0].Milestones[0].Completed)
	require.InDelta(t, 30, records[0].Milestones[0].Weight, 1e-9)
	// Rows referencing identifiers not in the import are dropped.
	require.Empty(t, records[1].Milestones)
}

func TestNormalizeDrawings(t *testing.T) {
	t.Parallel()

	set := &importer.RawRecordSet{Drawings: []importer.RawRow{
		{Index: 2, Values: map[string]any{"Drawing Number": "P-35F11", "Title": "Unit 35 piping"}},
		{Index: 3, Values: map[string]any{"Drawing": "P-35F12"}},
		{Index: 4, Values: map[string]any{"Title": "no number"}},
	}}

	got := importer.NormalizeDrawings(set)
	require.Len(t, got, 2)
	require.Equal(t, "Unit 35 piping", got["P-35F11"])
	require.Equal(t, "", got["P-35F12"])
}
