package importer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldforge/pipetrak/modules/piping/importer"
)

func TestInstanceTracker_NumbersRepeatsPerDrawing(t *testing.T) {
	t.Parallel()

	records := []importer.Record{
		{RowIndex: 2, Identifier: "GK-5", DrawingNumber: "P-1"},
		{RowIndex: 3, Identifier: "GK-5", DrawingNumber: "P-1"},
		{RowIndex: 4, Identifier: "GK-5", DrawingNumber: "P-1"},
		{RowIndex: 5, Identifier: "GK-5", DrawingNumber: "P-2"},
		{RowIndex: 6, Identifier: "SP-1", DrawingNumber: "P-1"},
	}

	tracker := importer.NewInstanceTracker(records)
	importer.AssignInstances(records, tracker)

	require.Equal(t, 1, records[0].InstanceNumber)
	require.Equal(t, 2, records[1].InstanceNumber)
	require.Equal(t, 3, records[2].InstanceNumber)
	require.Equal(t, 3, records[0].InstanceTotal)
	require.Equal(t, 3, records[2].InstanceTotal)

	// A different drawing is a different occurrence space.
	require.Equal(t, 1, records[3].InstanceNumber)
	require.Equal(t, 1, records[3].InstanceTotal)

	require.Equal(t, 1, records[4].InstanceNumber)
	require.Equal(t, 1, records[4].InstanceTotal)
}

func TestInstanceTracker_SkipsEmptyIdentifiers(t *testing.T) {
	t.Parallel()

	records := []importer.Record{
		{RowIndex: 2, DrawingNumber: "P-1"},
		{RowIndex: 3, Identifier: "GK-5", DrawingNumber: "P-1"},
	}

	tracker := importer.NewInstanceTracker(records)
	importer.AssignInstances(records, tracker)

	require.Zero(t, records[0].InstanceNumber)
	require.Equal(t, 1, records[1].InstanceNumber)
	require.Equal(t, 1, records[1].InstanceTotal)
}

func TestLabel(t *testing.T) {
	t.Parallel()

	single := importer.Record{Identifier: "SP-1", InstanceNumber: 1, InstanceTotal: 1}
	require.Equal(t, "SP-1", importer.Label(single))

	second := importer.Record{Identifier: "GK-5", InstanceNumber: 2, InstanceTotal: 3}
	require.Equal(t, "GK-5 (2 of 3)", importer.Label(second))
}
