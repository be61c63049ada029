package importer

import (
	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
)

type instanceKey struct {
	drawing    string
	identifier string
}

// InstanceTracker numbers repeated occurrences of one part number on one
// drawing. State is owned by the job that built it; concurrent jobs each
// carry their own tracker.
type InstanceTracker struct {
	totals  map[instanceKey]int
	cursors map[instanceKey]int
}

// NewInstanceTracker runs the counting pass over the full record set.
func NewInstanceTracker(records []Record) *InstanceTracker {
	t := &InstanceTracker{
		totals:  make(map[instanceKey]int),
		cursors: make(map[instanceKey]int),
	}
	for _, rec := range records {
		if rec.Identifier == "" {
			continue
		}
		t.totals[instanceKey{rec.DrawingNumber, rec.Identifier}]++
	}
	return t
}

// Next assigns the next 1-based instance number for a key and returns it
// with the precomputed total. Assignment order is first seen.
func (t *InstanceTracker) Next(drawing, identifier string) (instance, total int) {
	key := instanceKey{drawing, identifier}
	t.cursors[key]++
	return t.cursors[key], t.totals[key]
}

// AssignInstances runs the assignment pass in place. It runs once, before
// batching, so that batch retries reuse the same numbers.
func AssignInstances(records []Record, t *InstanceTracker) {
	for i := range records {
		if records[i].Identifier == "" {
			continue
		}
		n, total := t.Next(records[i].DrawingNumber, records[i].Identifier)
		records[i].InstanceNumber = n
		records[i].InstanceTotal = total
	}
}

// Label renders the display identifier for a record's occurrence.
func Label(rec Record) string {
	return component.FormatDisplayLabel(rec.Identifier, rec.InstanceNumber, rec.InstanceTotal)
}
