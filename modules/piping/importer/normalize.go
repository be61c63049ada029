package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/component"
)

// Per-field source column aliases, tried in priority order. Matching is
// case-insensitive; the listed casing is how planning tools usually export.
var fieldAliases = map[string][]string{
	"identifier":  {"Component ID", "ComponentID", "ID", "Tag"},
	"type":        {"Type", "Component Type"},
	"drawing":     {"Drawing", "Drawing Number", "DWG"},
	"workflow":    {"Workflow Type", "Workflow"},
	"spec":        {"Spec", "Specification"},
	"size":        {"Size"},
	"material":    {"Material"},
	"area":        {"Area"},
	"system":      {"System"},
	"testPackage": {"Test Package", "TestPackage", "Test Pkg"},
}

// Known milestone names recognized as top-level columns, each optionally
// paired with a "<name> Date" sibling.
var inlineMilestoneColumns = []string{
	"Received",
	"Fit-up",
	"Fitted",
	"Welded",
	"Tested",
	"Insulated",
	"Delivered",
	"Installed",
	"Connected",
	"Commissioned",
}

// lookupField resolves one canonical field off a raw row: exact alias match
// first, then case-insensitive.
func lookupField(values map[string]any, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := values[alias]; ok {
			return v, true
		}
	}
	for _, alias := range aliases {
		for k, v := range values {
			if strings.EqualFold(strings.TrimSpace(k), alias) {
				return v, true
			}
		}
	}
	return nil, false
}

func stringField(values map[string]any, field string) string {
	v, ok := lookupField(values, fieldAliases[field])
	if !ok {
		return ""
	}
	return strings.TrimSpace(anyToString(v))
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// parseBoolish folds the boolean encodings seen in the wild onto one bool.
func parseBoolish(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1", "x":
			return true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f != 0
		}
	}
	return false
}

func parseFloatish(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Spreadsheet serial dates count days from this epoch (the off-by-two
// quirk of the 1900 date system is folded into the constant).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// parseDate accepts ISO strings, spreadsheet serial numbers, and a handful
// of free-form layouts. Unparseable values normalize to absent; flagging
// them is the validator's job, not ours.
func parseDate(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u
	case float64:
		return serialDate(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				u := parsed.UTC()
				return &u
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(f)
		}
	}
	return nil
}

func serialDate(serial float64) *time.Time {
	// Serial 60 and below fall inside the fictitious 1900 leap day range;
	// nothing real exports those.
	if serial <= 60 || serial > 2958465 {
		return nil
	}
	d := serialEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
	d = d.Round(time.Second)
	return &d
}

// normalizeWorkflow maps free workflow text onto a kind by substring. Text
// that matches nothing still yields DISCRETE so the pipeline can proceed,
// but reports the miss so the validator can flag it.
func normalizeWorkflow(raw string) (component.WorkflowKind, bool) {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "percent"):
		return component.WorkflowPercentage, true
	case strings.Contains(lower, "quantity"), strings.Contains(lower, "qty"):
		return component.WorkflowQuantity, true
	case strings.Contains(lower, "discrete"), strings.Contains(lower, "checkbox"):
		return component.WorkflowDiscrete, true
	default:
		return component.WorkflowDiscrete, false
	}
}

// NormalizeComponents absorbs naming and encoding variance from the raw
// record set and yields canonical records. Milestone rows from an auxiliary
// sheet are merged in by identifier.
func NormalizeComponents(set *RawRecordSet) []Record {
	records := make([]Record, 0, len(set.Components))
	byIdentifier := make(map[string][]int)

	for _, row := range set.Components {
		rec := Record{
			RowIndex:      row.Index,
			Identifier:    stringField(row.Values, "identifier"),
			Type:          stringField(row.Values, "type"),
			Spec:          stringField(row.Values, "spec"),
			Size:          stringField(row.Values, "size"),
			Material:      stringField(row.Values, "material"),
			Area:          stringField(row.Values, "area"),
			System:        stringField(row.Values, "system"),
			TestPackage:   stringField(row.Values, "testPackage"),
			DrawingNumber: stringField(row.Values, "drawing"),
			WorkflowRaw:   stringField(row.Values, "workflow"),
		}
		rec.Workflow, rec.WorkflowMatched = normalizeWorkflow(rec.WorkflowRaw)
		rec.Milestones = append(rec.Milestones, inlineMilestones(row.Values, rec.Workflow)...)
		rec.Milestones = append(rec.Milestones, embeddedMilestones(row.Values, rec.Workflow)...)

		if rec.Identifier != "" {
			byIdentifier[rec.Identifier] = append(byIdentifier[rec.Identifier], len(records))
		}
		records = append(records, rec)
	}

	mergeMilestoneRows(records, byIdentifier, set.Milestones)
	return records
}

// inlineMilestones folds known milestone names appearing as top-level
// columns into milestone entries.
func inlineMilestones(values map[string]any, kind component.WorkflowKind) []component.Milestone {
	var out []component.Milestone
	for _, name := range inlineMilestoneColumns {
		v, ok := lookupField(values, []string{name})
		if !ok || strings.TrimSpace(anyToString(v)) == "" {
			continue
		}

		m := component.Milestone{Name: name, ValuePresent: true}
		switch kind {
		case component.WorkflowPercentage:
			if f, ok := parseFloatish(v); ok {
				m.Percent = f
			} else {
				m.ValuePresent = false
			}
		case component.WorkflowQuantity:
			if f, ok := parseFloatish(v); ok {
				m.QtyComplete = f
			} else {
				m.ValuePresent = false
			}
		default:
			m.Completed = parseBoolish(v)
		}

		if d, ok := lookupField(values, []string{name + " Date"}); ok {
			m.CompletedAt = parseDate(d)
		}
		out = append(out, m)
	}
	return out
}

// embeddedMilestones handles structured input where a component object
// carries its own milestones array.
func embeddedMilestones(values map[string]any, kind component.WorkflowKind) []component.Milestone {
	raw, ok := lookupField(values, []string{"Milestones", "milestones"})
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	var out []component.Milestone
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m := component.Milestone{
			Name: strings.TrimSpace(anyToString(firstOf(obj, "name", "Name", "milestoneName"))),
		}
		if v := firstOf(obj, "weight", "Weight"); v != nil {
			m.Weight, _ = parseFloatish(v)
		}
		switch kind {
		case component.WorkflowPercentage:
			if v := firstOf(obj, "percent", "percentage", "percentageComplete"); v != nil {
				m.Percent, m.ValuePresent = parseFloatish(v)
			}
		case component.WorkflowQuantity:
			if v := firstOf(obj, "quantityComplete", "qtyComplete"); v != nil {
				m.QtyComplete, m.ValuePresent = parseFloatish(v)
			}
			if v := firstOf(obj, "quantityRequired", "qtyRequired"); v != nil {
				m.QtyRequired, _ = parseFloatish(v)
			}
			m.Unit = anyToString(firstOf(obj, "unit", "Unit"))
		default:
			if v := firstOf(obj, "completed", "complete", "done"); v != nil {
				m.Completed = parseBoolish(v)
				m.ValuePresent = true
			}
		}
		if v := firstOf(obj, "completedAt", "date", "completedDate"); v != nil {
			m.CompletedAt = parseDate(v)
		}
		out = append(out, m)
	}
	return out
}

func firstOf(values map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := values[k]; ok {
			return v
		}
	}
	return nil
}

var milestoneSheetAliases = map[string][]string{
	"identifier": {"Component ID", "ComponentID", "ID", "Tag"},
	"name":       {"Milestone Name", "Milestone", "Name"},
	"completed":  {"Completed", "Complete", "Done"},
	"percent":    {"Percent", "Percentage", "% Complete"},
	"qtyDone":    {"Quantity Complete", "Qty Complete"},
	"qtyReq":     {"Quantity Required", "Qty Required"},
	"unit":       {"Unit"},
	"weight":     {"Weight"},
	"date":       {"Date", "Completed Date"},
}

// mergeMilestoneRows appends auxiliary milestone-sheet rows to the matching
// component records. Rows referencing unknown identifiers are dropped; the
// validator reports unknown references at the component level, not here.
func mergeMilestoneRows(records []Record, byIdentifier map[string][]int, rows []RawRow) {
	for _, row := range rows {
		id, _ := lookupField(row.Values, milestoneSheetAliases["identifier"])
		identifier := strings.TrimSpace(anyToString(id))
		if identifier == "" {
			continue
		}
		targets, ok := byIdentifier[identifier]
		if !ok {
			continue
		}

		nameVal, _ := lookupField(row.Values, milestoneSheetAliases["name"])
		m := component.Milestone{Name: strings.TrimSpace(anyToString(nameVal))}

		if v, ok := lookupField(row.Values, milestoneSheetAliases["weight"]); ok {
			m.Weight, _ = parseFloatish(v)
		}
		if v, ok := lookupField(row.Values, milestoneSheetAliases["completed"]); ok {
			m.Completed = parseBoolish(v)
			m.ValuePresent = true
		}
		if v, ok := lookupField(row.Values, milestoneSheetAliases["percent"]); ok {
			m.Percent, m.ValuePresent = parseFloatish(v)
		}
		if v, ok := lookupField(row.Values, milestoneSheetAliases["qtyDone"]); ok {
			m.QtyComplete, m.ValuePresent = parseFloatish(v)
		}
		if v, ok := lookupField(row.Values, milestoneSheetAliases["qtyReq"]); ok {
			m.QtyRequired, _ = parseFloatish(v)
		}
		if v, ok := lookupField(row.Values, milestoneSheetAliases["unit"]); ok {
			m.Unit = strings.TrimSpace(anyToString(v))
		}
		if v, ok := lookupField(row.Values, milestoneSheetAliases["date"]); ok {
			m.CompletedAt = parseDate(v)
		}

		for _, idx := range targets {
			records[idx].Milestones = append(records[idx].Milestones, m)
		}
	}
}

var drawingAliases = map[string][]string{
	"number": {"Drawing Number", "Drawing", "Number", "DWG"},
	"title":  {"Title", "Drawing Title", "Description"},
}

// NormalizeDrawings extracts number/title pairs from an auxiliary drawings
// sheet or document section.
func NormalizeDrawings(set *RawRecordSet) map[string]string {
	out := make(map[string]string, len(set.Drawings))
	for _, row := range set.Drawings {
		numVal, _ := lookupField(row.Values, drawingAliases["number"])
		number := strings.TrimSpace(anyToString(numVal))
		if number == "" {
			continue
		}
		titleVal, _ := lookupField(row.Values, drawingAliases["title"])
		out[number] = strings.TrimSpace(anyToString(titleVal))
	}
	return out
}
