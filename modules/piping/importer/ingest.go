package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the declared or detected shape of an import file.
type Format string

const (
	FormatWorkbook  Format = "workbook"
	FormatDelimited Format = "delimited"
	FormatJSON      Format = "json"
)

// DetectFormat maps a file extension to a format. Anything unrecognized is
// a FormatError; the job never starts.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatWorkbook, nil
	case ".csv":
		return FormatDelimited, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", &FormatError{Path: path, Reason: fmt.Sprintf("unrecognized extension %q", filepath.Ext(path))}
	}
}

// Ingest reads an import file into a raw record set. The file is either
// fully parsed or rejected; there is no partial read.
func Ingest(path string) (*RawRecordSet, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return IngestBytes(data, format)
}

// IngestBytes parses an in-memory buffer with a declared format.
func IngestBytes(data []byte, format Format) (*RawRecordSet, error) {
	switch format {
	case FormatWorkbook:
		return ingestWorkbook(data)
	case FormatDelimited:
		return ingestDelimited(data)
	case FormatJSON:
		return ingestJSON(data)
	default:
		return nil, &FormatError{Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

func ingestWorkbook(data []byte) (*RawRecordSet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	componentSheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Components") || strings.EqualFold(name, "Component") {
			componentSheet = name
			break
		}
	}

	set := &RawRecordSet{}
	set.Components, err = sheetRows(f, componentSheet)
	if err != nil {
		return nil, err
	}

	for _, name := range sheets {
		switch {
		case strings.EqualFold(name, "Drawings"):
			set.Drawings, err = sheetRows(f, name)
		case strings.EqualFold(name, "Milestones"):
			set.Milestones, err = sheetRows(f, name)
		}
		if err != nil {
			return nil, err
		}
	}
	return set, nil
}

func sheetRows(f *excelize.File, sheet string) ([]RawRow, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	out := make([]RawRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		values := make(map[string]any, len(header))
		empty := true
		for j, cell := range row {
			if j >= len(header) || header[j] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			values[header[j]] = cell
			empty = false
		}
		if empty {
			continue
		}
		// Row index is 1-based and counts the header, matching what the
		// user sees in their spreadsheet.
		out = append(out, RawRow{Index: i + 2, Values: values})
	}
	return out, nil
}

func ingestDelimited(data []byte) (*RawRecordSet, error) {
	br := bufio.NewReader(bytes.NewReader(data))
	stripUTF8BOM(br)

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []RawRow
	line := 1
	for {
		line++
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make(map[string]any, len(header))
		empty := true
		for j, cell := range rec {
			if j >= len(header) || header[j] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			values[header[j]] = cell
			empty = false
		}
		if empty {
			continue
		}
		rows = append(rows, RawRow{Index: line, Values: values})
	}

	return &RawRecordSet{Components: rows}, nil
}

func stripUTF8BOM(r *bufio.Reader) {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
}

type jsonDocument struct {
	Components []map[string]any `json:"components"`
	Drawings   []map[string]any `json:"drawings"`
	Project    map[string]any   `json:"project"`
}

func ingestJSON(data []byte) (*RawRecordSet, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	var components, drawings []map[string]any
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &components); err != nil {
			return nil, fmt.Errorf("parse component array: %w", err)
		}
	} else {
		var doc jsonDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		components = doc.Components
		drawings = doc.Drawings
	}

	set := &RawRecordSet{}
	for i, obj := range components {
		set.Components = append(set.Components, RawRow{Index: i + 1, Values: obj})
	}
	for i, obj := range drawings {
		set.Drawings = append(set.Drawings, RawRow{Index: i + 1, Values: obj})
	}
	return set, nil
}
