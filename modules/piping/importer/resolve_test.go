package importer_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/template"
	"github.com/fieldforge/pipetrak/modules/piping/importer"
)

func newTestResolver(t *testing.T) (*importer.TemplateResolver, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r, err := importer.NewTemplateResolver(template.Standard(), logrus.NewEntry(logger))
	require.NoError(t, err)
	return r, hook
}

func TestTemplateResolver_TypeTable(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t)

	cases := []struct {
		typeTag    string
		identifier string
		want       string
	}{
		{"SPOOL", "SP-001", template.Full},
		{"gasket", "G-1", template.Reduced},
		{"FIELD_WELD", "W-1", template.FieldWeld},
		{"Insulation", "I-1", template.Insulation},
		{"COATING", "C-1", template.Paint},
		{"VALVE", "V-1", template.Reduced},
	}
	for _, tc := range cases {
		got := r.Resolve(tc.typeTag, tc.identifier)
		require.Equal(t, tc.want, got.Name, "%s/%s", tc.typeTag, tc.identifier)
	}
}

func TestTemplateResolver_PatternFallback(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t)

	cases := []struct {
		typeTag    string
		identifier string
		want       string
	}{
		// Identifier prefixes fill in for a missing or nonstandard type.
		{"", "FW-100", template.FieldWeld},
		{"UNKNOWN", "GKT-123", template.Reduced},
		{"", "VLV-2A", template.Reduced},
		{"", "HGR-55", template.Reduced},
		{"", "INSUL-3", template.Insulation},
		{"", "PNT-1", template.Paint},
		{"", "SP-35F11-001", template.Full},
		{"", "PS-12", template.Full},
	}
	for _, tc := range cases {
		got := r.Resolve(tc.typeTag, tc.identifier)
		require.Equal(t, tc.want, got.Name, "%s/%s", tc.typeTag, tc.identifier)
	}
}

func TestTemplateResolver_TypeTableWinsOverPattern(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t)

	// The identifier looks like a field weld, but the explicit type wins.
	got := r.Resolve("GASKET", "FW-100")
	require.Equal(t, template.Reduced, got.Name)
}

func TestTemplateResolver_DefaultLogsDiagnostic(t *testing.T) {
	t.Parallel()

	r, hook := newTestResolver(t)

	got := r.Resolve("WIDGET", "XX-42")
	require.Equal(t, template.Full, got.Name)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.InfoLevel, entry.Level)
	require.Equal(t, "XX-42", entry.Data["identifier"])
}

func TestTemplateResolver_MissingNamedTemplateFallsBack(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	full := &template.Template{Name: template.Full, Milestones: []template.Milestone{{Name: "Installed", Weight: 100}}}
	r, err := importer.NewTemplateResolver([]*template.Template{full}, logrus.NewEntry(logger))
	require.NoError(t, err)

	got := r.Resolve("GASKET", "G-1")
	require.Equal(t, template.Full, got.Name)
	require.NotNil(t, hook.LastEntry())
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestNewTemplateResolver_Errors(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	entry := logrus.NewEntry(logger)

	_, err := importer.NewTemplateResolver(nil, entry)
	require.Error(t, err)

	reduced := &template.Template{Name: template.Reduced}
	_, err = importer.NewTemplateResolver([]*template.Template{reduced}, entry)
	require.Error(t, err)
}

func TestTemplateResolver_Annotate(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t)
	records := []importer.Record{
		{Identifier: "SP-001", Type: "SPOOL"},
		{Identifier: "FW-100"},
	}
	r.Annotate(records)
	require.Equal(t, template.Full, records[0].Template.Name)
	require.Equal(t, template.FieldWeld, records[1].Template.Name)
}
