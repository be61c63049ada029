package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fieldforge/pipetrak/modules/piping/domain/entities/template"
)

// Exact type-tag lookup, case-insensitive. First stage of resolution;
// always wins over the pattern table.
var typeTemplates = map[string]string{
	"SPOOL":             template.Full,
	"PIPE":              template.Full,
	"PIPING":            template.Full,
	"FITTING":           template.Full,
	"FLANGE":            template.Full,
	"GASKET":            template.Reduced,
	"VALVE":             template.Reduced,
	"SUPPORT":           template.Reduced,
	"PIPE_SUPPORT":      template.Reduced,
	"INSTRUMENT":        template.Reduced,
	"HANGER":            template.Reduced,
	"SPRING_HANGER":     template.Reduced,
	"FIELD_WELD":        template.FieldWeld,
	"WELD":              template.FieldWeld,
	"INSULATION":        template.Insulation,
	"INSULATION_JACKET": template.Insulation,
	"PAINT":             template.Paint,
	"COATING":           template.Paint,
}

type templateRule struct {
	pattern  *regexp.Regexp
	template string
}

// Ordered fallback rules, evaluated top to bottom against both the type tag
// and the identifier. They encode the shorthand prefixes planners use when
// the type column is missing or nonstandard.
var patternRules = []templateRule{
	{regexp.MustCompile(`(?i)^(FW|FIELD[-_ ]?WELD)`), template.FieldWeld},
	{regexp.MustCompile(`(?i)^(GK|GSK|GASKET)`), template.Reduced},
	{regexp.MustCompile(`(?i)^(VLV|VALVE)`), template.Reduced},
	{regexp.MustCompile(`(?i)^(SPT|HGR|SUPPORT|HANGER|INST)`), template.Reduced},
	{regexp.MustCompile(`(?i)^(INSUL|IN-)`), template.Insulation},
	{regexp.MustCompile(`(?i)^(PNT|PAINT|COAT)`), template.Paint},
	{regexp.MustCompile(`(?i)^(SP|PS|L-)`), template.Full},
}

// TemplateResolver assigns exactly one milestone template to each record.
// Resolution order: exact type table, pattern table, then the full set as
// default with a diagnostic.
type TemplateResolver struct {
	byName map[string]*template.Template
	log    *logrus.Entry
}

// NewTemplateResolver builds a resolver over a project's loaded templates.
// A project with no templates cannot import anything; that is an
// operational failure, not a per-row one.
func NewTemplateResolver(templates []*template.Template, log *logrus.Entry) (*TemplateResolver, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("no milestone templates loaded for project")
	}
	byName := make(map[string]*template.Template, len(templates))
	for _, t := range templates {
		byName[t.Name] = t
	}
	if _, ok := byName[template.Full]; !ok {
		return nil, fmt.Errorf("default template %q not loaded for project", template.Full)
	}
	return &TemplateResolver{byName: byName, log: log}, nil
}

// Resolve picks the template for a type tag / identifier pair.
func (r *TemplateResolver) Resolve(typeTag, identifier string) *template.Template {
	if name, ok := typeTemplates[strings.ToUpper(strings.TrimSpace(typeTag))]; ok {
		return r.byTemplateName(name, typeTag, identifier)
	}

	for _, rule := range patternRules {
		if rule.pattern.MatchString(typeTag) || rule.pattern.MatchString(identifier) {
			return r.byTemplateName(rule.template, typeTag, identifier)
		}
	}

	r.log.WithFields(logrus.Fields{
		"type":       typeTag,
		"identifier": identifier,
	}).Info("no template rule matched, defaulting to full milestone set")
	return r.byName[template.Full]
}

// Annotate resolves every record in place.
func (r *TemplateResolver) Annotate(records []Record) {
	for i := range records {
		records[i].Template = r.Resolve(records[i].Type, records[i].Identifier)
	}
}

func (r *TemplateResolver) byTemplateName(name, typeTag, identifier string) *template.Template {
	if t, ok := r.byName[name]; ok {
		return t
	}
	r.log.WithFields(logrus.Fields{
		"template":   name,
		"type":       typeTag,
		"identifier": identifier,
	}).Warn("resolved template not loaded for project, falling back to full milestone set")
	return r.byName[template.Full]
}
