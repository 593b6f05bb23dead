package report

import (
	"codelens/internal/config"
	"codelens/internal/types"
)

// Severities accepted on a finding, most severe first.
var Severities = []string{"critical", "high", "medium", "low"}

func findingSchema(strict bool) *types.Schema {
	s := &types.Schema{
		Type:  "object",
		Order: []string{"title", "location", "description", "impact", "suggestion", "severity", "category"},
		Properties: map[string]*types.Schema{
			"title":       {Type: "string", Description: "Short name of the problem."},
			"location":    {Type: "string", Description: "file:line or function() where the problem lives."},
			"description": {Type: "string", Description: "What the code does and why it is slow."},
			"impact":      {Type: "string", Description: "Measured or estimated cost with a number and unit."},
			"suggestion":  {Type: "string", Description: "The concrete change to make."},
			"severity":    {Type: "string"},
			"category":    {Type: "string"},
		},
		Required: []string{"title"},
	}
	if strict {
		s.Properties["severity"].Enum = Severities
		s.Required = []string{"title", "location", "description", "impact", "suggestion", "severity"}
	}
	return s
}

// SchemaFor is the response schema sent to the model for a report kind.
// Non-zero minimums become minItems on the finding lists. Local validation
// never enforces them; short lists are scored, not rejected.
func SchemaFor(kind types.ReportKind, minimums config.FindingMinimums) *types.Schema {
	s := build(kind, true)
	s.Properties["hotspots"].MinItems = minimums.Hotspots
	if b, ok := s.Properties["bottlenecks"]; ok {
		b.MinItems = minimums.Bottlenecks
	}
	return s
}

// validationSchema is the looser local check: top-level fields must be
// present and well-typed, findings need a title. Field aliases are resolved
// during decoding, so finding-level requirements stay minimal.
func validationSchema(kind types.ReportKind) *types.Schema {
	return build(kind, false)
}

func build(kind types.ReportKind, strict bool) *types.Schema {
	s := &types.Schema{
		Type:  "object",
		Order: []string{"summary", "hotspots"},
		Properties: map[string]*types.Schema{
			"summary":  {Type: "string", Description: "Executive summary of the most important findings."},
			"hotspots": {Type: "array", Items: findingSchema(strict)},
		},
		Required: []string{"summary", "hotspots"},
	}
	if kind.RequiresBottlenecks() {
		s.Properties["bottlenecks"] = &types.Schema{Type: "array", Items: findingSchema(strict)}
		s.Order = append(s.Order, "bottlenecks")
		s.Required = append(s.Required, "bottlenecks")
	}
	if kind.RequiresCodeExample() {
		s.Properties["codeExample"] = &types.Schema{
			Type:        "string",
			Description: "BEFORE and AFTER code for the most severe finding.",
		}
		s.Order = append(s.Order, "codeExample")
		s.Required = append(s.Required, "codeExample")
	}
	return s
}
