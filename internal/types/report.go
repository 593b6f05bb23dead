package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

type ReportKind string

const (
	// KindPerformance asks for hotspots, bottlenecks and an optimized code example.
	KindPerformance ReportKind = "performance"
	// KindHotspots is the lighter variant: summary and hotspots only.
	KindHotspots ReportKind = "hotspots"
)

// ParseReportKind defaults unknown values to KindPerformance.
func ParseReportKind(s string) ReportKind {
	switch ReportKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindHotspots:
		return KindHotspots
	default:
		return KindPerformance
	}
}

// RequiresCodeExample reports whether the variant defines a remediation example.
func (k ReportKind) RequiresCodeExample() bool {
	return k == KindPerformance
}

// RequiresBottlenecks reports whether the variant has a bottleneck list.
func (k ReportKind) RequiresBottlenecks() bool {
	return k == KindPerformance
}

// Finding is a hotspot or bottleneck produced by the model.
type Finding struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Suggestion  string `json:"suggestion"`
	Severity    string `json:"severity,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Texts returns the free-text description fields in a fixed order.
func (f Finding) Texts() []string {
	return []string{f.Description, f.Impact, f.Suggestion}
}

type AnalysisReport struct {
	Kind        ReportKind `json:"kind,omitempty"`
	Summary     string     `json:"summary"`
	Hotspots    []Finding  `json:"hotspots"`
	Bottlenecks []Finding  `json:"bottlenecks,omitempty"`
	CodeExample string     `json:"codeExample,omitempty"`
	Modules     []string   `json:"modules,omitempty"`
}

// Findings returns hotspots followed by bottlenecks.
func (r *AnalysisReport) Findings() []Finding {
	if r == nil {
		return nil
	}
	out := make([]Finding, 0, len(r.Hotspots)+len(r.Bottlenecks))
	out = append(out, r.Hotspots...)
	out = append(out, r.Bottlenecks...)
	return out
}

// Clone returns a deep copy so enhancement never mutates the validated report.
func (r *AnalysisReport) Clone() *AnalysisReport {
	if r == nil {
		return nil
	}
	c := *r
	c.Hotspots = append([]Finding(nil), r.Hotspots...)
	c.Bottlenecks = append([]Finding(nil), r.Bottlenecks...)
	c.Modules = append([]string(nil), r.Modules...)
	return &c
}

// UnmarshalJSON makes Finding accept the location under several shapes:
// 1) "location": "path:10"
// 2) "file": "path", "line": 10
// 3) "function": "name()"
// Models drift between these even when a schema is supplied.
func (f *Finding) UnmarshalJSON(data []byte) error {
	type plain Finding
	var raw struct {
		plain
		File     string `json:"file"`
		Line     any    `json:"line"`
		Function string `json:"function"`
		Reason   string `json:"reason"`
		Fix      string `json:"fix"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Finding(raw.plain)
	if strings.TrimSpace(f.Location) == "" {
		switch {
		case raw.File != "":
			f.Location = raw.File
			if ln := lineString(raw.Line); ln != "" {
				f.Location += ":" + ln
			}
		case raw.Function != "":
			f.Location = raw.Function
		}
	}
	if f.Description == "" && raw.Reason != "" {
		f.Description = raw.Reason
	}
	if f.Suggestion == "" && raw.Fix != "" {
		f.Suggestion = raw.Fix
	}
	return nil
}

func lineString(v any) string {
	switch x := v.(type) {
	case float64:
		if x <= 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strings.TrimSpace(x)
	default:
		return ""
	}
}
