package quality

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"codelens/internal/types"
)

// Rubric returns the five dimensions in breakdown order.
func Rubric() []Dimension {
	return []Dimension{
		{
			Name:  "completeness",
			Max:   20,
			Hint:  "Report the expected number of hotspots and bottlenecks for the project size and write a fuller summary.",
			Rules: completenessRules,
		},
		{
			Name:  "specificity",
			Max:   20,
			Hint:  "Anchor every finding to a file:line or function() and drop generic advice.",
			Rules: specificityRules,
		},
		{
			Name:  "quantification",
			Max:   25,
			Hint:  "Give every finding a measurable impact: milliseconds, percentages, query counts or memory sizes.",
			Rules: quantificationRules,
		},
		{
			Name:  "actionability",
			Max:   20,
			Hint:  "State each fix as a direct instruction and show before/after code for the most severe finding.",
			Rules: actionabilityRules,
		},
		{
			Name:  "consistency",
			Max:   15,
			Hint:  "Remove duplicate findings, order them by severity and keep each item concise.",
			Rules: consistencyRules,
		},
	}
}

func issue(sev types.Severity, field, format string, args ...any) *types.QualityIssue {
	return &types.QualityIssue{Severity: sev, Field: field, Message: fmt.Sprintf(format, args...)}
}

func chars(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

// Completeness ----------------------------------------------------------------

var completenessRules = []Rule{
	{Name: "hotspot_minimum", Cap: 8, Check: func(in *Input) (float64, *types.QualityIssue) {
		want := in.Limits.Minimums.For(in.Tier).Hotspots
		got := len(in.Report.Hotspots)
		if got >= want {
			return 0, nil
		}
		sev := types.SeverityWarning
		if got == 0 {
			sev = types.SeverityCritical
		}
		return float64(3 * (want - got)), issue(sev, "hotspots",
			"expected at least %d hotspots for a %s project, found %d", want, in.Tier, got)
	}},
	{Name: "bottleneck_minimum", Cap: 6, Check: func(in *Input) (float64, *types.QualityIssue) {
		if !in.Kind.RequiresBottlenecks() {
			return 0, nil
		}
		want := in.Limits.Minimums.For(in.Tier).Bottlenecks
		got := len(in.Report.Bottlenecks)
		if got >= want {
			return 0, nil
		}
		return float64(3 * (want - got)), issue(types.SeverityWarning, "bottlenecks",
			"expected at least %d bottlenecks for a %s project, found %d", want, in.Tier, got)
	}},
	{Name: "summary_length", Cap: 6, Check: func(in *Input) (float64, *types.QualityIssue) {
		n := chars(in.Report.Summary)
		switch {
		case n == 0:
			return 6, issue(types.SeverityCritical, "summary", "summary is missing")
		case n < in.Limits.SummaryCriticalChars:
			return 6, issue(types.SeverityCritical, "summary",
				"summary is only %d characters; at least %d are required", n, in.Limits.SummaryMinChars)
		case n < in.Limits.SummaryMinChars:
			return 3, issue(types.SeverityWarning, "summary",
				"summary is short (%d characters, expected %d)", n, in.Limits.SummaryMinChars)
		}
		return 0, nil
	}},
	{Name: "code_example_present", Cap: 4, Check: func(in *Input) (float64, *types.QualityIssue) {
		if !in.Kind.RequiresCodeExample() {
			return 0, nil
		}
		n := chars(in.Report.CodeExample)
		switch {
		case n == 0:
			return 4, issue(types.SeverityWarning, "codeExample", "code example is missing")
		case n < in.Limits.CodeExampleMinChars:
			return 2, issue(types.SeverityInfo, "codeExample",
				"code example is only %d characters", n)
		}
		return 0, nil
	}},
}

// Specificity -----------------------------------------------------------------

var specificityRules = []Rule{
	{Name: "has_findings", Cap: 10, Check: func(in *Input) (float64, *types.QualityIssue) {
		if len(in.Findings) > 0 {
			return 0, nil
		}
		return 10, issue(types.SeverityWarning, "hotspots", "no findings to anchor to code locations")
	}},
	{Name: "location_format", Cap: 12, Check: func(in *Input) (float64, *types.QualityIssue) {
		bad := 0
		for _, f := range in.Findings {
			if !isSpecificLocation(f.Location) {
				bad++
			}
		}
		if bad == 0 {
			return 0, nil
		}
		return float64(2 * bad), issue(types.SeverityWarning, "location",
			"%d of %d findings lack a file:line or function() location", bad, len(in.Findings))
	}},
	{Name: "generic_phrases", Cap: 8, Check: func(in *Input) (float64, *types.QualityIssue) {
		n := countGeneric(in.Report.Summary)
		for _, f := range in.Findings {
			n += countGeneric(f.Title)
			for _, t := range f.Texts() {
				n += countGeneric(t)
			}
		}
		if n == 0 {
			return 0, nil
		}
		return float64(n), issue(types.SeverityInfo, "",
			"%d generic phrases such as \"optimize performance\" found", n)
	}},
}

// Quantification --------------------------------------------------------------

func quantified(f types.Finding) bool {
	for _, t := range f.Texts() {
		if hasQuantity(t) {
			return true
		}
	}
	return false
}

var quantificationRules = []Rule{
	{Name: "has_findings", Cap: 25, Check: func(in *Input) (float64, *types.QualityIssue) {
		if len(in.Findings) > 0 {
			return 0, nil
		}
		return 25, issue(types.SeverityCritical, "hotspots", "report contains no findings with a measurable impact")
	}},
	{Name: "findings_quantified", Cap: 20, Check: func(in *Input) (float64, *types.QualityIssue) {
		bad := 0
		for _, f := range in.Findings {
			if !quantified(f) {
				bad++
			}
		}
		if bad == 0 {
			return 0, nil
		}
		return float64(5 * bad), issue(types.SeverityWarning, "impact",
			"%d of %d findings give no number with a unit (ms, %%, MB, queries)", bad, len(in.Findings))
	}},
	{Name: "impact_quantified", Cap: 5, Check: func(in *Input) (float64, *types.QualityIssue) {
		bad := 0
		for _, f := range in.Findings {
			if quantified(f) && !hasQuantity(f.Impact) {
				bad++
			}
		}
		if bad == 0 {
			return 0, nil
		}
		return float64(bad), issue(types.SeverityInfo, "impact",
			"%d findings state numbers outside the impact field", bad)
	}},
}

// Actionability ---------------------------------------------------------------

var actionabilityRules = []Rule{
	{Name: "has_suggestions", Cap: 8, Check: func(in *Input) (float64, *types.QualityIssue) {
		for _, f := range in.Findings {
			if strings.TrimSpace(f.Suggestion) != "" {
				return 0, nil
			}
		}
		return 8, issue(types.SeverityWarning, "suggestion", "no finding carries a suggested fix")
	}},
	{Name: "hedging", Cap: 10, Check: func(in *Input) (float64, *types.QualityIssue) {
		n := 0
		for _, f := range in.Findings {
			n += len(hedgePattern.FindAllStringIndex(f.Suggestion, -1))
		}
		if n == 0 {
			return 0, nil
		}
		return float64(2 * n), issue(types.SeverityInfo, "suggestion",
			"suggestions hedge %d times (consider, maybe, could)", n)
	}},
	{Name: "missing_suggestion", Cap: 4, Check: func(in *Input) (float64, *types.QualityIssue) {
		missing := 0
		for _, f := range in.Findings {
			if strings.TrimSpace(f.Suggestion) == "" {
				missing++
			}
		}
		// all-missing is covered by has_suggestions
		if missing == 0 || missing == len(in.Findings) {
			return 0, nil
		}
		return float64(missing), issue(types.SeverityInfo, "suggestion",
			"%d findings have no suggestion", missing)
	}},
	{Name: "code_example_actionable", Cap: 6, Check: func(in *Input) (float64, *types.QualityIssue) {
		if !in.Kind.RequiresCodeExample() {
			return 0, nil
		}
		code := strings.TrimSpace(in.Report.CodeExample)
		switch {
		case code == "":
			return 6, issue(types.SeverityWarning, "codeExample", "no remediation code to act on")
		case !codePattern.MatchString(code):
			return 5, issue(types.SeverityWarning, "codeExample", "code example contains no recognizable code")
		case !HasBeforeAfter(code):
			return 3, issue(types.SeverityInfo, "codeExample", "code example has no before/after framing")
		}
		return 0, nil
	}},
}

// Consistency -----------------------------------------------------------------

var severityRank = map[string]int{"critical": 0, "high": 1, "medium": 2, "low": 3}

func key(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }

var consistencyRules = []Rule{
	{Name: "summary_oversized", Cap: 4, Check: func(in *Input) (float64, *types.QualityIssue) {
		n := chars(in.Report.Summary)
		if n <= in.Limits.SummaryMaxChars {
			return 0, nil
		}
		return 4, issue(types.SeverityInfo, "summary",
			"summary is %d characters; keep it under %d", n, in.Limits.SummaryMaxChars)
	}},
	{Name: "duplicate_titles", Cap: 6, Check: func(in *Input) (float64, *types.QualityIssue) {
		seen := map[string]bool{}
		dups := 0
		for _, f := range in.Findings {
			k := key(f.Title)
			if k == "" {
				continue
			}
			if seen[k] {
				dups++
			}
			seen[k] = true
		}
		if dups == 0 {
			return 0, nil
		}
		return float64(3 * dups), issue(types.SeverityWarning, "title", "%d findings repeat an earlier title", dups)
	}},
	{Name: "duplicate_locations", Cap: 3, Check: func(in *Input) (float64, *types.QualityIssue) {
		seen := map[string]bool{}
		dups := 0
		for _, f := range in.Findings {
			k := key(f.Location)
			if k == "" || isSentinelLocation(k) {
				continue
			}
			if seen[k] {
				dups++
			}
			seen[k] = true
		}
		if dups == 0 {
			return 0, nil
		}
		return float64(dups), issue(types.SeverityInfo, "location", "%d findings point at an already reported location", dups)
	}},
	{Name: "terse_items", Cap: 4, Check: func(in *Input) (float64, *types.QualityIssue) {
		n := 0
		for _, f := range in.Findings {
			if chars(f.Description) < in.Limits.TerseItemChars {
				n++
			}
		}
		if n == 0 {
			return 0, nil
		}
		return float64(n), issue(types.SeverityInfo, "description",
			"%d findings have descriptions under %d characters", n, in.Limits.TerseItemChars)
	}},
	{Name: "verbose_items", Cap: 3, Check: func(in *Input) (float64, *types.QualityIssue) {
		n := 0
		for _, f := range in.Findings {
			for _, t := range f.Texts() {
				if chars(t) > in.Limits.VerboseItemChars {
					n++
					break
				}
			}
		}
		if n == 0 {
			return 0, nil
		}
		return float64(n), issue(types.SeverityInfo, "description",
			"%d findings have fields over %d characters", n, in.Limits.VerboseItemChars)
	}},
	{Name: "severity_order", Cap: 2, Check: func(in *Input) (float64, *types.QualityIssue) {
		for _, list := range [][]types.Finding{in.Report.Hotspots, in.Report.Bottlenecks} {
			prev := -1
			for _, f := range list {
				r, ok := severityRank[strings.ToLower(strings.TrimSpace(f.Severity))]
				if !ok {
					continue
				}
				if r < prev {
					return 2, issue(types.SeverityInfo, "severity", "findings are not ordered by severity")
				}
				prev = r
			}
		}
		return 0, nil
	}},
}
