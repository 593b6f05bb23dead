package types

import "slices"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type QualityIssue struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
}

// Breakdown holds the five rubric dimensions. Maximums: 20/20/25/20/15.
type Breakdown struct {
	Completeness   float64 `json:"completeness"`
	Specificity    float64 `json:"specificity"`
	Quantification float64 `json:"quantification"`
	Actionability  float64 `json:"actionability"`
	Consistency    float64 `json:"consistency"`
}

// Sum adds the five dimensions.
func (b Breakdown) Sum() float64 {
	return b.Completeness + b.Specificity + b.Quantification + b.Actionability + b.Consistency
}

type QualityMetrics struct {
	OverallScore    float64        `json:"overall_score"`
	Breakdown       Breakdown      `json:"breakdown"`
	Issues          []QualityIssue `json:"issues"`
	Recommendations []string       `json:"recommendations"`
	PassesThreshold bool           `json:"passes_threshold"`
}

// CountBySeverity tallies issues of the given severity.
func (m QualityMetrics) CountBySeverity(s Severity) int {
	n := 0
	for _, is := range m.Issues {
		if is.Severity == s {
			n++
		}
	}
	return n
}

// Clone copies the issue and recommendation slices.
func (m QualityMetrics) Clone() QualityMetrics {
	m.Issues = slices.Clone(m.Issues)
	m.Recommendations = slices.Clone(m.Recommendations)
	return m
}
