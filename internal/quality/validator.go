package quality

import (
	"math"

	"codelens/internal/config"
	"codelens/internal/types"
)

// Input is what every rule sees. It is built once per Validate call.
type Input struct {
	Report   *types.AnalysisReport
	Tier     types.Complexity
	Kind     types.ReportKind
	Limits   *config.QualityThresholds
	Findings []types.Finding
}

// Rule is one additive check. Check returns a raw penalty and, when the
// rule fired, the issue to report; the penalty is capped at Cap.
type Rule struct {
	Name  string
	Cap   float64
	Check func(in *Input) (float64, *types.QualityIssue)
}

// Dimension is a scored rubric axis.
type Dimension struct {
	Name  string
	Max   float64
	Hint  string
	Rules []Rule
}

// Validator scores reports against the rubric. It is stateless and pure:
// identical inputs always give identical metrics.
type Validator struct {
	cfg  *config.QualityThresholds
	dims []Dimension
}

func NewValidator(cfg *config.Analysis) *Validator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Validator{cfg: &cfg.Quality, dims: Rubric()}
}

// Validate scores a report for the given tier. A nil report scores as an
// empty one.
func (v *Validator) Validate(r *types.AnalysisReport, tier types.Complexity) types.QualityMetrics {
	if r == nil {
		r = &types.AnalysisReport{}
	}
	kind := r.Kind
	if kind == "" {
		kind = types.KindPerformance
	}
	in := &Input{Report: r, Tier: tier, Kind: kind, Limits: v.cfg, Findings: r.Findings()}

	var (
		b      types.Breakdown
		issues = []types.QualityIssue{}
		scores = make([]float64, len(v.dims))
	)
	for i, d := range v.dims {
		score := d.Max
		for _, rule := range d.Rules {
			penalty, issue := rule.Check(in)
			if penalty > rule.Cap {
				penalty = rule.Cap
			}
			if penalty > 0 {
				score -= penalty
			}
			if issue != nil {
				if issue.Category == "" {
					issue.Category = d.Name
				}
				issues = append(issues, *issue)
			}
		}
		scores[i] = clamp(score, 0, d.Max)
	}
	b.Completeness, b.Specificity, b.Quantification, b.Actionability, b.Consistency =
		scores[0], scores[1], scores[2], scores[3], scores[4]

	overall := b.Sum()
	return types.QualityMetrics{
		OverallScore:    overall,
		Breakdown:       b,
		Issues:          issues,
		Recommendations: v.recommend(issues, scores),
		PassesThreshold: overall >= v.cfg.PassScore,
	}
}

// recommend lists critical issue messages first, then one hint for every
// dimension scoring under HintFraction of its maximum.
func (v *Validator) recommend(issues []types.QualityIssue, scores []float64) []string {
	out := []string{}
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, is := range issues {
		if is.Severity == types.SeverityCritical {
			add(is.Message)
		}
	}
	for i, d := range v.dims {
		if scores[i] < d.Max*v.cfg.HintFraction {
			add(d.Hint)
		}
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
