package types

import "slices"

// Ingestion -----------------------------------------------------------------------

// FileRecord is one decoded source file supplied by the ingestion layer.
// Path is slash-separated and relative; Size is expected to equal len(Content).
type FileRecord struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int    `json:"size"`
}

// Profile ---------------------------------------------------------------------------

type Complexity string

const (
	ComplexitySimple     Complexity = "simple"
	ComplexityMedium     Complexity = "medium"
	ComplexityComplex    Complexity = "complex"
	ComplexityEnterprise Complexity = "enterprise"
)

// Rank orders tiers so callers can compare them (simple=0 ... enterprise=3).
func (c Complexity) Rank() int {
	switch c {
	case ComplexityMedium:
		return 1
	case ComplexityComplex:
		return 2
	case ComplexityEnterprise:
		return 3
	default:
		return 0
	}
}

// ParseComplexity maps free text to a tier, defaulting to simple.
func ParseComplexity(s string) Complexity {
	switch Complexity(s) {
	case ComplexityMedium, ComplexityComplex, ComplexityEnterprise:
		return Complexity(s)
	default:
		return ComplexitySimple
	}
}

type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// ModuleRef is the profile's view of a detected analysis module.
type ModuleRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Priority int     `json:"priority"`
	Weight   float64 `json:"weight"`
	Fallback bool    `json:"fallback,omitempty"`
}

type ProjectProfile struct {
	Complexity      Complexity  `json:"complexity"`
	Modules         []ModuleRef `json:"detected_modules"`
	TotalFiles      int         `json:"total_files"`
	PrimaryLanguage string      `json:"primary_language"`
	Architecture    string      `json:"architecture"`
	Depth           Depth       `json:"analysis_depth"`
}

// DetectedCount is the number of modules found by a predicate, excluding the fallback.
func (p ProjectProfile) DetectedCount() int {
	n := 0
	for _, m := range p.Modules {
		if !m.Fallback {
			n++
		}
	}
	return n
}

// Clone copies the module list.
func (p ProjectProfile) Clone() ProjectProfile {
	p.Modules = slices.Clone(p.Modules)
	return p
}

// ModuleIDs returns ids in profile order.
func (p ProjectProfile) ModuleIDs() []string {
	out := make([]string, 0, len(p.Modules))
	for _, m := range p.Modules {
		out = append(out, m.ID)
	}
	return out
}

// Composition -----------------------------------------------------------------------

type ComposedInput struct {
	Instruction  string   `json:"instruction"`
	Context      string   `json:"context"`
	Truncated    bool     `json:"truncated"`
	OmittedFiles int      `json:"omitted_files"`
	Sections     []string `json:"sections"`
}
