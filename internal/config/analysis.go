package config

import (
	"errors"
	"fmt"
	"time"

	"codelens/internal/types"
)

// Sentinel validation errors.
var (
	ErrInvalidTier      = errors.New("complexity thresholds must increase from medium to enterprise")
	ErrInvalidBudget    = errors.New("prompt budgets must be positive")
	ErrInvalidRetry     = errors.New("retry policy is invalid")
	ErrInvalidPassScore = errors.New("pass score must be within 0..100")
)

// Analysis gathers every tunable threshold of profiling, composition,
// validation and retry. Components take it by pointer; tests copy Default()
// and override fields.
type Analysis struct {
	Complexity ComplexityThresholds `mapstructure:"complexity"`
	Depth      DepthThresholds      `mapstructure:"depth"`
	Prompt     PromptLimits         `mapstructure:"prompt"`
	Quality    QualityThresholds    `mapstructure:"quality"`
	Retry      RetryPolicy          `mapstructure:"retry"`
	Enhance    EnhanceOptions       `mapstructure:"enhance"`
}

// TierThreshold escalates to a tier when files > Files or modules > Modules.
type TierThreshold struct {
	Files   int `mapstructure:"files"`
	Modules int `mapstructure:"modules"`
}

type ComplexityThresholds struct {
	Medium     TierThreshold `mapstructure:"medium"`
	Complex    TierThreshold `mapstructure:"complex"`
	Enterprise TierThreshold `mapstructure:"enterprise"`
}

type DepthThresholds struct {
	DeepModules     int `mapstructure:"deep_modules"`
	StandardModules int `mapstructure:"standard_modules"`
}

// ModuleLimits caps how many module instruction blocks a tier receives.
type ModuleLimits struct {
	Simple     int `mapstructure:"simple"`
	Medium     int `mapstructure:"medium"`
	Complex    int `mapstructure:"complex"`
	Enterprise int `mapstructure:"enterprise"`
}

func (l ModuleLimits) For(c types.Complexity) int {
	switch c {
	case types.ComplexityEnterprise:
		return l.Enterprise
	case types.ComplexityComplex:
		return l.Complex
	case types.ComplexityMedium:
		return l.Medium
	default:
		return l.Simple
	}
}

type PromptLimits struct {
	MaxInstructionChars int          `mapstructure:"max_instruction_chars"`
	MaxContextChars     int          `mapstructure:"max_context_chars"`
	Modules             ModuleLimits `mapstructure:"modules"`
}

type FindingMinimums struct {
	Hotspots    int `mapstructure:"hotspots"`
	Bottlenecks int `mapstructure:"bottlenecks"`
}

type TierMinimums struct {
	Simple     FindingMinimums `mapstructure:"simple"`
	Medium     FindingMinimums `mapstructure:"medium"`
	Complex    FindingMinimums `mapstructure:"complex"`
	Enterprise FindingMinimums `mapstructure:"enterprise"`
}

func (m TierMinimums) For(c types.Complexity) FindingMinimums {
	switch c {
	case types.ComplexityEnterprise:
		return m.Enterprise
	case types.ComplexityComplex:
		return m.Complex
	case types.ComplexityMedium:
		return m.Medium
	default:
		return m.Simple
	}
}

type QualityThresholds struct {
	PassScore            float64      `mapstructure:"pass_score"`
	Minimums             TierMinimums `mapstructure:"minimums"`
	SummaryCriticalChars int          `mapstructure:"summary_critical_chars"`
	SummaryMinChars      int          `mapstructure:"summary_min_chars"`
	SummaryMaxChars      int          `mapstructure:"summary_max_chars"`
	CodeExampleMinChars  int          `mapstructure:"code_example_min_chars"`
	TerseItemChars       int          `mapstructure:"terse_item_chars"`
	VerboseItemChars     int          `mapstructure:"verbose_item_chars"`
	HintFraction         float64      `mapstructure:"hint_fraction"`
}

type RetryPolicy struct {
	// MaxRetries counts attempts beyond the first.
	MaxRetries      int           `mapstructure:"max_retries"`
	Backoff         time.Duration `mapstructure:"backoff"`
	BaseTemperature float64       `mapstructure:"base_temperature"`
	TemperatureStep float64       `mapstructure:"temperature_step"`
	MinTemperature  float64       `mapstructure:"min_temperature"`
}

// MaxAttempts is the total number of model calls allowed.
func (r RetryPolicy) MaxAttempts() int {
	if r.MaxRetries < 0 {
		return 1
	}
	return r.MaxRetries + 1
}

// TemperatureFor returns the sampling temperature for a 1-based attempt.
func (r RetryPolicy) TemperatureFor(attempt int) float64 {
	if attempt < 1 {
		attempt = 1
	}
	t := r.BaseTemperature - float64(attempt-1)*r.TemperatureStep
	if t < r.MinTemperature {
		t = r.MinTemperature
	}
	return t
}

type EnhanceOptions struct {
	MinSummaryChars int `mapstructure:"min_summary_chars"`
}

// Default returns the stock thresholds.
func Default() *Analysis {
	return &Analysis{
		Complexity: ComplexityThresholds{
			Medium:     TierThreshold{Files: 20, Modules: 2},
			Complex:    TierThreshold{Files: 50, Modules: 4},
			Enterprise: TierThreshold{Files: 100, Modules: 6},
		},
		Depth: DepthThresholds{DeepModules: 5, StandardModules: 3},
		Prompt: PromptLimits{
			MaxInstructionChars: 24000,
			MaxContextChars:     120000,
			Modules:             ModuleLimits{Simple: 3, Medium: 3, Complex: 4, Enterprise: 6},
		},
		Quality: QualityThresholds{
			PassScore: 60,
			Minimums: TierMinimums{
				Simple:     FindingMinimums{Hotspots: 2, Bottlenecks: 1},
				Medium:     FindingMinimums{Hotspots: 3, Bottlenecks: 2},
				Complex:    FindingMinimums{Hotspots: 4, Bottlenecks: 3},
				Enterprise: FindingMinimums{Hotspots: 5, Bottlenecks: 4},
			},
			SummaryCriticalChars: 50,
			SummaryMinChars:      150,
			SummaryMaxChars:      1500,
			CodeExampleMinChars:  80,
			TerseItemChars:       20,
			VerboseItemChars:     600,
			HintFraction:         0.6,
		},
		Retry: RetryPolicy{
			MaxRetries:      2,
			Backoff:         2 * time.Second,
			BaseTemperature: 0.4,
			TemperatureStep: 0.1,
			MinTemperature:  0.1,
		},
		Enhance: EnhanceOptions{MinSummaryChars: 150},
	}
}

// Validate checks cross-field constraints.
func (a *Analysis) Validate() error {
	c := a.Complexity
	if c.Medium.Files > c.Complex.Files || c.Complex.Files > c.Enterprise.Files ||
		c.Medium.Modules > c.Complex.Modules || c.Complex.Modules > c.Enterprise.Modules {
		return ErrInvalidTier
	}
	if a.Prompt.MaxInstructionChars <= 0 || a.Prompt.MaxContextChars <= 0 {
		return ErrInvalidBudget
	}
	if a.Retry.MaxRetries < 0 || a.Retry.Backoff < 0 {
		return fmt.Errorf("%w: retries=%d backoff=%s", ErrInvalidRetry, a.Retry.MaxRetries, a.Retry.Backoff)
	}
	if a.Quality.PassScore < 0 || a.Quality.PassScore > 100 {
		return ErrInvalidPassScore
	}
	return nil
}
