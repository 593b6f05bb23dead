package quality

import (
	"fmt"
	"strings"

	"codelens/internal/config"
	"codelens/internal/types"
)

const leadPrefix = "This analysis identified "

// Enhancer repairs surface form locally. It never calls the model, never
// fails and never adds findings or numbers beyond the counts it can see.
type Enhancer struct {
	opts config.EnhanceOptions
}

func NewEnhancer(cfg *config.Analysis) *Enhancer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Enhancer{opts: cfg.Enhance}
}

// Enhance returns an improved copy; the input is left untouched.
func (e *Enhancer) Enhance(r *types.AnalysisReport) *types.AnalysisReport {
	if r == nil {
		return nil
	}
	out := r.Clone()
	if chars(out.Summary) < e.opts.MinSummaryChars && !strings.HasPrefix(out.Summary, leadPrefix) {
		out.Summary = strings.TrimSpace(leadSentence(out) + " " + strings.TrimSpace(out.Summary))
	}
	if code := strings.TrimSpace(out.CodeExample); code != "" && !HasMarkers(code) {
		out.CodeExample = frameBeforeAfter(code)
	}
	return out
}

func leadSentence(r *types.AnalysisReport) string {
	parts := []string{plural(len(r.Hotspots), "hotspot")}
	if r.Kind.RequiresBottlenecks() || len(r.Bottlenecks) > 0 {
		parts = append(parts, plural(len(r.Bottlenecks), "bottleneck"))
	}
	return leadPrefix + strings.Join(parts, " and ") + "."
}

func plural(n int, noun string) string {
	switch n {
	case 0:
		return "no " + noun + "s"
	case 1:
		return "1 " + noun
	default:
		return fmt.Sprintf("%d %ss", n, noun)
	}
}

// frameBeforeAfter splits code in half, on a line boundary when there is
// more than one line, and labels the halves.
func frameBeforeAfter(code string) string {
	var before, after string
	if lines := strings.Split(code, "\n"); len(lines) > 1 {
		mid := (len(lines) + 1) / 2
		before = strings.Join(lines[:mid], "\n")
		after = strings.Join(lines[mid:], "\n")
	} else {
		runes := []rune(code)
		mid := len(runes) / 2
		// prefer the nearest space at or after the midpoint
		for i := mid; i < len(runes); i++ {
			if runes[i] == ' ' {
				mid = i
				break
			}
		}
		before = strings.TrimSpace(string(runes[:mid]))
		after = strings.TrimSpace(string(runes[mid:]))
	}
	return "BEFORE:\n" + strings.TrimRight(before, "\n") + "\n\nAFTER:\n" + strings.TrimLeft(after, "\n")
}
