package profile

import (
	"path"
	"sort"
	"strings"

	"codelens/internal/config"
	"codelens/internal/lens"
	"codelens/internal/types"
)

// Profiler classifies a file set. It holds no per-request state and is safe
// for concurrent use.
type Profiler struct {
	reg *lens.Registry
	cfg *config.Analysis
}

func New(reg *lens.Registry, cfg *config.Analysis) *Profiler {
	if reg == nil {
		reg = lens.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Profiler{reg: reg, cfg: cfg}
}

// Profile is total over any input, including an empty list.
func (p *Profiler) Profile(files []types.FileRecord) types.ProjectProfile {
	detected := p.Detect(files)
	count := len(detected)

	mods := make([]types.ModuleRef, 0, len(detected)+1)
	for _, d := range detected {
		mods = append(mods, d.Ref())
	}
	if len(mods) == 0 {
		fb := p.reg.Fallback().Ref()
		fb.Fallback = true
		mods = append(mods, fb)
	}

	complexity := p.Complexity(len(files), count)
	return types.ProjectProfile{
		Complexity:      complexity,
		Modules:         mods,
		TotalFiles:      len(files),
		PrimaryLanguage: primaryLanguage(files),
		Architecture:    architecture(files),
		Depth:           p.Depth(complexity, count),
	}
}

// Detect evaluates every registry predicate and orders matches by priority
// descending; registry order breaks ties.
func (p *Profiler) Detect(files []types.FileRecord) []lens.Descriptor {
	var out []lens.Descriptor
	for _, d := range p.reg.Entries() {
		if d.Detect != nil && d.Detect.Detect(files) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Complexity is a monotone step function of file and module counts.
func (p *Profiler) Complexity(files, modules int) types.Complexity {
	th := p.cfg.Complexity
	exceeds := func(t config.TierThreshold) bool {
		return files > t.Files || modules > t.Modules
	}
	switch {
	case exceeds(th.Enterprise):
		return types.ComplexityEnterprise
	case exceeds(th.Complex):
		return types.ComplexityComplex
	case exceeds(th.Medium):
		return types.ComplexityMedium
	default:
		return types.ComplexitySimple
	}
}

// Depth is a lookup on tier and module count.
func (p *Profiler) Depth(c types.Complexity, modules int) types.Depth {
	th := p.cfg.Depth
	switch {
	case c == types.ComplexityEnterprise || modules > th.DeepModules:
		return types.DepthDeep
	case c == types.ComplexityComplex || modules > th.StandardModules:
		return types.DepthStandard
	default:
		return types.DepthQuick
	}
}

// Architecture ------------------------------------------------------------------

type archRule struct {
	label string
	match func(files []types.FileRecord) bool
}

var (
	backendMarker = lens.Content(`express\(\)|from fastapi|import fastapi|from flask|django|gin\.(Default|New)\(|@SpringBootApplication|@RestController|http\.ListenAndServe|koa\(\)|NestFactory`)
	uiExts        = lens.Extensions{".tsx", ".jsx", ".vue", ".svelte", ".html"}
)

var archRules = []archRule{
	{"Microservices", func(files []types.FileRecord) bool {
		if (lens.PathContains{"microservices"}).Detect(files) {
			return true
		}
		return countServiceRoots(files) >= 2 && (lens.PathContains{"docker-compose", "k8s/", "helm/"}).Detect(files)
	}},
	{"Full-Stack", func(files []types.FileRecord) bool {
		return backendMarker.Detect(files) && uiExts.Detect(files)
	}},
	{"Backend API", backendMarker.Detect},
	{"Frontend SPA", uiExts.Detect},
}

func architecture(files []types.FileRecord) string {
	for _, r := range archRules {
		if r.match(files) {
			return r.label
		}
	}
	return "Monolithic"
}

// countServiceRoots counts distinct directories directly under "services/".
func countServiceRoots(files []types.FileRecord) int {
	roots := map[string]bool{}
	for _, f := range files {
		parts := strings.Split(path.Clean(f.Path), "/")
		for i := 0; i+1 < len(parts)-1; i++ {
			if parts[i] == "services" {
				roots[parts[i+1]] = true
				break
			}
		}
	}
	return len(roots)
}

