package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"codelens/internal/config"
	"codelens/internal/lens"
	"codelens/internal/types"
)

// Options carries the per-request inputs to composition.
type Options struct {
	Kind             types.ReportKind
	UserInstructions string
	// Attempt is 1-based; attempts after the first add escalation.
	Attempt int
}

// Composer assembles instruction and context blocks within configured budgets.
// It is stateless and safe for concurrent use.
type Composer struct {
	reg *lens.Registry
	cfg *config.Analysis
}

func New(reg *lens.Registry, cfg *config.Analysis) *Composer {
	if reg == nil {
		reg = lens.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Composer{reg: reg, cfg: cfg}
}

// Compose renders both blocks.
func (c *Composer) Compose(profile types.ProjectProfile, files []types.FileRecord, opts Options) types.ComposedInput {
	instr, sections, cut := c.Instruction(profile, opts)
	ctx, omitted := c.Context(profile, files)
	return types.ComposedInput{
		Instruction:  instr,
		Context:      ctx,
		Truncated:    cut || omitted > 0,
		OmittedFiles: omitted,
		Sections:     sections,
	}
}

// Instruction renders the instruction document for one attempt. The result
// never exceeds MaxInstructionChars runes; the bool reports whether anything
// had to be dropped or cut. Over budget, user instructions are shortened
// first, then module sections go lowest priority first, then the leading
// sections are cut so the output requirements and escalation block stay whole.
func (c *Composer) Instruction(profile types.ProjectProfile, opts Options) (string, []string, bool) {
	budget := c.cfg.Prompt.MaxInstructionChars
	mods := c.selectModules(profile)
	user := strings.TrimSpace(opts.UserInstructions)

	build := func(mods []lens.Descriptor, user string) (head, tail *Builder) {
		head = &Builder{}
		head.Add("BASE", baseInstruction(opts.Kind))
		head.Add("PROJECT_PROFILE", formatProfile(profile))
		for _, m := range mods {
			head.Add("MODULE: "+m.Name, moduleBody(m))
		}
		head.Add("USER_INSTRUCTIONS", user)
		tail = &Builder{}
		tail.Add("FINAL_OUTPUT_REQUIREMENTS", c.finalRequirements(profile, mods, opts.Kind))
		tail.Add("QUALITY_REQUIREMENTS", qualityRequirements(opts.Attempt-1))
		return head, tail
	}

	head, tail := build(mods, user)
	b := head.Join(tail)
	if b.Len() <= budget {
		return b.String(), b.Titles(), false
	}
	if user != "" {
		keep := runeLen(user) - (b.Len() - budget) - runeLen(ellipsis)
		if keep > 0 {
			user = strings.TrimSpace(truncateRunes(user, keep)) + ellipsis
		} else {
			user = ""
		}
		head, tail = build(mods, user)
		b = head.Join(tail)
	}
	// modules are in priority order; the tail goes first
	for len(mods) > 0 && b.Len() > budget {
		mods = mods[:len(mods)-1]
		head, tail = build(mods, user)
		b = head.Join(tail)
	}
	if b.Len() <= budget {
		return b.String(), b.Titles(), true
	}
	return fitTail(head, tail, budget), b.Titles(), true
}

// fitTail cuts the head so the tail survives intact. When the tail alone is
// over budget it is cut instead.
func fitTail(head, tail *Builder, budget int) string {
	t := tail.String()
	room := budget - runeLen(t) - 1
	if room <= 0 {
		return truncateRunes(t, budget)
	}
	return truncateRunes(head.String(), room) + "\n" + t
}

const ellipsis = " [...]"

// selectModules resolves the profile's modules to descriptors and keeps the
// tier's top N.
func (c *Composer) selectModules(profile types.ProjectProfile) []lens.Descriptor {
	limit := c.cfg.Prompt.Modules.For(profile.Complexity)
	out := make([]lens.Descriptor, 0, limit)
	for _, ref := range profile.Modules {
		if len(out) >= limit {
			break
		}
		if d, ok := c.reg.Lookup(ref.ID); ok {
			out = append(out, d)
		}
	}
	return out
}

func baseInstruction(kind types.ReportKind) string {
	s := `You are a senior performance engineer reviewing a codebase. Find the places
where the code wastes time, memory, network or database capacity, explain the
measurable cost of each and give a concrete fix.`
	if kind == types.KindHotspots {
		s += "\nThis is a quick pass: report the hottest spots only."
	}
	return s
}

func formatProfile(p types.ProjectProfile) string {
	names := make([]string, 0, len(p.Modules))
	for _, m := range p.Modules {
		names = append(names, m.Name)
	}
	return formatKV(
		"Complexity", string(p.Complexity),
		"Analysis depth", string(p.Depth),
		"Files", strconv.Itoa(p.TotalFiles),
		"Primary language", p.PrimaryLanguage,
		"Architecture", p.Architecture,
		"Detected modules", strings.Join(names, ", "),
	)
}

func moduleBody(d lens.Descriptor) string {
	return fmt.Sprintf("Priority: %d/10\n%s", d.Priority, strings.TrimSpace(d.Instruction))
}

func (c *Composer) finalRequirements(p types.ProjectProfile, mods []lens.Descriptor, kind types.ReportKind) string {
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, m.Name)
	}
	want := c.cfg.Quality.Minimums.For(p.Complexity)
	var rules []string
	if len(names) > 0 {
		rules = append(rules, "Focus areas: "+strings.Join(names, ", ")+".")
	}
	rules = append(rules,
		"Order findings by severity: critical first, then high, medium, low.",
		fmt.Sprintf("Report at least %d hotspots.", want.Hotspots),
	)
	fields := "summary, hotspots"
	if kind.RequiresBottlenecks() {
		rules = append(rules, fmt.Sprintf("Report at least %d bottlenecks.", want.Bottlenecks))
		fields += ", bottlenecks"
	}
	if kind.RequiresCodeExample() {
		rules = append(rules, "Include codeExample with the original code and the optimized version of the most severe finding.")
		fields += ", codeExample"
	}
	rules = append(rules, "Required fields: "+fields+".")
	rules = append(rules, rulesStrictJSON...)
	rules = append(rules, rulesNoInvent...)
	return formatList(rules)
}

// Task is the short user-turn request sent with the context block.
func Task(kind types.ReportKind) string {
	if kind == types.KindHotspots {
		return "Analyze the codebase above and return the hotspot report as JSON."
	}
	return "Analyze the codebase above and return the performance report as JSON."
}
