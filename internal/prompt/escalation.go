package prompt

import (
	"fmt"
	"strings"
)

// Rule sets reused across sections. Escalation stacks them by level.
var (
	rulesStrictJSON = []string{
		"Return strict JSON only, matching the response schema exactly.",
		"No markdown fences, comments or trailing commas.",
	}
	rulesNoInvent = []string{
		"Cite only paths that appear in the provided codebase; never invent files, symbols or line numbers.",
	}
	rulesLevel1 = []string{
		"Every finding's location must be file:line or a function() name.",
		"Every impact must contain a number with a unit (ms, %, MB, requests, queries, x).",
		"Suggestions must be direct instructions; do not hedge with consider, maybe or might.",
	}
	rulesLevel2 = []string{
		"The previous responses were rejected. Meet every required field and minimum count exactly.",
		"Do not use generic phrases such as \"optimize performance\" or \"improve efficiency\"; name the exact change.",
		"The code example must show a BEFORE block and an AFTER block taken from the cited code.",
	}
)

const exampleFinding = `{
  "title": "N+1 query loading order items",
  "location": "src/orders/service.ts:42",
  "description": "getOrders() issues one SELECT per order inside a for loop.",
  "impact": "120 queries per page load, about 480ms added latency at 4ms per query.",
  "suggestion": "Load items with a single WHERE order_id IN (...) query and group them in memory.",
  "severity": "high"
}`

// qualityRequirements renders the escalation block for a given level.
// Level 0 renders nothing.
func qualityRequirements(level int) string {
	if level <= 0 {
		return ""
	}
	rules := append([]string{}, rulesLevel1...)
	if level >= 2 {
		rules = append(rules, rulesLevel2...)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Escalation level %d. The previous response could not be used.\n", level)
	b.WriteString(formatList(rules))
	if level >= 2 {
		b.WriteString("\n\nExample of an acceptable finding:\n")
		b.WriteString(exampleFinding)
	}
	return b.String()
}
