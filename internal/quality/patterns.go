package quality

import (
	"regexp"
	"strings"
)

var (
	// quantityPattern matches a number tied to a unit: money, percentages,
	// multipliers, durations, sizes and counts of work.
	quantityPattern = regexp.MustCompile(`(?i)(?:\$\s?\d[\d,]*(?:\.\d+)?(?:\s*[km])?)` +
		`|(?:\d[\d,]*(?:\.\d+)?\s*%)` +
		`|(?:\d+(?:\.\d+)?[km]\b)` +
		`|(?:\d+(?:\.\d+)?\s*[x×](?:\W|$))` +
		`|(?:\d[\d,]*(?:\.\d+)?\s*(?:[km]\s+)?(?:ms|µs|us|ns|s|sec|secs|seconds?|mins?|minutes?|h|hrs?|hours?|days?|kb|mb|gb|tb|bytes?|requests?|req|queries|query|calls?|rps|qps|ops|users|connections|rows|records|items|times|cores?|renders?|allocations?)\b)` +
		`|(?:\bo\(\s*(?:1|n|n\^?\d|n\s*log\s*n|log\s*n|n\s*\*\s*m|2\^n)\s*\))`)

	// location: path with an extension and a line, or a call-like name.
	fileLinePattern = regexp.MustCompile(`[\w./\\-]+\.[A-Za-z0-9]{1,8}:\d+`)
	functionPattern = regexp.MustCompile(`[A-Za-z_$][\w$.]*\s*\(\s*\)`)

	hedgePattern = regexp.MustCompile(`(?i)\b(?:consider|maybe|might|could|perhaps|possibly|may want to|try to)\b`)

	// fences or typical statement shapes mark a code fragment.
	codePattern = regexp.MustCompile("(?m)```|[;{}]\\s*$|^\\s*(?:func|def|function|const|let|var|for|if|return|class|import|SELECT|await)\\b|=>|\\w+\\([^)]*\\)")

	beforeAfterPattern = regexp.MustCompile(`(?i)\b(?:before|original|current)\b[\s\S]*\b(?:after|optimized|improved|fixed)\b`)
	markerPattern      = regexp.MustCompile(`(?im)^\s*(?://|#|--)?\s*(?:before|after)\s*:`)
)

// sentinel locations describe findings that legitimately have no single site.
var sentinelLocations = []string{"project level", "project-level", "global", "multiple files", "n/a", "across codebase"}

var genericPhrases = []string{
	"optimize performance",
	"improve performance",
	"improve efficiency",
	"better performance",
	"optimize the code",
	"refactor the code",
	"use best practices",
	"follow best practices",
	"make it faster",
	"can be optimized",
	"could be improved",
	"performance issues",
}

func hasQuantity(s string) bool { return quantityPattern.MatchString(s) }

func isSentinelLocation(loc string) bool {
	l := strings.ToLower(strings.TrimSpace(loc))
	for _, s := range sentinelLocations {
		if l == s || strings.HasPrefix(l, s) {
			return true
		}
	}
	return false
}

func isSpecificLocation(loc string) bool {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return false
	}
	return isSentinelLocation(loc) || fileLinePattern.MatchString(loc) || functionPattern.MatchString(loc)
}

func countGeneric(s string) int {
	l := strings.ToLower(s)
	n := 0
	for _, p := range genericPhrases {
		n += strings.Count(l, p)
	}
	return n
}

// HasBeforeAfter reports whether a code example reads as a before/after
// comparison, either through explicit markers or through its wording.
func HasBeforeAfter(s string) bool {
	return HasMarkers(s) || beforeAfterPattern.MatchString(s)
}

// HasMarkers reports whether s carries explicit BEFORE:/AFTER: labels.
func HasMarkers(s string) bool { return markerPattern.MatchString(s) }
