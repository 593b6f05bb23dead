package lens

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"codelens/internal/types"
)

// Detector is a pure predicate over a file set. MatchFile is the per-file
// form used to prioritize context; aggregate detectors return false there.
type Detector interface {
	Detect(files []types.FileRecord) bool
	MatchFile(f types.FileRecord) bool
	Describe() string
}

// PathContains matches when any path contains one of the substrings
// (case-insensitive).
type PathContains []string

func (p PathContains) MatchFile(f types.FileRecord) bool {
	lp := strings.ToLower(f.Path)
	for _, s := range p {
		if strings.Contains(lp, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func (p PathContains) Detect(files []types.FileRecord) bool { return anyFile(files, p.MatchFile) }
func (p PathContains) Describe() string                     { return "path contains " + strings.Join(p, "|") }

// Extensions matches lowercase file extensions, dot included.
type Extensions []string

func (e Extensions) MatchFile(f types.FileRecord) bool {
	ext := strings.ToLower(path.Ext(f.Path))
	for _, x := range e {
		if ext == x {
			return true
		}
	}
	return false
}

func (e Extensions) Detect(files []types.FileRecord) bool { return anyFile(files, e.MatchFile) }
func (e Extensions) Describe() string                     { return "extension in " + strings.Join(e, ",") }

// ContentMatches matches file content against a compiled pattern.
type ContentMatches struct {
	Pattern *regexp.Regexp
}

func Content(expr string) ContentMatches {
	return ContentMatches{Pattern: regexp.MustCompile(expr)}
}

func (c ContentMatches) MatchFile(f types.FileRecord) bool {
	return c.Pattern != nil && c.Pattern.MatchString(f.Content)
}

func (c ContentMatches) Detect(files []types.FileRecord) bool { return anyFile(files, c.MatchFile) }
func (c ContentMatches) Describe() string                     { return "content ~ /" + c.Pattern.String() + "/" }

// MinFiles is an aggregate count: more than N files.
type MinFiles int

func (n MinFiles) MatchFile(types.FileRecord) bool      { return false }
func (n MinFiles) Detect(files []types.FileRecord) bool { return len(files) > int(n) }
func (n MinFiles) Describe() string                     { return fmt.Sprintf("more than %d files", int(n)) }

// MinMatches requires at least Count files (or occurrences, when PerFile > 0,
// at least PerFile pattern hits inside one file) to match Inner.
type MinMatches struct {
	Inner   Detector
	Count   int
	Pattern *regexp.Regexp
	PerFile int
}

func (m MinMatches) MatchFile(f types.FileRecord) bool {
	if m.Pattern != nil && m.PerFile > 0 {
		return len(m.Pattern.FindAllStringIndex(f.Content, m.PerFile)) >= m.PerFile
	}
	if m.Inner != nil {
		return m.Inner.MatchFile(f)
	}
	return false
}

func (m MinMatches) Detect(files []types.FileRecord) bool {
	need := m.Count
	if need < 1 {
		need = 1
	}
	n := 0
	for _, f := range files {
		if m.MatchFile(f) {
			n++
			if n >= need {
				return true
			}
		}
	}
	return false
}

func (m MinMatches) Describe() string {
	if m.Pattern != nil {
		return fmt.Sprintf("%d+ files with %d+ hits of /%s/", max(m.Count, 1), m.PerFile, m.Pattern.String())
	}
	return fmt.Sprintf("%d+ files where %s", max(m.Count, 1), m.Inner.Describe())
}

// AnyOf matches when any inner detector matches.
type AnyOf []Detector

func (a AnyOf) MatchFile(f types.FileRecord) bool {
	for _, d := range a {
		if d.MatchFile(f) {
			return true
		}
	}
	return false
}

func (a AnyOf) Detect(files []types.FileRecord) bool {
	for _, d := range a {
		if d.Detect(files) {
			return true
		}
	}
	return false
}

func (a AnyOf) Describe() string {
	parts := make([]string, 0, len(a))
	for _, d := range a {
		parts = append(parts, d.Describe())
	}
	return "any(" + strings.Join(parts, "; ") + ")"
}

// Never is used by the fallback module.
type Never struct{}

func (Never) MatchFile(types.FileRecord) bool { return false }
func (Never) Detect([]types.FileRecord) bool  { return false }
func (Never) Describe() string                { return "never (fallback)" }

func anyFile(files []types.FileRecord, fn func(types.FileRecord) bool) bool {
	for _, f := range files {
		if fn(f) {
			return true
		}
	}
	return false
}
