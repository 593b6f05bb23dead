package profile

import (
	"path"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"

	"codelens/internal/types"
)

// extBuckets maps extensions to a language bucket; .ts/.tsx share one, etc.
var extBuckets = map[string]string{
	".ts":     "TypeScript",
	".tsx":    "TypeScript",
	".mts":    "TypeScript",
	".cts":    "TypeScript",
	".js":     "JavaScript",
	".jsx":    "JavaScript",
	".mjs":    "JavaScript",
	".cjs":    "JavaScript",
	".py":     "Python",
	".go":     "Go",
	".java":   "Java",
	".kt":     "Kotlin",
	".rb":     "Ruby",
	".php":    "PHP",
	".cs":     "C#",
	".rs":     "Rust",
	".swift":  "Swift",
	".vue":    "Vue",
	".svelte": "Svelte",
}

// languagePreference breaks plurality ties; earlier wins.
var languagePreference = []string{
	"TypeScript", "JavaScript", "Python", "Go", "Java", "Kotlin", "C#", "Rust", "Ruby", "PHP", "Swift", "Vue", "Svelte",
}

// nonCode languages never win the vote.
var nonCode = map[string]bool{
	"JSON": true, "YAML": true, "Markdown": true, "Text": true, "XML": true, "TOML": true,
	"INI": true, "CSV": true, "SVG": true, "HTML": true, "CSS": true, "SCSS": true, "Ignore List": true,
}

const unknownLanguage = "Unknown"

func bucketOf(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if b, ok := extBuckets[ext]; ok {
		return b
	}
	lang, safe := enry.GetLanguageByExtension(path.Base(p))
	if !safe || nonCode[lang] {
		return ""
	}
	return lang
}

// primaryLanguage runs a plurality vote over extension buckets.
func primaryLanguage(files []types.FileRecord) string {
	votes := map[string]int{}
	for _, f := range files {
		if enry.IsVendor(f.Path) {
			continue
		}
		if b := bucketOf(f.Path); b != "" {
			votes[b]++
		}
	}
	if len(votes) == 0 {
		return unknownLanguage
	}
	best, bestN := "", 0
	consider := func(lang string) {
		n := votes[lang]
		if n > bestN {
			best, bestN = lang, n
		}
	}
	for _, lang := range languagePreference {
		consider(lang)
	}
	// languages outside the preference list compete after it, alphabetically
	rest := make([]string, 0, len(votes))
	for lang := range votes {
		if !inPreference(lang) {
			rest = append(rest, lang)
		}
	}
	sort.Strings(rest)
	for _, lang := range rest {
		consider(lang)
	}
	return best
}

func inPreference(lang string) bool {
	for _, l := range languagePreference {
		if l == lang {
			return true
		}
	}
	return false
}
