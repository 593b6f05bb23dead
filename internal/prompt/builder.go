package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Section is one named block of the instruction document.
type Section struct {
	Title string
	Body  string
}

// Builder collects sections and renders them in a single pass.
type Builder struct {
	sections []Section
}

// Add appends a section; empty bodies are skipped.
func (b *Builder) Add(title, body string) *Builder {
	if strings.TrimSpace(body) == "" {
		return b
	}
	b.sections = append(b.sections, Section{Title: title, Body: body})
	return b
}

// Join returns a new builder holding b's sections followed by other's.
func (b *Builder) Join(other *Builder) *Builder {
	out := &Builder{sections: make([]Section, 0, len(b.sections)+len(other.sections))}
	out.sections = append(out.sections, b.sections...)
	out.sections = append(out.sections, other.sections...)
	return out
}

// Titles lists the section titles in render order.
func (b *Builder) Titles() []string {
	out := make([]string, 0, len(b.sections))
	for _, s := range b.sections {
		out = append(out, s.Title)
	}
	return out
}

func (b *Builder) String() string {
	var buf bytes.Buffer
	for _, s := range b.sections {
		writeSection(&buf, s.Title, s.Body)
	}
	return strings.TrimSpace(buf.String()) + "\n"
}

// Len is the rendered length in runes.
func (b *Builder) Len() int { return utf8.RuneCountInString(b.String()) }

func writeSection(buf *bytes.Buffer, title, body string) {
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatKV(pairs ...string) string {
	var buf strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&buf, "%s: %s\n", pairs[i], pairs[i+1])
	}
	return strings.TrimRight(buf.String(), "\n")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
