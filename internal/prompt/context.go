package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"codelens/internal/lens"
	"codelens/internal/types"
)

// OmittedMarker is appended when files were left out of the context.
func OmittedMarker(n int) string {
	return fmt.Sprintf("[... %d more files omitted ...]\n", n)
}

// Context renders the file context block within MaxContextChars runes and
// returns how many files were omitted. Files relevant to a detected module
// come first, then smaller files, then path order. Assembly stops at the
// first file that does not fit.
func (c *Composer) Context(profile types.ProjectProfile, files []types.FileRecord) (string, int) {
	budget := c.cfg.Prompt.MaxContextChars
	ordered := c.orderFiles(profile, files)

	blocks := make([]string, len(ordered))
	total := 0
	for i, f := range ordered {
		blocks[i] = fileBlock(f)
		total += runeLen(blocks[i])
	}
	if total <= budget {
		return strings.Join(blocks, ""), 0
	}

	// reserve the widest marker this request can need
	room := budget - runeLen(OmittedMarker(len(ordered)))
	var b strings.Builder
	used, n := 0, 0
	for _, blk := range blocks {
		l := runeLen(blk)
		if used+l > room {
			break
		}
		b.WriteString(blk)
		used += l
		n++
	}
	omitted := len(ordered) - n
	b.WriteString(OmittedMarker(omitted))
	return truncateRunes(b.String(), budget), omitted
}

func fileBlock(f types.FileRecord) string {
	size := f.Size
	if size <= 0 {
		size = len(f.Content)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s (%s) ===\n", f.Path, humanize.Bytes(uint64(size)))
	b.WriteString(f.Content)
	if !strings.HasSuffix(f.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (c *Composer) orderFiles(profile types.ProjectProfile, files []types.FileRecord) []types.FileRecord {
	var dets []lens.Detector
	for _, ref := range profile.Modules {
		if ref.Fallback {
			continue
		}
		if d, ok := c.reg.Lookup(ref.ID); ok && d.Detect != nil {
			dets = append(dets, d.Detect)
		}
	}
	relevant := func(f types.FileRecord) bool {
		for _, d := range dets {
			if d.MatchFile(f) {
				return true
			}
		}
		return false
	}

	type keyed struct {
		f    types.FileRecord
		hot  bool
		size int
	}
	ks := make([]keyed, len(files))
	for i, f := range files {
		ks[i] = keyed{f: f, hot: relevant(f), size: len(f.Content)}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.hot != b.hot {
			return a.hot
		}
		if a.size != b.size {
			return a.size < b.size
		}
		return a.f.Path < b.f.Path
	})
	out := make([]types.FileRecord, len(ks))
	for i, k := range ks {
		out[i] = k.f
	}
	return out
}
