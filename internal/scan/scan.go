// Package scan turns a directory tree into the file records the analyzer
// consumes.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/src-d/enry/v2"

	"codelens/internal/types"
)

// Options bounds a Load. Zero values fall back to the defaults.
type Options struct {
	// MaxFileBytes skips files larger than this.
	MaxFileBytes int64
	// MaxFiles stops the walk once this many files are collected.
	MaxFiles int
	// IgnoreDirs adds directory names to the built-in skip list.
	IgnoreDirs []string
	// OnSkip, when set, is told about every file left out and why.
	OnSkip func(path string, reason SkipReason)
}

type SkipReason string

const (
	SkipVendored SkipReason = "vendored"
	SkipTooLarge SkipReason = "too_large"
	SkipBinary   SkipReason = "binary"
	SkipLimit    SkipReason = "file_limit"
	SkipUnread   SkipReason = "unreadable"
)

const (
	DefaultMaxFileBytes = 256 << 10
	DefaultMaxFiles     = 2000
)

// ErrNotDir is returned when root is not a directory.
var ErrNotDir = errors.New("scan: root is not a directory")

var skipDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	"node_modules": true, "vendor": true, "target": true, "build": true, "dist": true,
	".next": true, ".cache": true, "__pycache__": true, ".venv": true, ".idea": true, ".vscode": true,
}

func (o Options) withDefaults() Options {
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = DefaultMaxFileBytes
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	return o
}

// Load walks root and returns the text files under it with slash-separated
// relative paths, sorted by path.
func Load(root string, opts Options) ([]types.FileRecord, error) {
	opts = opts.withDefaults()
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, root)
	}

	ignore := make(map[string]bool, len(skipDirs)+len(opts.IgnoreDirs))
	for k := range skipDirs {
		ignore[k] = true
	}
	for _, d := range opts.IgnoreDirs {
		ignore[strings.Trim(d, "/")] = true
	}
	skip := func(p string, r SkipReason) {
		if opts.OnSkip != nil {
			opts.OnSkip(p, r)
		}
	}

	var out []types.FileRecord
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if p != root && (ignore[d.Name()] || enry.IsVendor(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if enry.IsVendor(rel) {
			skip(rel, SkipVendored)
			return nil
		}
		if len(out) >= opts.MaxFiles {
			skip(rel, SkipLimit)
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			skip(rel, SkipUnread)
			return nil
		}
		if fi.Size() > opts.MaxFileBytes {
			skip(rel, SkipTooLarge)
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			skip(rel, SkipUnread)
			return nil
		}
		if enry.IsBinary(b) || !utf8.Valid(b) {
			skip(rel, SkipBinary)
			return nil
		}
		out = append(out, types.FileRecord{Path: rel, Content: string(b), Size: len(b)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// TotalBytes sums the sizes of files.
func TotalBytes(files []types.FileRecord) int64 {
	var n int64
	for _, f := range files {
		n += int64(f.Size)
	}
	return n
}
