package scan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func paths(t *testing.T, root string, opts Options) []string {
	t.Helper()
	files, err := Load(root, opts)
	require.NoError(t, err)
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestLoadSkipsDependencyAndVCSDirs(t *testing.T) {
	root := t.TempDir()
	write(t, root, "main.go", "package main\n")
	write(t, root, "src/app/handler.ts", "export const h = 1\n")
	write(t, root, ".git/config", "[core]\n")
	write(t, root, "node_modules/left-pad/index.js", "module.exports = 1\n")
	write(t, root, "vendor/github.com/x/y.go", "package y\n")
	write(t, root, "generated/out.txt", "skip me\n")

	got := paths(t, root, Options{IgnoreDirs: []string{"generated"}})
	assert.Equal(t, []string{"main.go", "src/app/handler.ts"}, got)
}

func TestLoadFiltersContent(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.go", "package a\n")
	write(t, root, "logo.png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	write(t, root, "big.sql", strings.Repeat("x", 2048))

	skipped := map[string]SkipReason{}
	files, err := Load(root, Options{
		MaxFileBytes: 1024,
		OnSkip:       func(p string, r SkipReason) { skipped[p] = r },
	})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.go", files[0].Path)
	assert.Equal(t, "package a\n", files[0].Content)
	assert.Equal(t, len("package a\n"), files[0].Size)
	assert.Equal(t, map[string]SkipReason{"logo.png": SkipBinary, "big.sql": SkipTooLarge}, skipped)
}

func TestLoadRespectsFileLimitDeterministically(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"c.go", "a.go", "b/x.go", "b/a.go"} {
		write(t, root, p, "package p\n")
	}
	first := paths(t, root, Options{MaxFiles: 2})
	second := paths(t, root, Options{MaxFiles: 2})
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a.go", "b/a.go"}, first)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)

	root := t.TempDir()
	write(t, root, "file.txt", "x")
	_, err = Load(filepath.Join(root, "file.txt"), Options{})
	assert.ErrorIs(t, err, ErrNotDir)
}

func TestTotalBytes(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.go", "12345")
	write(t, root, "b.go", "123")
	files, err := Load(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(8), TotalBytes(files))
}
