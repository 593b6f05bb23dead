package profile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codelens/internal/config"
	"codelens/internal/lens"
	"codelens/internal/types"
)

func rec(path, content string) types.FileRecord {
	return types.FileRecord{Path: path, Content: content, Size: len(content)}
}

func TestProfileEmptyInput(t *testing.T) {
	p := New(nil, nil).Profile(nil)

	assert.Equal(t, types.ComplexitySimple, p.Complexity)
	assert.Equal(t, types.DepthQuick, p.Depth)
	assert.Equal(t, 0, p.TotalFiles)
	assert.Equal(t, "Unknown", p.PrimaryLanguage)
	assert.Equal(t, "Monolithic", p.Architecture)
	require.Len(t, p.Modules, 1)
	assert.Equal(t, "general", p.Modules[0].ID)
	assert.True(t, p.Modules[0].Fallback)
	assert.Equal(t, 0, p.DetectedCount())
}

func TestProfileSortsByPriorityWithRegistryTieBreak(t *testing.T) {
	files := []types.FileRecord{
		rec("web/App.tsx", "import React from 'react'"),
		rec("src/routes/users.ts", "router.get('/users', handler)"),
		rec("db/schema.sql", "CREATE TABLE users (id int)"),
	}
	p := New(nil, nil).Profile(files)

	ids := p.ModuleIDs()
	require.GreaterOrEqual(t, len(ids), 3)
	assert.Equal(t, []string{"database", "api_latency", "frontend_rendering"}, ids[:3])
	for i := 1; i < len(p.Modules); i++ {
		assert.GreaterOrEqual(t, p.Modules[i-1].Priority, p.Modules[i].Priority)
	}
}

func TestProfileIsDeterministic(t *testing.T) {
	files := []types.FileRecord{
		rec("src/a.py", "import asyncio\nasync def f(): await g()"),
		rec("src/b.py", "requests.get(url)"),
	}
	pr := New(nil, nil)
	assert.Equal(t, pr.Profile(files), pr.Profile(files))
}

func TestComplexityBoundaries(t *testing.T) {
	pr := New(nil, nil)
	tests := []struct {
		files, modules int
		want           types.Complexity
	}{
		{0, 0, types.ComplexitySimple},
		{20, 2, types.ComplexitySimple},
		{21, 0, types.ComplexityMedium},
		{0, 3, types.ComplexityMedium},
		{51, 0, types.ComplexityComplex},
		{0, 5, types.ComplexityComplex},
		{101, 0, types.ComplexityEnterprise},
		{0, 7, types.ComplexityEnterprise},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d", tt.files, tt.modules), func(t *testing.T) {
			assert.Equal(t, tt.want, pr.Complexity(tt.files, tt.modules))
		})
	}
}

func TestComplexityIsMonotone(t *testing.T) {
	pr := New(nil, nil)
	for files := 0; files < 150; files += 7 {
		for mods := 0; mods < 9; mods++ {
			base := pr.Complexity(files, mods).Rank()
			assert.GreaterOrEqual(t, pr.Complexity(files+1, mods).Rank(), base)
			assert.GreaterOrEqual(t, pr.Complexity(files, mods+1).Rank(), base)
		}
	}
}

func TestComplexityUsesConfiguredThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.Complexity.Medium.Files = 1
	pr := New(nil, cfg)
	assert.Equal(t, types.ComplexityMedium, pr.Complexity(2, 0))
}

func TestDepthLookup(t *testing.T) {
	pr := New(nil, nil)
	assert.Equal(t, types.DepthDeep, pr.Depth(types.ComplexityEnterprise, 0))
	assert.Equal(t, types.DepthDeep, pr.Depth(types.ComplexitySimple, 6))
	assert.Equal(t, types.DepthStandard, pr.Depth(types.ComplexityComplex, 0))
	assert.Equal(t, types.DepthStandard, pr.Depth(types.ComplexityMedium, 4))
	assert.Equal(t, types.DepthQuick, pr.Depth(types.ComplexityMedium, 3))
}

func TestFallbackDoesNotCountTowardModules(t *testing.T) {
	reg := lens.NewRegistry(lens.Descriptor{ID: "general", Priority: 1, Detect: lens.Never{}})
	cfg := config.Default()
	cfg.Complexity.Medium.Modules = 0
	p := New(reg, cfg).Profile([]types.FileRecord{rec("a.txt", "")})
	assert.Equal(t, types.ComplexitySimple, p.Complexity)
	assert.Equal(t, []string{"general"}, p.ModuleIDs())
}

func TestPrimaryLanguage(t *testing.T) {
	tests := []struct {
		name  string
		files []types.FileRecord
		want  string
	}{
		{"plurality", []types.FileRecord{rec("a.py", ""), rec("b.py", ""), rec("c.go", "")}, "Python"},
		{"ts buckets tsx", []types.FileRecord{rec("a.ts", ""), rec("b.tsx", ""), rec("c.py", "")}, "TypeScript"},
		{"tie uses preference", []types.FileRecord{rec("a.go", ""), rec("b.py", "")}, "Python"},
		{"vendor ignored", []types.FileRecord{rec("vendor/x/a.go", ""), rec("node_modules/y/b.go", ""), rec("main.rs", "")}, "Rust"},
		{"docs only", []types.FileRecord{rec("README.md", ""), rec("LICENSE", ""), rec("data.json", "")}, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, primaryLanguage(tt.files))
		})
	}
}

func TestArchitecture(t *testing.T) {
	tests := []struct {
		name  string
		files []types.FileRecord
		want  string
	}{
		{"microservices dir", []types.FileRecord{rec("microservices/billing/main.go", "")}, "Microservices"},
		{"services with compose", []types.FileRecord{
			rec("services/users/main.go", ""),
			rec("services/orders/main.go", ""),
			rec("docker-compose.yml", ""),
		}, "Microservices"},
		{"full stack", []types.FileRecord{rec("server.js", "const app = express()"), rec("web/App.jsx", "")}, "Full-Stack"},
		{"backend", []types.FileRecord{rec("main.py", "from fastapi import FastAPI")}, "Backend API"},
		{"spa", []types.FileRecord{rec("src/App.vue", "")}, "Frontend SPA"},
		{"plain", []types.FileRecord{rec("lib/util.rb", "def x; end")}, "Monolithic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, architecture(tt.files))
		})
	}
}
