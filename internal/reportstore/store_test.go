package reportstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codelens/internal/config"
	"codelens/internal/types"
)

func sampleRecord(id string) Record {
	return Record{
		ID:        id,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Kind:      types.KindPerformance,
		Profile: types.ProjectProfile{
			Complexity:      types.ComplexityMedium,
			TotalFiles:      24,
			PrimaryLanguage: "TypeScript",
			Architecture:    "Backend API",
			Depth:           types.DepthStandard,
		},
		Report: &types.AnalysisReport{
			Kind:    types.KindPerformance,
			Summary: "Queries dominate <p95> latency & memory.",
			Hotspots: []types.Finding{{
				Title: "N+1 query", Location: "src/orders.ts:42", Impact: "120 queries per page",
			}},
		},
		Metrics:  types.QualityMetrics{OverallScore: 71, PassesThreshold: true, Issues: []types.QualityIssue{}, Recommendations: []string{}},
		Attempts: 2,
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, sampleRecord("b-2")))
	require.NoError(t, s.Put(ctx, sampleRecord("a-1")))

	got, err := s.Get(ctx, "b-2")
	require.NoError(t, err)
	assert.Equal(t, sampleRecord("b-2"), got)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "b-2"}, ids)

	// overwrite keeps a single entry
	rec := sampleRecord("a-1")
	rec.Attempts = 3
	require.NoError(t, s.Put(ctx, rec))
	got, err = s.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Attempts)
	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	assert.ErrorIs(t, s.Put(ctx, sampleRecord("../escape")), ErrInvalidID)
	assert.ErrorIs(t, s.Put(ctx, sampleRecord("")), ErrInvalidID)
}

func TestMemoryStore(t *testing.T) {
	s, err := NewMemoryStore(8)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(2)
	require.NoError(t, err)
	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.Put(ctx, sampleRecord(id)))
	}
	_, err = s.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r3"}, ids)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(4)
	require.NoError(t, err)
	rec := sampleRecord("r1")
	require.NoError(t, s.Put(ctx, rec))
	rec.Report.Summary = "changed"

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", got.Report.Summary)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	// records are compressed on disk and no temp files remain
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	raw, err := os.ReadFile(filepath.Join(dir, "a-1"+fileExt))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4])
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, sampleRecord("r1")))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "src/orders.ts:42", got.Report.Hotspots[0].Location)
}

func TestFileStoreRejectsCanceledPut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Put(ctx, sampleRecord("r1")), context.Canceled)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Backend: "memory", MaxEntries: 4})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StoreConfig{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, config.StoreConfig{Backend: "s3", S3: config.S3Config{
		Endpoint: "localhost:9000", AccessKey: "minio", SecretKey: "minio123", Bucket: "reports",
	}})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)

	_, err = Open(ctx, config.StoreConfig{Backend: "s3"})
	assert.Error(t, err)
	_, err = Open(ctx, config.StoreConfig{Backend: "postgres"})
	assert.Error(t, err)
	_, err = Open(ctx, config.StoreConfig{Backend: "tape"})
	assert.Error(t, err)
}

func TestCheckID(t *testing.T) {
	for id, ok := range map[string]bool{
		"0f8fad5b-d9cb-469f-a165-70867728950e": true,
		"run_1":                                true,
		"":                                     false,
		"../x":                                 false,
		"a/b":                                  false,
		"-lead":                                false,
	} {
		_, err := checkID(id)
		assert.Equal(t, ok, err == nil, id)
	}
}
