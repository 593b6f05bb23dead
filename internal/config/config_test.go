package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codelens/internal/types"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Analysis.Retry.MaxRetries)
	assert.Equal(t, 60.0, cfg.Analysis.Quality.PassScore)
	assert.Equal(t, 6, cfg.Analysis.Prompt.Modules.For(types.ComplexityEnterprise))
}

func TestLoadFromFileOverridesOnlyGivenKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lens.yaml")
	content := `
port: "9090"
store:
  backend: file
analysis:
  retry:
    max_retries: 1
    backoff: 250ms
  quality:
    pass_score: 70
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, 1, cfg.Analysis.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Analysis.Retry.Backoff)
	assert.Equal(t, 70.0, cfg.Analysis.Quality.PassScore)
	// untouched keys keep defaults
	assert.Equal(t, 0.4, cfg.Analysis.Retry.BaseTemperature)
	assert.Equal(t, 20, cfg.Analysis.Complexity.Medium.Files)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LENS_STORE_BACKEND", "postgres")
	t.Setenv("LENS_ANALYSIS_RETRY_MAX_RETRIES", "4")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, 4, cfg.Analysis.Retry.MaxRetries)
}

func TestValidateRejectsInvertedTiers(t *testing.T) {
	a := Default()
	a.Complexity.Complex.Files = 10
	assert.ErrorIs(t, a.Validate(), ErrInvalidTier)
}

func TestTemperatureDecay(t *testing.T) {
	r := Default().Retry
	assert.InDelta(t, 0.4, r.TemperatureFor(1), 1e-9)
	assert.InDelta(t, 0.3, r.TemperatureFor(2), 1e-9)
	assert.InDelta(t, 0.2, r.TemperatureFor(3), 1e-9)
	assert.InDelta(t, 0.1, r.TemperatureFor(10), 1e-9)
	assert.Equal(t, 3, r.MaxAttempts())
}
