package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codelens/internal/config"
	llmclient "codelens/internal/llm/client"
	"codelens/internal/types"
)

func TestParseCannedReport(t *testing.T) {
	r, err := Parse(types.KindPerformance, llmclient.CannedReport)
	require.NoError(t, err)
	assert.Equal(t, types.KindPerformance, r.Kind)
	assert.Len(t, r.Hotspots, 3)
	assert.Len(t, r.Bottlenecks, 2)
	assert.Contains(t, r.CodeExample, "BEFORE:")
	assert.Equal(t, "src/orders/service.ts:42", r.Hotspots[0].Location)
}

func TestParseStripsFencesAndResolvesAliases(t *testing.T) {
	text := "```json\n" + `{
  "summary": "s",
  "hotspots": [{"title": "t", "file": "a.go", "line": 12, "reason": "slow", "fix": "cache it"}]
}` + "\n```"
	r, err := Parse(types.KindHotspots, text)
	require.NoError(t, err)
	require.Len(t, r.Hotspots, 1)
	h := r.Hotspots[0]
	assert.Equal(t, "a.go:12", h.Location)
	assert.Equal(t, "slow", h.Description)
	assert.Equal(t, "cache it", h.Suggestion)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		kind types.ReportKind
		text string
		want error
	}{
		{"empty", types.KindPerformance, "   ", llmclient.ErrEmptyResponse},
		{"prose", types.KindPerformance, "I could not analyze this.", llmclient.ErrInvalidJSON},
		{"truncated", types.KindPerformance, `{"summary": "s", "hotspots": [}`, llmclient.ErrInvalidJSON},
		{"missing bottlenecks", types.KindPerformance, `{"summary": "s", "hotspots": [], "codeExample": ""}`, ErrSchema},
		{"wrong type", types.KindHotspots, `{"summary": 3, "hotspots": []}`, ErrSchema},
		{"untitled finding", types.KindHotspots, `{"summary": "s", "hotspots": [{"location": "a.go:1"}]}`, ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.kind, tt.text)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHotspotsKindDoesNotNeedBottlenecks(t *testing.T) {
	_, err := Parse(types.KindHotspots, `{"summary": "s", "hotspots": []}`)
	assert.NoError(t, err)
}

func TestSchemaForIsStricterThanValidation(t *testing.T) {
	s := SchemaFor(types.KindPerformance, config.FindingMinimums{})
	assert.Equal(t, []string{"summary", "hotspots", "bottlenecks", "codeExample"}, s.Required)
	item := s.Properties["hotspots"].Items
	assert.Contains(t, item.Required, "impact")
	assert.Equal(t, Severities, item.Properties["severity"].Enum)

	v := validationSchema(types.KindPerformance)
	assert.Equal(t, []string{"title"}, v.Properties["hotspots"].Items.Required)
	assert.Empty(t, v.Properties["hotspots"].Items.Properties["severity"].Enum)

	h := SchemaFor(types.KindHotspots, config.FindingMinimums{})
	assert.NotContains(t, h.Properties, "codeExample")
}

func TestSchemaForCarriesTierMinimums(t *testing.T) {
	want := config.Default().Quality.Minimums.For(types.ComplexityComplex)
	s := SchemaFor(types.KindPerformance, want)
	assert.Equal(t, 4, s.Properties["hotspots"].MinItems)
	assert.Equal(t, 3, s.Properties["bottlenecks"].MinItems)
	assert.Equal(t, 4, s.JSONSchema()["properties"].(map[string]any)["hotspots"].(map[string]any)["minItems"])

	h := SchemaFor(types.KindHotspots, want)
	assert.Equal(t, 4, h.Properties["hotspots"].MinItems)

	// a short list still parses; the rubric scores it
	r, err := Parse(types.KindPerformance, `{"summary":"s","hotspots":[{"title":"a"}],"bottlenecks":[],"codeExample":""}`)
	require.NoError(t, err)
	assert.Len(t, r.Hotspots, 1)
}
