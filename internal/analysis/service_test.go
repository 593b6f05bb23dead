package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmclient "codelens/internal/llm/client"
	"codelens/internal/metrics"
	"codelens/internal/quality"
	"codelens/internal/reportstore"
	"codelens/internal/requester"
	"codelens/internal/types"
)

const poorReport = `{"summary":"Slow.","hotspots":[{"title":"Slow page","location":"somewhere"}],"bottlenecks":[],"codeExample":""}`

func sampleFiles() []types.FileRecord {
	files := []types.FileRecord{
		{Path: "src/orders/service.ts", Content: "export async function listOrders() { for (const o of orders) { await db.query('SELECT * FROM items') } }"},
		{Path: "src/server.ts", Content: "const app = express(); app.listen(3000)"},
		{Path: "README.md", Content: "# shop\n"},
	}
	for i := range files {
		files[i].Size = len(files[i].Content)
	}
	return files
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []EventType{}
	for _, e := range r.events {
		switch e.Type {
		case EventTransition, EventModelRequest, EventModelResponse:
		default:
			out = append(out, e.Type)
		}
	}
	return out
}

func noSleep(context.Context, time.Duration) error { return nil }

func newService(t *testing.T, client llmclient.LLMClient, opts ...Option) *Service {
	t.Helper()
	n := 0
	base := []Option{
		WithSleeper(noSleep),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("run-%d", n) }),
		WithClock(func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }),
	}
	s, err := New(client, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func TestAnalyzeCannedReport(t *testing.T) {
	fake := llmclient.NewFakeClient()
	rec := &recorder{}
	m := metrics.New()
	s := newService(t, fake, WithEmitter(rec), WithMetrics(m))

	res, err := s.Analyze(context.Background(), Request{Files: sampleFiles()})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.ID)
	assert.Equal(t, types.KindPerformance, res.Kind)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Cached)
	assert.True(t, res.Metrics.PassesThreshold)
	assert.Equal(t, res.Metrics.OverallScore, res.Metrics.Breakdown.Sum())
	assert.Equal(t, res.Profile.ModuleIDs(), res.Report.Modules)
	assert.Equal(t, 3, res.Profile.TotalFiles)
	assert.Equal(t, []EventType{EventStarted, EventValidated, EventCompleted}, rec.types())

	stored, err := s.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Report, stored.Report)
	assert.Equal(t, res.Metrics.OverallScore, stored.Metrics.OverallScore)

	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Context, "src/server.ts")
	assert.NotNil(t, reqs[0].Schema)

	n, err := testutil.GatherAndCount(m.Registry(), "codelens_analyses_total", "codelens_analysis_cache_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // passed analysis plus one cache miss
}

func TestAnalyzeUsesCache(t *testing.T) {
	fake := llmclient.NewFakeClient()
	rec := &recorder{}
	s := newService(t, fake, WithEmitter(rec))
	ctx := context.Background()

	first, err := s.Analyze(ctx, Request{Files: sampleFiles(), Instructions: "focus on the database"})
	require.NoError(t, err)

	files := sampleFiles()
	files[0], files[2] = files[2], files[0]
	second, err := s.Analyze(ctx, Request{Files: files, Instructions: "focus on the database"})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.Calls())
	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, EventCached, rec.types()[len(rec.types())-1])

	// different instructions miss
	_, err = s.Analyze(ctx, Request{Files: files, Instructions: "focus on rendering"})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls())
}

func TestCachedResultIsIsolatedFromCallers(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.FakeReply{Text: poorReport})
	s := newService(t, fake)
	ctx := context.Background()

	first, err := s.Analyze(ctx, Request{Files: sampleFiles()})
	require.NoError(t, err)
	require.NotEmpty(t, first.Metrics.Issues)
	require.NotEmpty(t, first.Metrics.Recommendations)
	require.NotEmpty(t, first.Profile.Modules)
	want := first.clone()

	first.Metrics.Issues[0].Message = "changed"
	first.Metrics.Recommendations[0] = "changed"
	first.Profile.Modules[0].ID = "changed"
	first.Report.Hotspots[0].Title = "changed"

	second, err := s.Analyze(ctx, Request{Files: sampleFiles()})
	require.NoError(t, err)
	require.True(t, second.Cached)
	assert.Equal(t, want.Metrics, second.Metrics)
	assert.Equal(t, want.Profile, second.Profile)
	assert.Equal(t, want.Report, second.Report)

	second.Metrics.Issues[0].Message = "again"
	third, err := s.Analyze(ctx, Request{Files: sampleFiles()})
	require.NoError(t, err)
	assert.Equal(t, want.Metrics, third.Metrics)
}

func TestAnalyzeEmitsModelCallEvents(t *testing.T) {
	fake := llmclient.NewFakeClient(
		llmclient.FakeReply{Err: errors.New("upstream unavailable")},
		llmclient.FakeReply{Text: llmclient.CannedReport},
	)
	rec := &recorder{}
	s := newService(t, fake, WithEmitter(rec))

	res, err := s.Analyze(context.Background(), Request{Files: sampleFiles()})
	require.NoError(t, err)
	require.Equal(t, 2, res.Attempts)

	reqs := rec.ofType(EventModelRequest)
	require.Len(t, reqs, 2)
	assert.Equal(t, "attempt-1", reqs[0].State)
	assert.Equal(t, 1, reqs[0].Attempt)
	assert.Equal(t, 2, reqs[1].Attempt)
	assert.Equal(t, res.ID, reqs[0].AnalysisID)
	assert.InDelta(t, 0.4, reqs[0].Temperature, 1e-9)
	assert.InDelta(t, 0.3, reqs[1].Temperature, 1e-9)
	assert.Contains(t, reqs[0].Message, "context runes")

	resps := rec.ofType(EventModelResponse)
	require.Len(t, resps, 2)
	assert.Equal(t, "upstream unavailable", resps[0].Message)
	assert.Equal(t, "fake", resps[1].Model)
	assert.Empty(t, resps[1].Message)
	assert.Positive(t, resps[1].OutputTokens)
	assert.Positive(t, resps[1].PromptTokens)
}

func TestAttemptOf(t *testing.T) {
	assert.Equal(t, 3, attemptOf("attempt-3"))
	assert.Equal(t, 0, attemptOf("unknown"))
}

func TestAnalyzeWithoutCache(t *testing.T) {
	fake := llmclient.NewFakeClient()
	s := newService(t, fake, WithCacheSize(0))
	for i := 0; i < 2; i++ {
		res, err := s.Analyze(context.Background(), Request{Files: sampleFiles()})
		require.NoError(t, err)
		assert.False(t, res.Cached)
	}
	assert.Equal(t, 2, fake.Calls())
}

func TestAnalyzeQualityFailureIsNotRetried(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.FakeReply{Text: poorReport})
	s := newService(t, fake)

	res, err := s.Analyze(context.Background(), Request{Files: sampleFiles()})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls())
	assert.False(t, res.Metrics.PassesThreshold)
	assert.NotEmpty(t, res.Metrics.Recommendations)

	// scores describe the raw report, the stored report is enhanced
	assert.True(t, strings.HasPrefix(res.Report.Summary, "This analysis identified 1 hotspot and no bottlenecks."))
	raw := &types.AnalysisReport{Kind: types.KindPerformance, Summary: "Slow.", Hotspots: []types.Finding{{Title: "Slow page", Location: "somewhere"}}, Bottlenecks: []types.Finding{}}
	assert.Equal(t, quality.NewValidator(nil).Validate(raw, res.Profile.Complexity), res.Metrics)
}

func TestAnalyzeExhaustsRetries(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.FakeReply{Text: "not json at all"})
	rec := &recorder{}
	s := newService(t, fake, WithEmitter(rec))

	res, err := s.Analyze(context.Background(), Request{Files: sampleFiles()})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 3, fake.Calls())

	var ex *requester.ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.ErrorIs(t, err, llmclient.ErrInvalidJSON)
	assert.Equal(t, EventFailed, rec.types()[len(rec.types())-1])

	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAnalyzeRejectsEmptyRequest(t *testing.T) {
	s := newService(t, llmclient.NewFakeClient())
	_, err := s.Analyze(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestGetUnknown(t *testing.T) {
	s := newService(t, llmclient.NewFakeClient())
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, reportstore.ErrNotFound)
}

func TestScore(t *testing.T) {
	s := newService(t, llmclient.NewFakeClient())
	m := s.Score(&types.AnalysisReport{Summary: "Too short."}, types.ComplexityComplex)
	assert.False(t, m.PassesThreshold)
	assert.Equal(t, 31.0, m.OverallScore)
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	files := sampleFiles()
	base := CacheKey(Request{Files: files})
	assert.Len(t, base, 64)
	assert.Equal(t, base, CacheKey(Request{Files: files, Kind: types.KindPerformance}))

	reordered := []types.FileRecord{files[2], files[0], files[1]}
	assert.Equal(t, base, CacheKey(Request{Files: reordered}))

	changed := sampleFiles()
	changed[1].Content += " "
	assert.NotEqual(t, base, CacheKey(Request{Files: changed}))
	assert.NotEqual(t, base, CacheKey(Request{Files: files, Kind: types.KindHotspots}))
	assert.NotEqual(t, base, CacheKey(Request{Files: files, Instructions: "x"}))
}

func TestChannelEmitterDropsWhenFull(t *testing.T) {
	ch := make(chan Event, 1)
	e := &ChannelEmitter{Ch: ch}
	e.Emit(Event{Type: EventStarted})
	e.Emit(Event{Type: EventCompleted})
	require.Len(t, ch, 1)
	assert.Equal(t, EventStarted, (<-ch).Type)
}
