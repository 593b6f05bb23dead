package llm

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmclient "codelens/internal/llm/client"
)

type tagged struct {
	next  llmclient.LLMClient
	tag   string
	trace *[]string
}

func (t *tagged) Name() string { return t.next.Name() }
func (t *tagged) Close() error { return t.next.Close() }
func (t *tagged) Generate(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	*t.trace = append(*t.trace, t.tag)
	return t.next.Generate(ctx, req)
}

func tag(name string, trace *[]string) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &tagged{next: next, tag: name, trace: trace}
	}
}

func TestWrapAppliesLeftToRight(t *testing.T) {
	var trace []string
	c := Wrap(llmclient.NewFakeClient(), tag("A", &trace), nil, tag("B", &trace))
	_, err := c.Generate(context.Background(), llmclient.Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, trace)
}

type recordingHook struct {
	before, after []string
	lastErr       error
}

func (h *recordingHook) Before(_ context.Context, stage string, _ llmclient.Request) {
	h.before = append(h.before, stage)
}

func (h *recordingHook) After(_ context.Context, stage string, _ llmclient.Response, err error) {
	h.after = append(h.after, stage)
	h.lastErr = err
}

func TestWithHooksUsesContextHookAndStage(t *testing.T) {
	boom := errors.New("boom")
	c := Wrap(llmclient.NewFakeClient(llmclient.FakeReply{Err: boom}), WithHooks())
	h := &recordingHook{}
	ctx := WithStage(WithPromptHook(context.Background(), h), "attempt-1")

	_, err := c.Generate(ctx, llmclient.Request{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"attempt-1"}, h.before)
	assert.Equal(t, []string{"attempt-1"}, h.after)
	assert.ErrorIs(t, h.lastErr, boom)
}

func TestWithHooksWithoutHookIsNoop(t *testing.T) {
	c := Wrap(llmclient.NewFakeClient(), WithHooks())
	_, err := c.Generate(context.Background(), llmclient.Request{})
	assert.NoError(t, err)
	assert.Equal(t, "unknown", StageFrom(context.Background()))
}

type callCounter struct {
	calls  int
	errors int
}

func (c *callCounter) ObserveModelCall(_ string, _ time.Duration, _ llmclient.Response, err error) {
	c.calls++
	if err != nil {
		c.errors++
	}
}

func TestWithMetricsObservesEveryCall(t *testing.T) {
	rec := &callCounter{}
	c := Wrap(llmclient.NewFakeClient(llmclient.FakeReply{}, llmclient.FakeReply{Text: "{}"}), WithMetrics(rec))
	_, _ = c.Generate(context.Background(), llmclient.Request{})
	_, _ = c.Generate(context.Background(), llmclient.Request{})
	assert.Equal(t, 2, rec.calls)
	assert.Equal(t, 1, rec.errors)
}

func TestWithLoggingWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := Wrap(llmclient.NewFakeClient(llmclient.FakeReply{}), WithLogging(logger))
	_, err := c.Generate(WithStage(context.Background(), "attempt-2"), llmclient.Request{Prompt: "p"})
	require.Error(t, err)
	out := buf.String()
	assert.Contains(t, out, "llm request")
	assert.Contains(t, out, "llm error")
	assert.Contains(t, out, "stage=attempt-2")
}

func TestRateLimitDisabledIsPassThrough(t *testing.T) {
	inner := llmclient.NewFakeClient()
	assert.Same(t, llmclient.LLMClient(inner), RateLimit(0, 0)(inner))
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := RateLimit(0.001, 1)(llmclient.NewFakeClient())
	defer c.Close()

	_, err := c.Generate(context.Background(), llmclient.Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Generate(ctx, llmclient.Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
