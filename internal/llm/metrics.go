package llm

import (
	"context"
	"time"

	llmclient "codelens/internal/llm/client"
)

// CallRecorder receives one observation per model call.
type CallRecorder interface {
	ObserveModelCall(model string, elapsed time.Duration, resp llmclient.Response, err error)
}

// WithMetrics reports every call to rec. A nil recorder disables it.
func WithMetrics(rec CallRecorder) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if rec == nil {
			return next
		}
		return &metered{next: next, rec: rec}
	}
}

type metered struct {
	next llmclient.LLMClient
	rec  CallRecorder
}

func (m *metered) Name() string { return m.next.Name() }
func (m *metered) Close() error { return m.next.Close() }

func (m *metered) Generate(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	start := time.Now()
	resp, err := m.next.Generate(ctx, req)
	m.rec.ObserveModelCall(m.next.Name(), time.Since(start), resp, err)
	return resp, err
}
