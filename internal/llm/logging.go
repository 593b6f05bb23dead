package llm

import (
	"context"
	"log/slog"
	"time"

	llmclient "codelens/internal/llm/client"
)

// WithLogging logs request size, latency and errors. Pass nil to use
// slog.Default().
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Generate(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	stage := StageFrom(ctx)
	l.log.DebugContext(ctx, "llm request",
		"model", l.next.Name(),
		"stage", stage,
		"bytes", len(req.SystemInstruction)+len(req.Context)+len(req.Prompt),
		"temperature", req.Temperature,
	)
	start := time.Now()
	resp, err := l.next.Generate(ctx, req)
	if err != nil {
		l.log.WarnContext(ctx, "llm error", "model", l.next.Name(), "stage", stage, "err", err)
		return resp, err
	}
	l.log.DebugContext(ctx, "llm response",
		"model", l.next.Name(),
		"stage", stage,
		"elapsed", time.Since(start),
		"prompt_tokens", resp.PromptTokens,
		"output_tokens", resp.OutputTokens,
	)
	return resp, nil
}
