package llm

import (
	"context"

	llmclient "codelens/internal/llm/client"
)

// PromptHook defines callbacks around model requests.
type PromptHook interface {
	Before(ctx context.Context, stage string, req llmclient.Request)
	After(ctx context.Context, stage string, resp llmclient.Response, err error)
}

type ctxKeyHook struct{}
type ctxKeyStage struct{}

// WithStage attaches a stage label (for example "attempt-2") to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// WithPromptHook attaches a PromptHook to the context.
func WithPromptHook(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}

// StageFrom returns the stage string stored in the context.
func StageFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyStage{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}

// WithHooks calls HookFrom(ctx).Before/After around Generate.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next llmclient.LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) Generate(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, StageFrom(ctx), req)
	}
	resp, err := h.next.Generate(ctx, req)
	if hook != nil {
		hook.After(ctx, StageFrom(ctx), resp, err)
	}
	return resp, err
}
