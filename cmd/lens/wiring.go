package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"codelens/internal/analysis"
	"codelens/internal/config"
	"codelens/internal/llm"
	llmclient "codelens/internal/llm/client"
	"codelens/internal/metrics"
	"codelens/internal/reportstore"
)

// newClient builds the configured model client and its middleware chain.
func newClient(ctx context.Context, cfg config.ModelConfig, logger *slog.Logger, m *metrics.Metrics) (llmclient.LLMClient, error) {
	var (
		base llmclient.LLMClient
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "fake":
		base = llmclient.NewFakeClient()
	case "", "gemini":
		base, err = llmclient.NewGeminiClient(ctx, cfg.APIKey, cfg.Name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
	var rec llm.CallRecorder
	if m != nil {
		rec = m
	}
	return llm.Wrap(base,
		llm.WithLogging(logger),
		llm.WithMetrics(rec),
		llm.RateLimit(cfg.RPS, cfg.Burst),
	), nil
}

// newService wires store, client and metrics into an analysis service.
func newService(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, emitter analysis.Emitter) (*analysis.Service, error) {
	store, err := reportstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	client, err := newClient(ctx, cfg.Model, logger, m)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	analysisCfg := cfg.Analysis
	svc, err := analysis.New(client,
		analysis.WithConfig(&analysisCfg),
		analysis.WithStore(store),
		analysis.WithMetrics(m),
		analysis.WithLogger(logger),
		analysis.WithEmitter(emitter),
		analysis.WithCacheSize(cfg.Cache.Entries),
	)
	if err != nil {
		_ = store.Close()
		_ = client.Close()
		return nil, err
	}
	return svc, nil
}
