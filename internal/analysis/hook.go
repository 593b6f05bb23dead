package analysis

import (
	"context"
	"fmt"
	"unicode/utf8"

	"codelens/internal/llm"
	llmclient "codelens/internal/llm/client"
)

// modelHook turns model calls into events for one analysis.
type modelHook struct {
	id   string
	emit func(Event)
}

func (h *modelHook) Before(_ context.Context, stage string, req llmclient.Request) {
	h.emit(Event{
		AnalysisID:  h.id,
		Type:        EventModelRequest,
		State:       stage,
		Attempt:     attemptOf(stage),
		Temperature: req.Temperature,
		Message:     fmt.Sprintf("%d instruction runes, %d context runes", utf8.RuneCountInString(req.SystemInstruction), utf8.RuneCountInString(req.Context)),
	})
}

func (h *modelHook) After(_ context.Context, stage string, resp llmclient.Response, err error) {
	ev := Event{
		AnalysisID:   h.id,
		Type:         EventModelResponse,
		State:        stage,
		Attempt:      attemptOf(stage),
		Model:        resp.Model,
		PromptTokens: resp.PromptTokens,
		OutputTokens: resp.OutputTokens,
	}
	if err != nil {
		ev.Message = err.Error()
	}
	h.emit(ev)
}

var _ llm.PromptHook = (*modelHook)(nil)

// attemptOf reads the attempt number from an "attempt-N" stage label.
func attemptOf(stage string) int {
	var n int
	if _, err := fmt.Sscanf(stage, "attempt-%d", &n); err != nil {
		return 0
	}
	return n
}
