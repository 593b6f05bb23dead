package llmclient

import (
	"context"
	"errors"

	"codelens/internal/types"
)

// Request is one structured generation call.
type Request struct {
	SystemInstruction string
	// Context is the file context block, sent ahead of Prompt.
	Context     string
	Prompt      string
	Schema      *types.Schema
	Temperature float64
}

type Response struct {
	Text         string
	Model        string
	PromptTokens int
	OutputTokens int
}

// LLMClient defines the interface for model providers.
type LLMClient interface {
	Name() string
	Close() error
	Generate(ctx context.Context, req Request) (Response, error)
}

var (
	ErrEmptyResponse = errors.New("empty response from LLM")
	ErrInvalidJSON   = errors.New("invalid json from LLM")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err (or anything it wraps) is a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
