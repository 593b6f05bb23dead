package report

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	llmclient "codelens/internal/llm/client"
	"codelens/internal/types"
	"codelens/internal/util/jsonutil"
)

// ErrSchema marks a payload that decoded but misses required fields.
var ErrSchema = errors.New("report: schema validation failed")

var (
	compiledMu sync.Mutex
	compiled   = map[types.ReportKind]*gojsonschema.Schema{}
)

func schemaFor(kind types.ReportKind) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()
	if s, ok := compiled[kind]; ok {
		return s, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(validationSchema(kind).JSONSchema()))
	if err != nil {
		return nil, fmt.Errorf("report: compile schema: %w", err)
	}
	compiled[kind] = s
	return s, nil
}

// Parse turns raw model text into a report of the given kind. Empty text,
// text without a JSON object, malformed JSON and payloads missing required
// fields are all errors; callers treat them as retryable.
func Parse(kind types.ReportKind, text string) (*types.AnalysisReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, llmclient.ErrEmptyResponse
	}
	body, err := jsonutil.StripFences(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llmclient.ErrInvalidJSON, err)
	}
	doc, err := jsonutil.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llmclient.ErrInvalidJSON, err)
	}
	if err := Check(kind, doc); err != nil {
		return nil, err
	}

	var r types.AnalysisReport
	if err := jsonutil.UnmarshalFlex([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", llmclient.ErrInvalidJSON, err)
	}
	r.Kind = kind
	return &r, nil
}

// Check validates a decoded document against the kind's schema.
func Check(kind types.ReportKind, doc any) error {
	s, err := schemaFor(kind)
	if err != nil {
		return err
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
