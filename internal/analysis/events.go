package analysis

import "time"

type EventType string

const (
	EventStarted    EventType = "started"
	EventTransition EventType = "transition"
	EventValidated  EventType = "validated"
	EventCompleted  EventType = "completed"
	EventCached     EventType = "cached"
	EventFailed     EventType = "failed"

	// EventModelRequest and EventModelResponse bracket each model call.
	EventModelRequest  EventType = "model_request"
	EventModelResponse EventType = "model_response"
)

// Event is a progress notification for one analysis.
type Event struct {
	AnalysisID  string    `json:"analysis_id"`
	Type        EventType `json:"type"`
	State       string    `json:"state,omitempty"`
	Attempt     int       `json:"attempt,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Score       float64   `json:"score,omitempty"`
	Passed      bool      `json:"passed,omitempty"`
	Message     string    `json:"message,omitempty"`
	Time        time.Time `json:"time"`

	Model        string `json:"model,omitempty"`
	PromptTokens int    `json:"prompt_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
}

// Emitter receives analysis events. Emit must not block.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

type noopEmitter struct{}

func (noopEmitter) Emit(Event) {}

// ChannelEmitter forwards events to Ch and drops them when it is full.
type ChannelEmitter struct {
	Ch chan<- Event
}

func (e *ChannelEmitter) Emit(ev Event) {
	select {
	case e.Ch <- ev:
	default:
	}
}
