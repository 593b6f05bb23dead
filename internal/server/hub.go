package server

import (
	"sync"

	"codelens/internal/analysis"
)

// Hub fans analysis events out to websocket subscribers. Slow subscribers
// lose events instead of stalling the pipeline.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscription]struct{}
	buffer int
}

type subscription struct {
	ch     chan analysis.Event
	filter string
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[*subscription]struct{}), buffer: buffer}
}

// Emit implements analysis.Emitter.
func (h *Hub) Emit(ev analysis.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.filter != "" && s.filter != ev.AnalysisID {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Subscribe registers a listener. An empty filter receives every event;
// otherwise only events of that analysis id. The returned cancel func
// closes the channel.
func (h *Hub) Subscribe(filter string) (<-chan analysis.Event, func()) {
	s := &subscription{ch: make(chan analysis.Event, h.buffer), filter: filter}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
			close(s.ch)
		})
	}
}

// Len is the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
