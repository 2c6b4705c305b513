package ui

import (
	"sync"

	"github.com/Ocada-ai-biz/agentx/internal/events"
)

// Recorder collects UI events in arrival order. It is used by the CLI for
// one-shot rendering and by tests.
type Recorder struct {
	mu     sync.Mutex
	events []events.UIEvent
	order  []string
	final  map[string]events.UIEvent
}

func NewRecorder() *Recorder {
	return &Recorder{final: make(map[string]events.UIEvent)}
}

// Publish can be passed to NewFactory
func (r *Recorder) Publish(ev events.Event) {
	ue, ok := ev.(events.UIEvent)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.final[ue.Region]; !seen {
		r.order = append(r.order, ue.Region)
	}
	r.final[ue.Region] = ue
	r.events = append(r.events, ue)
}

// Events returns every event received so far
func (r *Recorder) Events() []events.UIEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.UIEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Regions returns the latest event per region, in the order regions first appeared
func (r *Recorder) Regions() []events.UIEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.UIEvent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.final[id])
	}
	return out
}
