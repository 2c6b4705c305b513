// Package ui holds the handles that tool handlers and the dispatcher write
// into. A handle owns one region of the rendered conversation; the front-end
// (CLI printer or TUI) subscribes to the events a Factory publishes.
package ui

import (
	"errors"
	"sync"

	"github.com/Ocada-ai-biz/agentx/internal/events"
	"github.com/google/uuid"
)

// ErrSealed is returned by any write to a region that was already sealed
var ErrSealed = errors.New("ui region already sealed")

// View is anything that can be rendered into a region
type View interface {
	Render() string
}

// Sink is the write side of a UI region
type Sink interface {
	// Update replaces the visible content of the region
	Update(v View) error
	// Seal sets the final content. A nil view keeps the current content.
	Seal(v View) error
}

// Handle is the Sink implementation backed by a Factory
type Handle struct {
	id      string
	publish func(events.Event)

	mu      sync.Mutex
	current View
	sealed  bool
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) Update(v View) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sealed {
		return ErrSealed
	}
	h.current = v
	h.emit(false)
	return nil
}

func (h *Handle) Seal(v View) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sealed {
		return ErrSealed
	}
	if v != nil {
		h.current = v
	}
	h.sealed = true
	h.emit(true)
	return nil
}

// Sealed reports whether the region reached its final content
func (h *Handle) Sealed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sealed
}

// Current returns the last view written to the region
func (h *Handle) Current() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// emit must be called with mu held so that events for one region keep their order
func (h *Handle) emit(sealed bool) {
	if h.publish == nil {
		return
	}
	ev := events.UIEvent{Region: h.id, View: h.current, Sealed: sealed}
	if h.current != nil {
		ev.Rendered = h.current.Render()
	}
	h.publish(ev)
}

// Factory creates handles that all publish to the same subscriber
type Factory struct {
	publish func(events.Event)
}

// NewFactory builds a factory. A nil publish func discards events.
func NewFactory(publish func(events.Event)) *Factory {
	return &Factory{publish: publish}
}

// New opens a region and shows the initial view in it
func (f *Factory) New(initial View) *Handle {
	h := &Handle{id: uuid.NewString(), publish: f.publish, current: initial}
	if initial != nil {
		h.mu.Lock()
		h.emit(false)
		h.mu.Unlock()
	}
	return h
}
