package events

// EventType defines the type of streaming event
type EventType int

const (
	EventTypeUIUpdate EventType = iota
	EventTypeUISeal
	EventTypeTurnStart
	EventTypeTurnDone
	EventTypeError
)

// Event is the interface for all streaming events
type Event interface {
	Type() EventType
}

// ErrorEvent represents an error during processing
type ErrorEvent struct {
	Error error
}

func (e ErrorEvent) Type() EventType {
	return EventTypeError
}

// UIEvent carries the rendered content of one UI region. Regions are
// identified by an opaque ID; Sealed marks the final content of a region.
type UIEvent struct {
	Region   string
	View     any
	Rendered string
	Sealed   bool
}

func (e UIEvent) Type() EventType {
	if e.Sealed {
		return EventTypeUISeal
	}
	return EventTypeUIUpdate
}

// TurnStartEvent is emitted when a user message starts a new turn
type TurnStartEvent struct {
	ConversationID string
	Query          string
}

func (e TurnStartEvent) Type() EventType {
	return EventTypeTurnStart
}

// TurnDoneEvent is emitted after the dispatcher reaches a terminal state
type TurnDoneEvent struct {
	State   string
	Version int
}

func (e TurnDoneEvent) Type() EventType {
	return EventTypeTurnDone
}
