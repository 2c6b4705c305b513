package dispatch

import (
	"fmt"
)

// StreamTransportError means the model stream failed before its terminal
// signal. It is the only error that aborts a turn.
type StreamTransportError struct {
	Err error
}

func (e *StreamTransportError) Error() string {
	return fmt.Sprintf("stream transport error: %v", e.Err)
}

func (e *StreamTransportError) Unwrap() error {
	return e.Err
}

// ArgumentParseError means a frame's arguments were not valid JSON
type ArgumentParseError struct {
	Tool      string
	Arguments string
	Err       error
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("malformed arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgumentParseError) Unwrap() error {
	return e.Err
}

// HandlerExecutionError wraps a failure raised by a tool handler
type HandlerExecutionError struct {
	Tool string
	Err  error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error {
	return e.Err
}
