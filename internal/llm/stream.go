// Package llm adapts model providers to a single incremental fragment stream.
package llm

import (
	"context"
	"fmt"
	"io"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
)

// ToolCallDelta is one piece of a tool call. Index identifies the call within
// the response; Name and Arguments are partial and may be empty.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Fragment is one incremental unit of a model response
type Fragment struct {
	Text      *string         `json:"text,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// TextFragment is a shorthand for a text-only fragment
func TextFragment(s string) Fragment {
	return Fragment{Text: &s}
}

// Empty reports whether the fragment carries nothing
func (f Fragment) Empty() bool {
	return (f.Text == nil || *f.Text == "") && len(f.ToolCalls) == 0
}

// Stream yields fragments until it returns io.EOF, which is the terminal
// signal. Any other error is a transport failure.
type Stream interface {
	Next(ctx context.Context) (Fragment, error)
	Close() error
}

// Request is everything a provider needs to start a completion
type Request struct {
	SystemPrompt string
	History      []domain.Turn
	Tools        []domain.Tool
}

type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request) (Stream, error)
}

// NewProvider builds the streaming provider for a model preset
func NewProvider(preset config.ModelPreset) (Provider, error) {
	switch preset.Provider {
	case "openai":
		return NewOpenAIProvider(preset), nil
	case "anthropic", "googleai":
		return NewLangchainProvider(preset)
	case "script":
		return NewScriptProvider(preset.ScriptPath)
	case "lorem":
		return NewLoremProvider(preset.WordDelay), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", preset.Provider)
	}
}

// SliceStream replays a fixed list of fragments, then Err (io.EOF if nil)
type SliceStream struct {
	Fragments []Fragment
	Err       error
	pos       int
	closed    bool
}

func NewSliceStream(frags ...Fragment) *SliceStream {
	return &SliceStream{Fragments: frags}
}

func (s *SliceStream) Next(ctx context.Context) (Fragment, error) {
	if err := ctx.Err(); err != nil {
		return Fragment{}, err
	}
	if s.closed {
		return Fragment{}, io.ErrClosedPipe
	}
	if s.pos < len(s.Fragments) {
		f := s.Fragments[s.pos]
		s.pos++
		return f, nil
	}
	if s.Err != nil {
		return Fragment{}, s.Err
	}
	return Fragment{}, io.EOF
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}
