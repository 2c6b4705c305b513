package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
)

// Script is a recorded set of model responses used for offline runs.
//
//	{"turns": [{"match": "price", "delay_ms": 20, "fragments": [
//	    {"text": "Let me check"},
//	    {"tool_calls": [{"index": 0, "name": "show_stock_price", "arguments": "{\"symbol\":"}]},
//	    {"tool_calls": [{"index": 0, "arguments": "\"BTC\"}"}]}
//	]}]}
type Script struct {
	Turns []ScriptTurn `json:"turns"`
}

type ScriptTurn struct {
	// Match selects the turn when the latest user message contains it
	Match     string     `json:"match,omitempty"`
	DelayMS   int        `json:"delay_ms,omitempty"`
	Fragments []Fragment `json:"fragments"`
	// Error, when set, is returned instead of the terminal signal
	Error string `json:"error,omitempty"`
}

type ScriptProvider struct {
	script Script
}

func NewScriptProvider(path string) (*ScriptProvider, error) {
	if path == "" {
		return nil, errors.New("script provider requires scriptPath")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return ParseScript(data)
}

// ParseScript builds a provider from raw script JSON
func ParseScript(data []byte) (*ScriptProvider, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(s.Turns) == 0 {
		return nil, errors.New("script has no turns")
	}
	return &ScriptProvider{script: s}, nil
}

func (p *ScriptProvider) Name() string {
	return "script"
}

func (p *ScriptProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	turn := p.pick(req.History)
	s := &scriptStream{
		SliceStream: SliceStream{Fragments: turn.Fragments},
		delay:       time.Duration(turn.DelayMS) * time.Millisecond,
	}
	if turn.Error != "" {
		s.Err = errors.New(turn.Error)
	}
	return s, nil
}

// pick chooses by Match against the latest user message, falling back to
// cycling through the turns by the number of user messages so far
func (p *ScriptProvider) pick(history []domain.Turn) ScriptTurn {
	var last string
	users := 0
	for _, t := range history {
		if t.Role == domain.RoleUser {
			last = t.Content
			users++
		}
	}
	lower := strings.ToLower(last)
	for _, t := range p.script.Turns {
		if t.Match != "" && strings.Contains(lower, strings.ToLower(t.Match)) {
			return t
		}
	}
	idx := 0
	if users > 0 {
		idx = (users - 1) % len(p.script.Turns)
	}
	return p.script.Turns[idx]
}

type scriptStream struct {
	SliceStream
	delay time.Duration
}

func (s *scriptStream) Next(ctx context.Context) (Fragment, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Fragment{}, ctx.Err()
		}
	}
	return s.SliceStream.Next(ctx)
}
