package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s Stream) ([]Fragment, error) {
	t.Helper()
	var out []Fragment
	for {
		f, err := s.Next(context.Background())
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
}

func TestSliceStream(t *testing.T) {
	s := NewSliceStream(TextFragment("a"), TextFragment("b"))
	frags, err := drain(t, s)
	assert.ErrorIs(t, err, io.EOF)
	assert.Len(t, frags, 2)

	boom := errors.New("boom")
	s = &SliceStream{Fragments: []Fragment{TextFragment("a")}, Err: boom}
	frags, err = drain(t, s)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, frags, 1)
}

func TestSliceStreamHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSliceStream(TextFragment("a")).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFragmentEmpty(t *testing.T) {
	assert.True(t, Fragment{}.Empty())
	assert.True(t, TextFragment("").Empty())
	assert.False(t, TextFragment("x").Empty())
	assert.False(t, Fragment{ToolCalls: []ToolCallDelta{{Index: 0}}}.Empty())
}

const script = `{"turns": [
  {"fragments": [{"text": "hello"}]},
  {"match": "price", "fragments": [
    {"tool_calls": [{"index": 0, "id": "call_1", "name": "show_stock_price", "arguments": "{\"symbol\":"}]},
    {"tool_calls": [{"index": 0, "arguments": "\"BTC\"}"}]}
  ]},
  {"fragments": [{"text": "partial"}], "error": "connection reset"}
]}`

func TestScriptProvider(t *testing.T) {
	p, err := ParseScript([]byte(script))
	require.NoError(t, err)

	t.Run("match wins", func(t *testing.T) {
		s, err := p.Stream(context.Background(), Request{History: []domain.Turn{
			{Role: domain.RoleUser, Content: "What is the PRICE of btc"},
		}})
		require.NoError(t, err)
		frags, err := drain(t, s)
		assert.ErrorIs(t, err, io.EOF)
		require.Len(t, frags, 2)
		assert.Equal(t, "show_stock_price", frags[0].ToolCalls[0].Name)
		assert.Equal(t, "call_1", frags[0].ToolCalls[0].ID)
	})

	t.Run("cycles by user turns", func(t *testing.T) {
		history := []domain.Turn{
			{Role: domain.RoleUser, Content: "one"},
			{Role: domain.RoleAssistant, Content: "x"},
			{Role: domain.RoleUser, Content: "two"},
			{Role: domain.RoleUser, Content: "three"},
		}
		s, err := p.Stream(context.Background(), Request{History: history})
		require.NoError(t, err)
		frags, err := drain(t, s)
		assert.EqualError(t, err, "connection reset")
		require.Len(t, frags, 1)
		assert.Equal(t, "partial", *frags[0].Text)
	})
}

func TestScriptProviderErrors(t *testing.T) {
	_, err := ParseScript([]byte(`{"turns": []}`))
	assert.Error(t, err)
	_, err = ParseScript([]byte(`not json`))
	assert.Error(t, err)
	_, err = NewScriptProvider("")
	assert.Error(t, err)
}

func TestLoremStream(t *testing.T) {
	p := NewLoremProvider(0)
	s, err := p.Stream(context.Background(), Request{})
	require.NoError(t, err)
	frags, err := drain(t, s)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotEmpty(t, frags)
	for _, f := range frags {
		assert.Empty(t, f.ToolCalls)
	}
}

func TestChunkToFragment(t *testing.T) {
	raw := `{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"Hi","tool_calls":[{"index":1,"id":"call_9","type":"function","function":{"name":"list_stocks","arguments":"{\"st"}}]}}]}`
	var chunk openai.ChatCompletionChunk
	require.NoError(t, json.Unmarshal([]byte(raw), &chunk))

	frag := chunkToFragment(chunk)
	require.NotNil(t, frag.Text)
	assert.Equal(t, "Hi", *frag.Text)
	require.Len(t, frag.ToolCalls, 1)
	assert.Equal(t, ToolCallDelta{Index: 1, ID: "call_9", Name: "list_stocks", Arguments: `{"st`}, frag.ToolCalls[0])

	assert.True(t, chunkToFragment(openai.ChatCompletionChunk{}).Empty())
}

func TestOpenAIParams(t *testing.T) {
	p := NewOpenAIProvider(config.ModelPreset{Provider: "openai", Name: "gpt-4o-mini", Temperature: 0.5, MaxTokens: 100})
	params, err := p.buildParams(Request{
		SystemPrompt: "sys",
		History: []domain.Turn{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
			{Role: domain.RoleFunction, Name: "show_stock_price", Content: "[Price of BTC = 1]"},
		},
		Tools: []domain.Tool{{
			Name:        "get_events",
			Description: "search",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}},
		}},
	})
	require.NoError(t, err)
	assert.Len(t, params.Messages, 4)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "get_events", params.Tools[0].Function.Name)
	assert.Equal(t, "object", params.Tools[0].Function.Parameters["type"])
}

func TestLangchainHistory(t *testing.T) {
	msgs := buildMessageHistory(Request{
		SystemPrompt: "sys",
		History: []domain.Turn{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleFunction, Name: "get_events", Content: "q"},
		},
	})
	assert.Len(t, msgs, 3)
	assert.Len(t, langchainTools([]domain.Tool{{Name: "x"}}), 1)
}

func TestChanStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newChanStream(cancel)
	go func() {
		_ = s.send(ctx, TextFragment("a"))
		_ = s.send(ctx, TextFragment("b"))
		s.finish(nil)
	}()
	frags, err := drain(t, s)
	assert.ErrorIs(t, err, io.EOF)
	assert.Len(t, frags, 2)
	require.NoError(t, s.Close())
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(config.ModelPreset{Provider: "nope"})
	assert.Error(t, err)

	p, err := NewProvider(config.ModelPreset{Provider: "lorem"})
	require.NoError(t, err)
	assert.Equal(t, "lorem", p.Name())
}
