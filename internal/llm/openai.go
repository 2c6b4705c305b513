package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider streams chat completions from OpenAI or a compatible endpoint
type OpenAIProvider struct {
	client *openai.Client
	preset config.ModelPreset
}

func NewOpenAIProvider(preset config.ModelPreset, opts ...option.RequestOption) *OpenAIProvider {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		opts = append([]option.RequestOption{option.WithAPIKey(key)}, opts...)
	}
	if preset.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(preset.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client, preset: preset}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}
	return &openAIStream{stream: p.client.Chat.Completions.NewStreaming(ctx, params)}, nil
}

func (p *OpenAIProvider) buildParams(req Request) (openai.ChatCompletionNewParams, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, t := range req.History {
		switch t.Role {
		case domain.RoleUser:
			messages = append(messages, openai.UserMessage(t.Content))
		case domain.RoleAssistant:
			messages = append(messages, openai.ChatCompletionMessageParamOfAssistant[string](t.Content))
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(t.Content))
		case domain.RoleFunction:
			// Tool results are replayed without their call IDs, so they go in as
			// system notes naming the tool.
			messages = append(messages, openai.SystemMessage(fmt.Sprintf("[%s] %s", t.Name, t.Content)))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.preset.Name),
		Messages: messages,
	}
	if p.preset.Temperature > 0 {
		params.Temperature = openai.Float(p.preset.Temperature)
	}
	if p.preset.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.preset.MaxTokens))
	}

	tools, err := openAITools(req.Tools)
	if err != nil {
		return params, err
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	return params, nil
}

func openAITools(tools []domain.Tool) ([]openai.ChatCompletionToolParam, error) {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		raw, err := json.Marshal(t.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema for %s: %w", t.Name, err)
		}
		var params openai.FunctionParameters
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("failed to convert schema for %s: %w", t.Name, err)
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
			},
		})
	}
	return out, nil
}

type openAIStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *openAIStream) Next(ctx context.Context) (Fragment, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Fragment{}, err
		}
		if !s.stream.Next() {
			if err := s.stream.Err(); err != nil {
				return Fragment{}, fmt.Errorf("stream error: %w", err)
			}
			return Fragment{}, io.EOF
		}
		frag := chunkToFragment(s.stream.Current())
		if !frag.Empty() {
			return frag, nil
		}
	}
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

func chunkToFragment(chunk openai.ChatCompletionChunk) Fragment {
	var frag Fragment
	if len(chunk.Choices) == 0 {
		return frag
	}
	delta := chunk.Choices[0].Delta
	if delta.Content != "" {
		text := delta.Content
		frag.Text = &text
	}
	for _, tc := range delta.ToolCalls {
		frag.ToolCalls = append(frag.ToolCalls, ToolCallDelta{
			Index:     int(tc.Index),
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return frag
}
