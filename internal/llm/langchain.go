package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// createLLMClient builds a langchaingo model for a preset
func createLLMClient(ctx context.Context, preset config.ModelPreset) (llms.Model, error) {
	var llm llms.Model
	var err error

	switch preset.Provider {
	case "openai":
		opts := []openai.Option{openai.WithModel(preset.Name)}
		if preset.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(preset.BaseURL))
		}
		llm, err = openai.New(opts...)
	case "anthropic":
		llm, err = anthropic.New(
			anthropic.WithModel(preset.Name),
		)
	case "googleai":
		llm, err = googleai.New(
			ctx,
			googleai.WithDefaultModel(preset.Name),
			googleai.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
		)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", preset.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", preset.Provider, err)
	}
	return llm, nil
}

// LangchainProvider streams through langchaingo. Text arrives incrementally;
// tool calls arrive whole once the provider returns.
type LangchainProvider struct {
	llm    llms.Model
	preset config.ModelPreset
}

func NewLangchainProvider(preset config.ModelPreset) (*LangchainProvider, error) {
	llm, err := createLLMClient(context.Background(), preset)
	if err != nil {
		return nil, err
	}
	return &LangchainProvider{llm: llm, preset: preset}, nil
}

func (p *LangchainProvider) Name() string {
	return p.preset.Provider
}

func (p *LangchainProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := newChanStream(cancel)

	opts := []llms.CallOption{
		llms.WithTemperature(p.preset.Temperature),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return s.send(ctx, TextFragment(string(chunk)))
		}),
	}
	if p.preset.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.preset.MaxTokens))
	}
	if tools := langchainTools(req.Tools); len(tools) > 0 {
		opts = append(opts, llms.WithTools(tools))
	}

	msgs := buildMessageHistory(req)

	go func() {
		resp, err := p.llm.GenerateContent(ctx, msgs, opts...)
		if err != nil {
			s.finish(fmt.Errorf("streaming message failed: %w", err))
			return
		}
		if len(resp.Choices) > 0 {
			var deltas []ToolCallDelta
			for i, tc := range resp.Choices[0].ToolCalls {
				if tc.FunctionCall == nil {
					continue
				}
				deltas = append(deltas, ToolCallDelta{
					Index:     i,
					ID:        tc.ID,
					Name:      tc.FunctionCall.Name,
					Arguments: tc.FunctionCall.Arguments,
				})
			}
			if len(deltas) > 0 {
				if err := s.send(ctx, Fragment{ToolCalls: deltas}); err != nil {
					s.finish(err)
					return
				}
			}
		}
		s.finish(nil)
	}()

	return s, nil
}

func buildMessageHistory(req Request) []llms.MessageContent {
	var history []llms.MessageContent
	if req.SystemPrompt != "" {
		history = append(history, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	for _, t := range req.History {
		switch t.Role {
		case domain.RoleAssistant:
			history = append(history, llms.TextParts(llms.ChatMessageTypeAI, t.Content))
		case domain.RoleSystem:
			history = append(history, llms.TextParts(llms.ChatMessageTypeSystem, t.Content))
		case domain.RoleFunction:
			history = append(history, llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf("[%s] %s", t.Name, t.Content)))
		default:
			history = append(history, llms.TextParts(llms.ChatMessageTypeHuman, t.Content))
		}
	}
	return history
}

func langchainTools(tools []domain.Tool) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
