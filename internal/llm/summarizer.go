package llm

import (
	"context"
	"fmt"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/tmc/langchaingo/llms"
)

// Summarizer runs one-off prompts outside the chat, e.g. to turn raw
// provider data into prose.
type Summarizer struct {
	llm    llms.Model
	preset config.ModelPreset
}

func NewSummarizer(ctx context.Context, preset config.ModelPreset) (*Summarizer, error) {
	llm, err := createLLMClient(ctx, preset)
	if err != nil {
		return nil, err
	}
	return &Summarizer{llm: llm, preset: preset}, nil
}

// NewSummarizerFromModel wraps an existing model
func NewSummarizerFromModel(model llms.Model) *Summarizer {
	return &Summarizer{llm: model}
}

func (s *Summarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	opts := []llms.CallOption{}
	if s.preset.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(s.preset.Temperature))
	}
	if s.preset.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.preset.MaxTokens))
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("summarize failed: %w", err)
	}
	return out, nil
}
