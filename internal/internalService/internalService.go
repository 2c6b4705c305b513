package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
)

const maxTitleLength = 80

// Generator runs a single prompt without any conversation context
type Generator interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// InternalService is used for LLM calls within the application itself
// such as titling conversations
type InternalService struct {
	gen Generator
	cfg config.Internal
}

func NewInternalService(gen Generator, cfg config.Internal) *InternalService {
	return &InternalService{gen: gen, cfg: cfg}
}

// GenerateOneOff makes a single call to the LLM without storing any context or history
func (s *InternalService) GenerateOneOff(ctx context.Context, prompt string) (string, error) {
	out, err := s.gen.Summarize(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("internal message failed: %w", err)
	}
	return out, nil
}

// CreateConversationTitle names a conversation after its user and assistant turns
func (s *InternalService) CreateConversationTitle(ctx context.Context, turns []domain.Turn) (string, error) {
	var b strings.Builder
	b.WriteString(s.cfg.SummaryPrompt)
	b.WriteString("\n")
	n := 0
	for _, t := range turns {
		if t.Role != domain.RoleUser && t.Role != domain.RoleAssistant {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		n++
	}
	if n == 0 {
		return "[empty]", nil
	}

	title, err := s.GenerateOneOff(ctx, b.String())
	if err != nil {
		return "", err
	}
	title = strings.Trim(strings.TrimSpace(title), `"'`)
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength])
	}
	return title, nil
}
