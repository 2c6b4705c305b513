package msg

import (
	"context"
	"fmt"

	"github.com/Ocada-ai-biz/agentx/internal/agent"
	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/spf13/cobra"
)

var (
	conversationFlag string
	newFlag          bool
)

var MsgCmd = &cobra.Command{
	Use:   "msg",
	Short: "Send messages and confirm purchases",
}

func init() {
	MsgCmd.PersistentFlags().StringVarP(&conversationFlag, "conversation", "c", "", "Conversation ID (defaults to the most recent)")
	MsgCmd.PersistentFlags().BoolVar(&newFlag, "new", false, "Start a new conversation")
	MsgCmd.AddCommand(sendCmd, buyCmd)
}

func resolve(ctx context.Context, a *agent.Agent) (*domain.Conversation, error) {
	if newFlag {
		return a.NewConversation(ctx, "")
	}
	conv, err := a.ResolveConversation(ctx, conversationFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return conv, nil
}
