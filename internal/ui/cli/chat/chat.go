package chat

import (
	"fmt"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/shared"
	"github.com/Ocada-ai-biz/agentx/internal/ui/tui"
	"github.com/spf13/cobra"
)

var newFlag bool

var ChatCmd = &cobra.Command{
	Use:   "chat [conversation_id]",
	Short: "Start an interactive chat",
	Long:  `Start an interactive chat. Continues the most recent conversation unless an ID or --new is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := shared.InitializeAgent(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		var conv *domain.Conversation
		if newFlag {
			conv, err = rt.Agent.NewConversation(ctx, "")
		} else {
			conv, err = rt.Agent.ResolveConversation(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("failed to open conversation: %w", err)
		}

		return tui.Start(ctx, rt.Agent, conv)
	},
}

func init() {
	ChatCmd.Flags().BoolVar(&newFlag, "new", false, "Start a new conversation")
}
