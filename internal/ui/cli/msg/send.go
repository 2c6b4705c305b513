package msg

import (
	"fmt"
	"os"
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/agent"
	"github.com/Ocada-ai-biz/agentx/internal/shared"
	"github.com/Ocada-ai-biz/agentx/internal/ui/printer"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send a single message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := shared.InitializeAgent(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		conv, err := resolve(ctx, rt.Agent)
		if err != nil {
			return err
		}

		stream := rt.Agent.SendMessageStream(ctx, agent.SendMessageOptions{
			ConversationID: conv.ID,
			Content:        strings.Join(args, " "),
		})
		if err := printer.New(os.Stdout).Run(stream.Events); err != nil {
			fmt.Fprintln(os.Stderr, printer.Error(err))
			return fmt.Errorf("message failed")
		}
		<-stream.Done
		return nil
	},
}
