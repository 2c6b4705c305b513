package msg

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Ocada-ai-biz/agentx/internal/agent"
	"github.com/Ocada-ai-biz/agentx/internal/shared"
	"github.com/Ocada-ai-biz/agentx/internal/ui/printer"
	"github.com/spf13/cobra"
)

var priceFlag float64

var buyCmd = &cobra.Command{
	Use:   "buy [symbol] [amount]",
	Short: "Confirm a purchase shown in a purchase card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}

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

		stream, err := rt.Agent.ConfirmPurchase(ctx, agent.PurchaseOptions{
			ConversationID: conv.ID,
			Symbol:         args[0],
			Price:          priceFlag,
			Amount:         amount,
		})
		if err != nil {
			return err
		}
		return printer.New(os.Stdout).Run(stream.Events)
	},
}

func init() {
	buyCmd.Flags().Float64VarP(&priceFlag, "price", "p", 0, "Price per token, as shown on the purchase card")
	_ = buyCmd.MarkFlagRequired("price")
}
