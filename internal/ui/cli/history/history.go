package history

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/shared"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const previewLength = 50

var (
	limitFlag        int
	conversationFlag string
)

var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the question and answer log",
}

var listCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded questions and answers, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := shared.InitializeStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var convID *uuid.UUID
		if conversationFlag != "" {
			conv, err := store.Conversations.FindByPartialID(cmd.Context(), conversationFlag)
			if err != nil {
				return fmt.Errorf("failed to find conversation: %w", err)
			}
			convID = &conv.ID
		}

		records, err := store.History.List(cmd.Context(), convID, limitFlag)
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Time\tConversation\tKind\tQuestion\tAnswer")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.CreatedAt.Format(time.RFC822),
				r.ConversationID.String()[:8],
				r.Kind,
				truncate(r.Question),
				truncate(r.Answer),
			)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Limit the number of records to show (0 for all)")
	listCmd.Flags().StringVarP(&conversationFlag, "conversation", "c", "", "Only show records of this conversation")
	HistoryCmd.AddCommand(listCmd)
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewLength {
		return string(r[:previewLength-3]) + "..."
	}
	return s
}
