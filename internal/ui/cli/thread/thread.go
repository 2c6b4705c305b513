package thread

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/shared"
	"github.com/Ocada-ai-biz/agentx/internal/ui/theme"
	"github.com/spf13/cobra"
)

var (
	limitFlag int
	forceFlag bool
)

var ThreadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Manage conversations",
}

var listCmd = &cobra.Command{
	Use:   "ls",
	Short: "List conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := shared.InitializeStore()
		if err != nil {
			return err
		}
		defer store.Close()

		convs, err := store.Conversations.List(cmd.Context(), limitFlag)
		if err != nil {
			return fmt.Errorf("failed to list conversations: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUpdated\tTurns\tTitle")
		for _, conv := range convs {
			turns, err := store.Conversations.GetTurns(cmd.Context(), conv.ID)
			if err != nil {
				return fmt.Errorf("failed to get turns: %w", err)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				conv.ID.String()[:8],
				conv.UpdatedAt.Format(time.RFC822),
				len(turns),
				preview(conv),
			)
		}
		return w.Flush()
	},
}

var viewCmd = &cobra.Command{
	Use:   "view [conversation_id]",
	Short: "View the turns of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := shared.InitializeStore()
		if err != nil {
			return err
		}
		defer store.Close()

		conv, err := store.Conversations.FindByPartialID(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to find conversation: %w", err)
		}
		conv, err = store.Conversations.GetByID(cmd.Context(), conv.ID)
		if err != nil {
			return err
		}

		printConversation(conv, limitFlag)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "rm [conversation_id]",
	Short: "Delete a conversation and all its turns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := shared.InitializeStore()
		if err != nil {
			return err
		}
		defer store.Close()

		conv, err := store.Conversations.FindByPartialID(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to find conversation: %w", err)
		}

		fmt.Printf("About to delete conversation %s:\n", conv.ID.String()[:8])
		fmt.Printf("Created: %s\n", conv.CreatedAt.Format(time.RFC822))
		fmt.Printf("Title: %s\n", preview(conv))

		if !forceFlag {
			fmt.Print("\nAre you sure you want to delete this conversation? [y/N] ")
			var response string
			fmt.Scanln(&response)
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Println("Operation cancelled")
				return nil
			}
		}

		if err := store.Conversations.Delete(cmd.Context(), conv.ID); err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		fmt.Println("Conversation deleted successfully")
		return nil
	},
}

var titleCmd = &cobra.Command{
	Use:   "title [conversation_id] [title]",
	Short: "Set the title of a conversation",
	Long:  "Rename a conversation. Leave [title] blank to generate one with the internal model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := shared.InitializeStore()
		if err != nil {
			return err
		}
		defer store.Close()

		conv, err := store.Conversations.FindByPartialID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to find conversation: %w", err)
		}

		title := strings.Join(args[1:], " ")
		if title == "" {
			svc, err := shared.InitializeInternalService(ctx)
			if err != nil {
				return err
			}
			turns, err := store.Conversations.GetTurns(ctx, conv.ID)
			if err != nil {
				return err
			}
			if title, err = svc.CreateConversationTitle(ctx, turns); err != nil {
				return fmt.Errorf("failed to generate title: %w", err)
			}
		}

		if err := store.Conversations.SetTitle(ctx, conv.ID, title); err != nil {
			return fmt.Errorf("failed to set title: %w", err)
		}
		fmt.Printf("Title set to %q\n", title)
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "Limit the number of conversations to show (0 for all)")
	viewCmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "Limit the number of turns to show (0 for all)")
	deleteCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Delete without confirmation")

	ThreadCmd.AddCommand(listCmd, viewCmd, deleteCmd, titleCmd)
}

func preview(conv *domain.Conversation) string {
	if conv.Title == "" {
		return "[empty]"
	}
	return conv.Title
}

func printConversation(conv *domain.Conversation, limit int) {
	th := theme.Default
	fmt.Printf("Conversation %s (created %s)\n\n",
		conv.ID.String()[:8],
		conv.CreatedAt.Format(time.RFC822),
	)

	turns := conv.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	for _, t := range turns {
		switch t.Role {
		case domain.RoleUser:
			fmt.Println(th.UserStyle.Render("You: ") + t.Content)
		case domain.RoleAssistant:
			fmt.Println(th.BotStyle.Render("Assistant: ") + t.Content)
		case domain.RoleFunction:
			style := th.MutedStyle
			if t.IsError {
				style = th.ErrorStyle
			}
			fmt.Println(style.Render(fmt.Sprintf("%s → %s", t.Name, t.Content)))
		default:
			fmt.Println(th.SystemStyle.Render(t.Content))
		}
		fmt.Println()
	}
}
