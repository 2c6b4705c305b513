package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
)

type SolanaArgs struct {
	Address     string `json:"address" jsonschema:"required,description=The wallet address or the name of its owner." validate:"required"`
	Description string `json:"description" jsonschema:"required,description=What the user wants to know about the address."`
}

type WalletArgs struct {
	Address string `json:"address" jsonschema:"required,description=The wallet address." validate:"required"`
}

func (h *handlers) fetchSolanaDetail(ctx context.Context, turn *registry.Turn, args SolanaArgs) error {
	if h.deps.Addresses == nil || h.deps.Summarizer == nil {
		return fmt.Errorf("address lookup %w", errUnavailable)
	}
	_ = turn.Sink.Update(view.Spinner{Label: "Looking up address..."})

	match, err := h.deps.Addresses.Nearest(ctx, args.Address)
	if err != nil {
		return fmt.Errorf("address lookup failed: %w", err)
	}
	turn.Logger.Debug("resolved solana address", "query", args.Address, "address", match.Address, "score", match.Score)

	prompt := strings.Join([]string{
		fmt.Sprintf("You are a helpful assistant. This is context related to the address %s.", match.Address),
		fmt.Sprintf("context: %s address: %s", match.Description, match.Address),
		"question: Fetch information about a specific Solana wallet address.",
		"description: " + args.Description,
		"Answer based on the context above and return the answer as plain text.",
	}, "\n")
	return h.summarizeInto(ctx, turn, FetchSolanaDetail, prompt)
}

func (h *handlers) fetchWalletDetails(ctx context.Context, turn *registry.Turn, args WalletArgs) error {
	if h.deps.Wallets == nil || h.deps.Summarizer == nil {
		return fmt.Errorf("wallet analytics %w", errUnavailable)
	}
	_ = turn.Sink.Update(view.Spinner{Label: "Fetching wallet analytics..."})

	data, err := h.deps.Wallets.Wallet(ctx, args.Address)
	if err != nil {
		return fmt.Errorf("wallet analytics unavailable: %w", err)
	}

	prompt := strings.Join([]string{
		"You are a helpful assistant that shows the details of a particular wallet address.",
		"question: Fetch the details about a specific wallet address.",
		"data: " + data,
		"If asked for the risk or integrity score or rating, give the bird rating result only.",
	}, "\n")
	return h.summarizeInto(ctx, turn, FetchWalletDetails, prompt)
}

func (h *handlers) summarizeInto(ctx context.Context, turn *registry.Turn, tool, prompt string) error {
	answer, err := h.deps.Summarizer.Summarize(ctx, prompt)
	if err != nil {
		return err
	}
	answer = strings.TrimSpace(answer)
	if err := turn.Sink.Seal(view.BotMessage{Text: answer}); err != nil {
		return err
	}
	h.record(turn, tool, answer)
	appendResult(turn, tool, answer)
	return nil
}
